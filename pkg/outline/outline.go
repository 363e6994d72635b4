// Package outline holds the structured document a capture session builds up:
// an ordered tree of titled sections, one level of subsections, mutated only
// through EditAction appends and rendered to markdown as a pure projection.
package outline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned when an action path has more segments than the
// section/subsection structure supports.
var ErrInvalidPath = errors.New("invalid section path")

// Section is one titled block of the outline. Titles are unique among
// siblings, compared case-insensitively; the first writer fixes the casing.
type Section struct {
	Title       string
	Content     string
	Subsections []*Section
}

// SectionData is the persisted JSON shape of a section.
type SectionData struct {
	Title       string        `json:"title"`
	Content     string        `json:"content"`
	Subsections []SectionData `json:"subsections"`
}

// Outline is the in-memory document for one session. It is not safe for
// concurrent use: the session's owning goroutine is its single writer.
type Outline struct {
	sections []*Section
}

func New() *Outline {
	return &Outline{}
}

// FromSections rebuilds an outline from its persisted form.
func FromSections(data []SectionData) *Outline {
	o := &Outline{}
	for _, sd := range data {
		sec := &Section{Title: sd.Title, Content: sd.Content}
		for _, sub := range sd.Subsections {
			sec.Subsections = append(sec.Subsections, &Section{Title: sub.Title, Content: sub.Content})
		}
		o.sections = append(o.sections, sec)
	}
	return o
}

// Data returns a deep copy of the outline in its persisted form.
func (o *Outline) Data() []SectionData {
	out := make([]SectionData, 0, len(o.sections))
	for _, sec := range o.sections {
		sd := SectionData{Title: sec.Title, Content: sec.Content, Subsections: []SectionData{}}
		for _, sub := range sec.Subsections {
			sd.Subsections = append(sd.Subsections, SectionData{
				Title:       sub.Title,
				Content:     sub.Content,
				Subsections: []SectionData{},
			})
		}
		out = append(out, sd)
	}
	return out
}

func (o *Outline) IsEmpty() bool {
	return len(o.sections) == 0
}

// Apply executes one edit action. Every kind is an append: repeated
// application appends repeated content, so the caller decides whether a
// logical edit runs once or twice. An empty content payload still creates
// the targeted sections but appends nothing.
func (o *Outline) Apply(a EditAction) error {
	switch a.Kind {
	case KindAppendSection:
		title := strings.TrimSpace(a.Path)
		if title == "" {
			title = SectionUnprocessed
		}
		o.findOrCreate(title).appendContent(a.Content)
		return nil

	case KindAppendToSection, KindUnknown:
		return o.appendByPath(a.Path, a.Content)

	case KindCreateSubsection:
		parts := splitPath(a.Path)
		if len(parts) != 2 {
			return fmt.Errorf("%w: %q needs exactly two segments", ErrInvalidPath, a.Path)
		}
		sec := o.findOrCreate(parts[0])
		sec.findOrCreateSub(parts[1]).appendContent(a.Content)
		return nil

	case KindAppendActionItem:
		o.findOrCreate(SectionActionItems).appendContent(checkboxLines(a.Content))
		return nil

	case KindAppendBlocker:
		o.findOrCreate(SectionBlockers).appendContent(bulletLines(a.Content))
		return nil
	}
	// Unreachable for actions built via NewEditAction; treat like unknown.
	return o.appendByPath(a.Path, a.Content)
}

// appendByPath handles one- and two-segment paths. An empty path routes to
// the fallback section so lenient-fallback actions never lose content.
func (o *Outline) appendByPath(path, content string) error {
	parts := splitPath(path)
	switch len(parts) {
	case 1:
		title := parts[0]
		if title == "" {
			title = SectionUnprocessed
		}
		o.findOrCreate(title).appendContent(content)
		return nil
	case 2:
		sec := o.findOrCreate(parts[0])
		sec.findOrCreateSub(parts[1]).appendContent(content)
		return nil
	default:
		return fmt.Errorf("%w: %q has %d segments", ErrInvalidPath, path, len(parts))
	}
}

// Render projects the outline to markdown. Pure: repeated calls without a
// mutation in between return byte-identical text.
func (o *Outline) Render() string {
	var lines []string
	for _, sec := range o.sections {
		lines = append(lines, "## "+sec.Title, "")
		if sec.Content != "" {
			lines = append(lines, sec.Content, "")
		}
		for _, sub := range sec.Subsections {
			lines = append(lines, "### "+sub.Title, "")
			if sub.Content != "" {
				lines = append(lines, sub.Content, "")
			}
		}
	}
	return strings.Join(lines, "\n")
}

func (o *Outline) findOrCreate(title string) *Section {
	for _, sec := range o.sections {
		if strings.EqualFold(sec.Title, title) {
			return sec
		}
	}
	sec := &Section{Title: title}
	o.sections = append(o.sections, sec)
	return sec
}

func (s *Section) findOrCreateSub(title string) *Section {
	for _, sub := range s.Subsections {
		if strings.EqualFold(sub.Title, title) {
			return sub
		}
	}
	sub := &Section{Title: title}
	s.Subsections = append(s.Subsections, sub)
	return sub
}

func (s *Section) appendContent(content string) {
	if content == "" {
		return
	}
	if s.Content == "" {
		s.Content = content
		return
	}
	s.Content += "\n" + content
}

func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func checkboxLines(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "- [") {
			continue
		}
		lines[i] = "- [ ] " + line
	}
	return strings.Join(lines, "\n")
}

func bulletLines(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if line == "" || strings.HasPrefix(line, "- ") {
			continue
		}
		lines[i] = "- " + line
	}
	return strings.Join(lines, "\n")
}
