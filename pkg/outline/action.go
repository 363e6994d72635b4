package outline

import (
	"encoding/json"
	"strings"
)

// Kind identifies one outline edit operation.
type Kind string

const (
	KindAppendSection    Kind = "add_section"
	KindAppendToSection  Kind = "add_to_section"
	KindCreateSubsection Kind = "create_subsection"
	KindAppendActionItem Kind = "add_action_item"
	KindAppendBlocker    Kind = "add_blocker"

	// KindUnknown marks an action whose wire kind was not recognized.
	// It is applied as add_to_section so the content is never dropped.
	KindUnknown Kind = "unknown"
)

// Well-known section titles the engine targets directly.
const (
	SectionActionItems = "Action Items"
	SectionBlockers    = "Blockers & Open Questions"
	SectionUnprocessed = "Unprocessed Thoughts"
)

// EditAction is a single instruction to mutate an Outline.
type EditAction struct {
	Kind    Kind
	RawKind string // original wire value, kept when Kind is KindUnknown
	Path    string // "Section" or "Section/Subsection"
	Content string
}

// NewEditAction normalizes a wire-level action kind. Unrecognized kinds
// become KindUnknown with the original value preserved for logging.
func NewEditAction(kind, path, content string) EditAction {
	k := Kind(strings.ToLower(strings.TrimSpace(kind)))
	switch k {
	case KindAppendSection, KindAppendToSection, KindCreateSubsection,
		KindAppendActionItem, KindAppendBlocker:
		return EditAction{Kind: k, Path: path, Content: content}
	}
	return EditAction{Kind: KindUnknown, RawKind: kind, Path: path, Content: content}
}

type editActionWire struct {
	Action  string `json:"action"`
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (a *EditAction) UnmarshalJSON(data []byte) error {
	var w editActionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = NewEditAction(w.Action, w.Path, w.Content)
	return nil
}

func (a EditAction) MarshalJSON() ([]byte, error) {
	kind := string(a.Kind)
	if a.Kind == KindUnknown && a.RawKind != "" {
		kind = a.RawKind
	}
	return json.Marshal(editActionWire{Action: kind, Path: a.Path, Content: a.Content})
}
