package outline

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestApplyCaseInsensitiveMerge(t *testing.T) {
	o := New()

	if err := o.Apply(NewEditAction("add_to_section", "Career Decisions/Options", "opt A")); err != nil {
		t.Fatalf("first apply failed: %v", err)
	}
	if err := o.Apply(NewEditAction("add_to_section", "career decisions/options", "opt B")); err != nil {
		t.Fatalf("second apply failed: %v", err)
	}

	data := o.Data()
	if len(data) != 1 {
		t.Fatalf("expected 1 top section, got %d", len(data))
	}
	if data[0].Title != "Career Decisions" {
		t.Errorf("expected first writer's casing kept, got %q", data[0].Title)
	}
	if len(data[0].Subsections) != 1 {
		t.Fatalf("expected 1 subsection, got %d", len(data[0].Subsections))
	}
	if got := data[0].Subsections[0].Content; got != "opt A\nopt B" {
		t.Errorf("expected appended lines in order, got %q", got)
	}
}

func TestApplyActionKinds(t *testing.T) {
	tests := []struct {
		name        string
		actions     []EditAction
		wantSection string
		wantContent string
	}{
		{
			name: "append section creates then appends",
			actions: []EditAction{
				NewEditAction("add_section", "Ideas", "first thought"),
				NewEditAction("add_section", "ideas", "second thought"),
			},
			wantSection: "Ideas",
			wantContent: "first thought\nsecond thought",
		},
		{
			name: "create subsection appends when it already exists",
			actions: []EditAction{
				NewEditAction("create_subsection", "Plan/Week 1", "ship it"),
				NewEditAction("create_subsection", "plan/week 1", "test it"),
			},
			wantSection: "Plan",
			wantContent: "",
		},
		{
			name: "action item gets checkbox prefix",
			actions: []EditAction{
				NewEditAction("add_action_item", "", "call the recruiter"),
			},
			wantSection: SectionActionItems,
			wantContent: "- [ ] call the recruiter",
		},
		{
			name: "already checkboxed line kept as is",
			actions: []EditAction{
				NewEditAction("add_action_item", "", "- [x] sent the email"),
			},
			wantSection: SectionActionItems,
			wantContent: "- [x] sent the email",
		},
		{
			name: "blocker gets bullet prefix",
			actions: []EditAction{
				NewEditAction("add_blocker", "", "waiting on offer letter"),
			},
			wantSection: SectionBlockers,
			wantContent: "- waiting on offer letter",
		},
		{
			name: "already bulleted blocker kept as is",
			actions: []EditAction{
				NewEditAction("add_blocker", "", "- budget unknown"),
			},
			wantSection: SectionBlockers,
			wantContent: "- budget unknown",
		},
		{
			name: "unknown kind falls back to append by path",
			actions: []EditAction{
				NewEditAction("reorganize_sections", "Ideas", "keep this"),
			},
			wantSection: "Ideas",
			wantContent: "keep this",
		},
		{
			name: "unknown kind with empty path lands in fallback section",
			actions: []EditAction{
				NewEditAction("summarize", "", "stray thought"),
			},
			wantSection: SectionUnprocessed,
			wantContent: "stray thought",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New()
			for _, a := range tt.actions {
				if err := o.Apply(a); err != nil {
					t.Fatalf("apply %v failed: %v", a.Kind, err)
				}
			}
			sec := findData(o.Data(), tt.wantSection)
			if sec == nil {
				t.Fatalf("section %q missing, have %v", tt.wantSection, titles(o.Data()))
			}
			if sec.Content != tt.wantContent {
				t.Errorf("content = %q, want %q", sec.Content, tt.wantContent)
			}
		})
	}
}

func TestApplyCreateSubsectionMergesCaseInsensitively(t *testing.T) {
	o := New()
	if err := o.Apply(NewEditAction("create_subsection", "Plan/Week 1", "ship it")); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := o.Apply(NewEditAction("create_subsection", "plan/WEEK 1", "test it")); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	data := o.Data()
	if len(data) != 1 || len(data[0].Subsections) != 1 {
		t.Fatalf("expected one section with one subsection, got %+v", data)
	}
	if got := data[0].Subsections[0].Content; got != "ship it\ntest it" {
		t.Errorf("subsection content = %q", got)
	}
}

func TestApplyInvalidPath(t *testing.T) {
	tests := []struct {
		name   string
		action EditAction
	}{
		{"three segment append", NewEditAction("add_to_section", "a/b/c", "x")},
		{"three segment subsection", NewEditAction("create_subsection", "a/b/c", "x")},
		{"one segment subsection", NewEditAction("create_subsection", "only", "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := New()
			err := o.Apply(tt.action)
			if !errors.Is(err, ErrInvalidPath) {
				t.Errorf("expected ErrInvalidPath, got %v", err)
			}
			if !o.IsEmpty() {
				t.Errorf("failed action must not mutate the outline")
			}
		})
	}
}

func TestApplyEmptyContentCreatesButNeverAppends(t *testing.T) {
	o := New()
	if err := o.Apply(NewEditAction("add_to_section", "Notes", "line one")); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if err := o.Apply(NewEditAction("add_to_section", "Notes", "")); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	sec := findData(o.Data(), "Notes")
	if sec == nil {
		t.Fatal("section missing")
	}
	if sec.Content != "line one" {
		t.Errorf("empty append must not add a newline, got %q", sec.Content)
	}

	if err := o.Apply(NewEditAction("add_section", "Later", "")); err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if findData(o.Data(), "Later") == nil {
		t.Error("empty content should still create the section")
	}
}

func TestRenderShape(t *testing.T) {
	o := New()
	mustApply(t, o, NewEditAction("add_section", "Career Decisions", "Weighing job A vs job B"))
	mustApply(t, o, NewEditAction("add_to_section", "Career Decisions/Options", "opt A"))
	mustApply(t, o, NewEditAction("add_section", "Empty Heading", ""))

	want := strings.Join([]string{
		"## Career Decisions",
		"",
		"Weighing job A vs job B",
		"",
		"### Options",
		"",
		"opt A",
		"",
		"## Empty Heading",
		"",
	}, "\n")
	if got := o.Render(); got != want {
		t.Errorf("render mismatch:\ngot:\n%q\nwant:\n%q", got, want)
	}
}

func TestRenderIsPure(t *testing.T) {
	o := New()
	mustApply(t, o, NewEditAction("add_section", "Ideas", "one"))
	mustApply(t, o, NewEditAction("add_action_item", "", "do the thing"))

	first := o.Render()
	second := o.Render()
	if first != second {
		t.Errorf("consecutive renders differ:\n%q\n%q", first, second)
	}
}

func TestFromSectionsRoundTrip(t *testing.T) {
	o := New()
	mustApply(t, o, NewEditAction("add_to_section", "Plan/Week 1", "ship"))
	mustApply(t, o, NewEditAction("add_blocker", "", "no staging env"))

	restored := FromSections(o.Data())
	if restored.Render() != o.Render() {
		t.Errorf("restored outline renders differently:\n%q\n%q", restored.Render(), o.Render())
	}
}

func TestEditActionWireDecoding(t *testing.T) {
	raw := `[
		{"action": "add_section", "path": "Ideas", "content": "x"},
		{"action": "merge_everything", "path": "Ideas", "content": "y"}
	]`

	var actions []EditAction
	if err := json.Unmarshal([]byte(raw), &actions); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if actions[0].Kind != KindAppendSection {
		t.Errorf("known kind = %v", actions[0].Kind)
	}
	if actions[1].Kind != KindUnknown || actions[1].RawKind != "merge_everything" {
		t.Errorf("unknown kind not preserved: %+v", actions[1])
	}

	out, err := json.Marshal(actions[1])
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.Contains(string(out), "merge_everything") {
		t.Errorf("raw kind should be echoed on the wire, got %s", out)
	}
}

func mustApply(t *testing.T, o *Outline, a EditAction) {
	t.Helper()
	if err := o.Apply(a); err != nil {
		t.Fatalf("apply %v failed: %v", a.Kind, err)
	}
}

func findData(data []SectionData, title string) *SectionData {
	for i := range data {
		if strings.EqualFold(data[i].Title, title) {
			return &data[i]
		}
	}
	return nil
}

func titles(data []SectionData) []string {
	out := make([]string, 0, len(data))
	for _, sd := range data {
		out = append(out, sd.Title)
	}
	return out
}
