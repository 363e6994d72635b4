package service

import "testing"

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"plain title", "Beta Launch Planning", "Beta_Launch_Planning.md"},
		{"punctuation stripped", "Q3: Plans & Ideas!", "Q3_Plans__Ideas.md"},
		{"unicode letters kept", "Café Notes", "Café_Notes.md"},
		{"dashes and underscores kept", "my-doc_v2", "my-doc_v2.md"},
		{"surrounding spaces trimmed", "  Draft  ", "Draft.md"},
		{"symbols only falls back", "!!!", "thinking_session.md"},
		{"empty falls back", "", "thinking_session.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportFilename(tt.title); got != tt.want {
				t.Errorf("exportFilename(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
