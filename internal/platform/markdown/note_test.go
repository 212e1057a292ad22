package markdown

import (
	"strings"
	"testing"
)

func TestRenderParse(t *testing.T) {
	t.Parallel()
	content, err := Note{Meta: map[string]any{"subject_id": "p-1"}, Body: "# Session\n"}.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(content, "---\nsubject_id: p-1\n---\n") {
		t.Fatalf("unexpected frontmatter:\n%s", content)
	}
	note, err := Parse(content)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if note.Meta["subject_id"] != "p-1" || !strings.Contains(note.Body, "# Session") {
		t.Fatalf("unexpected note %+v", note)
	}
	if _, err := Parse("---\nbroken: true\n"); err == nil {
		t.Fatalf("expected missing fence error")
	}
}
