package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"audiometer/internal/modules/session/domain"
	sessionout "audiometer/internal/modules/session/port/out"
	"audiometer/internal/platform/markdown"
	"audiometer/internal/platform/slug"
)

// NoteSessionStore writes one markdown note per finished session into the
// subject folder under the record save path.
type NoteSessionStore struct{}

func NewNoteSessionStore() sessionout.SessionStore {
	return &NoteSessionStore{}
}

func (s *NoteSessionStore) Save(_ context.Context, root string, session domain.Session) (string, error) {
	dir := filepath.Join(root, slug.Subject(session.SubjectID), "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}
	path := filepath.Join(dir, session.StartedAt.Format("2006-01-02-150405")+".md")

	attributes := map[string]string{}
	for _, a := range session.Attributes {
		attributes[a.Key] = a.Value
	}
	meta := map[string]any{
		"schema_version":   domain.SchemaVersion,
		"id":               session.ID,
		"subject_id":       session.SubjectID,
		"headphone":        session.Headphone,
		"use_calibration":  session.UseCalibration,
		"started_at":       session.StartedAt.Format(time.RFC3339),
		"ended_at":         session.EndedAt.Format(time.RFC3339),
		"duration_minutes": session.DurationMin,
		"outcome":          session.Outcome,
	}
	if len(attributes) > 0 {
		meta["attributes"] = attributes
	}
	rendered, err := markdown.Note{Meta: meta, Body: noteBody(session)}.Render()
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session note: %w", err)
	}
	return path, nil
}

func noteBody(session domain.Session) string {
	var b strings.Builder
	subject := session.SubjectID
	if subject == "" {
		subject = "anonymous"
	}
	fmt.Fprintf(&b, "# Session %s\n\n- Subject: %s\n- Headphone: %s\n- Duration: %d minutes\n", session.ID, subject, session.Headphone, session.DurationMin)
	if len(session.Thresholds.Frequencies) > 0 {
		b.WriteString("\n## Thresholds (dB HL)\n\n| ear |")
		for _, f := range session.Thresholds.Frequencies {
			b.WriteString(" " + strconv.Itoa(f) + " |")
		}
		b.WriteString("\n|---|")
		for range session.Thresholds.Frequencies {
			b.WriteString("---|")
		}
		b.WriteString("\n")
		writeRow(&b, "left", session.Thresholds.Left)
		writeRow(&b, "right", session.Thresholds.Right)
	}
	if session.Outcome != "" {
		fmt.Fprintf(&b, "\n## Outcome\n\n%s\n", session.Outcome)
	}
	return b.String()
}

func writeRow(b *strings.Builder, ear string, cells []string) {
	b.WriteString("| " + ear + " |")
	for _, c := range cells {
		b.WriteString(" " + c + " |")
	}
	b.WriteString("\n")
}
