package slug

import (
	"regexp"
	"strings"
)

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

// Subject turns a subject identifier into a folder name. Subjects without an
// identifier share the "anonymous" folder.
func Subject(subjectID string) string {
	s := strings.ToLower(strings.TrimSpace(subjectID))
	s = nonAlphaNum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "anonymous"
	}
	return s
}
