package validation

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer reduces free text to plain text before it is stored: every tag
// goes, and script and style bodies go with it.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Text strips markup and trims. bluemonday escapes what it keeps; the
// entities are decoded again since the value is stored as text, not HTML.
func (s *Sanitizer) Text(text string) string {
	if text == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(text)))
}

// List sanitizes every entry and drops the ones left empty.
func (s *Sanitizer) List(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := s.Text(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
