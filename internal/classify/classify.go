// Package classify maps raw note text onto a section using a prefix vocabulary.
package classify

import (
	"strings"

	"github.com/starford/devdiary/internal/apperr"
	"github.com/starford/devdiary/internal/models"
)

type prefix struct {
	token   string
	section models.Section
}

// The keywords are disjoint, so match order does not matter.
var prefixes = []prefix{
	{"ctx:", models.SectionContext},
	{"context:", models.SectionContext},
	{"act:", models.SectionActions},
	{"action:", models.SectionActions},
	{"actions:", models.SectionActions},
	{"obs:", models.SectionObservations},
	{"observation:", models.SectionObservations},
	{"observations:", models.SectionObservations},
	{"open:", models.SectionOpenThreads},
	{"thread:", models.SectionOpenThreads},
	{"threads:", models.SectionOpenThreads},
}

// Split returns the section named by raw's prefix and the text without it.
// Unprefixed text goes to actions verbatim (trimmed). It never fails.
func Split(raw string) (models.Section, string) {
	trimmed := strings.TrimSpace(raw)
	for _, p := range prefixes {
		if len(trimmed) >= len(p.token) && strings.EqualFold(trimmed[:len(p.token)], p.token) {
			return p.section, strings.TrimSpace(trimmed[len(p.token):])
		}
	}
	return models.SectionActions, trimmed
}

// Classify is Split plus the non-empty check every persisted note needs.
func Classify(raw string) (models.Section, string, error) {
	section, cleaned := Split(raw)
	if cleaned == "" {
		return section, "", &apperr.EmptyNoteError{}
	}
	return section, cleaned, nil
}
