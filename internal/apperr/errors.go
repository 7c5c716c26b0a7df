// Package apperr holds the error taxonomy shared by the core and its callers.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownSection is returned when an event names a section outside the
// fixed set.
var ErrUnknownSection = errors.New("unknown section")

// EmptyNoteError is returned when a note has no content after prefix removal.
type EmptyNoteError struct{}

func (*EmptyNoteError) Error() string { return "empty note after prefix removal" }

// UnknownDestinationError is returned when a compile targets an unconfigured collection.
type UnknownDestinationError struct {
	Key       string
	Available []string
}

func (e *UnknownDestinationError) Error() string {
	return fmt.Sprintf("unknown collection %q. Available: %s", e.Key, strings.Join(e.Available, ", "))
}

// InvalidDateError is returned for dates that cannot be normalised to YYYY-MM-DD.
type InvalidDateError struct {
	Value string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: %s", e.Value)
}

// ValidationKind identifies which collection rule rejected a compile.
type ValidationKind string

// Validation kinds, in the order the rules are checked.
const (
	KindTitle         ValidationKind = "title"
	KindExcerptLength ValidationKind = "excerpt_length"
	KindExcerptEmpty  ValidationKind = "excerpt_required"
	KindTopicCount    ValidationKind = "topic_count"
	KindTopicInvalid  ValidationKind = "topic_invalid"
)

// ValidationError is returned when a title, excerpt or topic set breaks a collection rule.
type ValidationError struct {
	Destination string
	Kind        ValidationKind
	Reason      string
}

func (e *ValidationError) Error() string { return e.Reason }

// TemplateNotFoundError is returned when a collection's template file is missing.
type TemplateNotFoundError struct {
	Path string
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("template not found: %s", e.Path)
}

// IsUserError reports whether err belongs to the taxonomy above, i.e. it is
// caused by input rather than by the environment.
func IsUserError(err error) bool {
	var (
		empty *EmptyNoteError
		dest  *UnknownDestinationError
		date  *InvalidDateError
		val   *ValidationError
		tmpl  *TemplateNotFoundError
	)
	return errors.Is(err, ErrUnknownSection) || errors.As(err, &empty) || errors.As(err, &dest) || errors.As(err, &date) ||
		errors.As(err, &val) || errors.As(err, &tmpl)
}
