package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsUserError(t *testing.T) {
	user := []error{
		&EmptyNoteError{},
		&UnknownDestinationError{Key: "blog", Available: []string{"devDiary"}},
		&InvalidDateError{Value: "tomorrow"},
		&ValidationError{Destination: "devDiary", Kind: KindTitle, Reason: "bad title"},
		&TemplateNotFoundError{Path: "t.md"},
		fmt.Errorf("eventlog: %w %q", ErrUnknownSection, "notes"),
		fmt.Errorf("compile: %w", &InvalidDateError{Value: "x"}),
	}
	for _, err := range user {
		if !IsUserError(err) {
			t.Errorf("IsUserError(%v) = false", err)
		}
	}
	for _, err := range []error{errors.New("disk full"), nil} {
		if IsUserError(err) {
			t.Errorf("IsUserError(%v) = true", err)
		}
	}
}

func TestMessages(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&UnknownDestinationError{Key: "blog", Available: []string{"a", "b"}}, `unknown collection "blog". Available: a, b`},
		{&InvalidDateError{Value: "31/12/2024"}, "invalid date: 31/12/2024"},
		{&TemplateNotFoundError{Path: "/x/t.md"}, "template not found: /x/t.md"},
		{&EmptyNoteError{}, "empty note after prefix removal"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
