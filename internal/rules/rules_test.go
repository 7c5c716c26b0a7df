package rules

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/starford/devdiary/internal/apperr"
)

func kindOf(t *testing.T, err error) apperr.ValidationKind {
	t.Helper()
	var ve *apperr.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	return ve.Kind
}

func TestValidate_NilRulesPass(t *testing.T) {
	if err := Validate("devDiary", "", "", nil, nil); err != nil {
		t.Errorf("nil rules: %v", err)
	}
}

func TestValidate_Title(t *testing.T) {
	r := &Rules{TitleRegex: `^\d{4}-\d{2}-\d{2} - .+$`, TitleFormatHelp: "YYYY-MM-DD - Suffix"}
	if err := Validate("devDiary", "2024-05-01 - Bugfix", "x", nil, r); err != nil {
		t.Errorf("valid title: %v", err)
	}
	err := Validate("devDiary", "Bugfix", "x", nil, r)
	if kindOf(t, err) != apperr.KindTitle {
		t.Errorf("kind = %v", kindOf(t, err))
	}
	for _, part := range []string{"devDiary", "YYYY-MM-DD - Suffix", `"Bugfix"`} {
		if !strings.Contains(err.Error(), part) {
			t.Errorf("message %q missing %q", err.Error(), part)
		}
	}
}

func TestValidate_BadRegexIsNotValidationError(t *testing.T) {
	err := Validate("devDiary", "t", "", nil, &Rules{TitleRegex: "("})
	var ve *apperr.ValidationError
	if err == nil || errors.As(err, &ve) {
		t.Errorf("err = %v", err)
	}
}

func TestValidate_Excerpt(t *testing.T) {
	r := &Rules{Excerpt: &ExcerptRule{Min: 10, Max: 20}}

	if k := kindOf(t, Validate("d", "t", strings.Repeat("x", 21), nil, r)); k != apperr.KindExcerptLength {
		t.Errorf("too long kind = %v", k)
	}
	if k := kindOf(t, Validate("d", "t", "", nil, r)); k != apperr.KindExcerptEmpty {
		t.Errorf("empty kind = %v", k)
	}
	// Between 0 and min is accepted.
	if err := Validate("d", "t", "short", nil, r); err != nil {
		t.Errorf("short excerpt: %v", err)
	}
	if err := Validate("d", "t", "", nil, &Rules{Excerpt: &ExcerptRule{Min: 0, Max: 5}}); err != nil {
		t.Errorf("empty excerpt with min 0: %v", err)
	}
}

func TestValidate_Topics(t *testing.T) {
	r := &Rules{Topics: &TopicsRule{Allowed: []string{"bugfix", "infra"}, MinCount: 1}}

	err := Validate("devDiary", "t", "e", nil, r)
	if kindOf(t, err) != apperr.KindTopicCount {
		t.Errorf("kind = %v", kindOf(t, err))
	}
	if !strings.Contains(err.Error(), "at least 1 topic(s)") {
		t.Errorf("message = %q", err.Error())
	}

	err = Validate("devDiary", "t", "e", []string{"bugfix", "Infra", "misc"}, r)
	if kindOf(t, err) != apperr.KindTopicInvalid {
		t.Errorf("kind = %v", kindOf(t, err))
	}
	if !strings.Contains(err.Error(), "Infra, misc") || !strings.Contains(err.Error(), "Allowed: bugfix, infra") {
		t.Errorf("message = %q", err.Error())
	}

	if err := Validate("devDiary", "t", "e", []string{"infra", "bugfix"}, r); err != nil {
		t.Errorf("valid topics: %v", err)
	}
}

func TestValidate_OrderTitleFirst(t *testing.T) {
	r := &Rules{
		TitleRegex: `^never$`,
		Excerpt:    &ExcerptRule{Min: 1, Max: 2},
		Topics:     &TopicsRule{MinCount: 3},
	}
	if k := kindOf(t, Validate("d", "t", "", nil, r)); k != apperr.KindTitle {
		t.Errorf("first failure = %v, want title", k)
	}
	r.TitleRegex = ""
	if k := kindOf(t, Validate("d", "t", "", nil, r)); k != apperr.KindExcerptEmpty {
		t.Errorf("second failure = %v, want excerpt", k)
	}
}

func TestValidate_Pure(t *testing.T) {
	r := &Rules{Topics: &TopicsRule{Allowed: []string{"a"}, MinCount: 1}}
	topics := []string{"b"}
	first := Validate("d", "t", "e", topics, r)
	second := Validate("d", "t", "e", topics, r)
	if first == nil || second == nil || first.Error() != second.Error() {
		t.Errorf("validate not deterministic: %v vs %v", first, second)
	}
	if topics[0] != "b" || len(r.Topics.Allowed) != 1 {
		t.Error("validate mutated its inputs")
	}
}

func TestClampExcerpt(t *testing.T) {
	rule := &ExcerptRule{Min: 10, Max: 20}

	got := ClampExcerpt("short", rule)
	if utf8.RuneCountInString(got) > 20 || got != "short" {
		t.Errorf("short seed = %q", got)
	}

	got = ClampExcerpt("this sentence is definitely longer than twenty", rule)
	if got != "this sentence is def" {
		t.Errorf("long seed = %q", got)
	}

	got = ClampExcerpt("  fits   within\n bounds ", rule)
	if got != "fits within bounds" {
		t.Errorf("whitespace = %q", got)
	}

	if got := ClampExcerpt("  a  b ", nil); got != "a b" {
		t.Errorf("nil rule = %q", got)
	}

	got = ClampExcerpt(strings.Repeat("é", 30), rule)
	if utf8.RuneCountInString(got) != 20 {
		t.Errorf("multibyte clamp = %d runes", utf8.RuneCountInString(got))
	}
}
