package classify

import (
	"errors"
	"testing"

	"github.com/starford/devdiary/internal/apperr"
	"github.com/starford/devdiary/internal/models"
)

func TestClassify_Prefixes(t *testing.T) {
	cases := []struct {
		in      string
		section models.Section
		text    string
	}{
		{"ctx: started work", models.SectionContext, "started work"},
		{"Context:  sprint 4 ", models.SectionContext, "sprint 4"},
		{"act: fixed bug", models.SectionActions, "fixed bug"},
		{"ACTION: deployed", models.SectionActions, "deployed"},
		{"actions: wrote docs", models.SectionActions, "wrote docs"},
		{"obs: slow build", models.SectionObservations, "slow build"},
		{"Observation: flaky test", models.SectionObservations, "flaky test"},
		{"observations:cache misses", models.SectionObservations, "cache misses"},
		{"open: ask about quota", models.SectionOpenThreads, "ask about quota"},
		{"Thread: follow up", models.SectionOpenThreads, "follow up"},
		{"threads: two things", models.SectionOpenThreads, "two things"},
		{"  just some text  ", models.SectionActions, "just some text"},
		{"context without colon", models.SectionActions, "context without colon"},
		{"opening: not a prefix", models.SectionActions, "opening: not a prefix"},
	}
	for _, c := range cases {
		section, text, err := Classify(c.in)
		if err != nil {
			t.Errorf("Classify(%q): %v", c.in, err)
			continue
		}
		if section != c.section || text != c.text {
			t.Errorf("Classify(%q) = (%s, %q), want (%s, %q)", c.in, section, text, c.section, c.text)
		}
	}
}

func TestClassify_PreservesCaseOfBody(t *testing.T) {
	_, text, err := Classify("OBS: Go Modules Are Great")
	if err != nil {
		t.Fatal(err)
	}
	if text != "Go Modules Are Great" {
		t.Errorf("text = %q", text)
	}
}

func TestClassify_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "ctx:", "open:   ", "\n\t"} {
		_, _, err := Classify(in)
		var empty *apperr.EmptyNoteError
		if !errors.As(err, &empty) {
			t.Errorf("Classify(%q) err = %v, want EmptyNoteError", in, err)
		}
	}
}

func TestSplit_Total(t *testing.T) {
	for _, in := range []string{"", "x", "ctx:", "obs: y", "🙂"} {
		section, _ := Split(in)
		if !section.Valid() || section == models.SectionMeta {
			t.Errorf("Split(%q) section = %q", in, section)
		}
	}
}
