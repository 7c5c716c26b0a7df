package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_CompiledEntry(t *testing.T) {
	input := []byte("---\ntitle: \"2024-05-01 - Bugfix\"\ndate: 2024-05-01\nexcerpt: \"fixed \\\"the\\\" bug\"\ntopics: [\"bugfix\", \"infra\"]\ndraft: true\n---\n\n## Actions\n- fixed bug\n")
	r := Parse(input)
	if r.Title != "2024-05-01 - Bugfix" {
		t.Errorf("title = %q", r.Title)
	}
	if diff := cmp.Diff([]string{"bugfix", "infra"}, r.Topics); diff != "" {
		t.Errorf("topics (-want +got):\n%s", diff)
	}
	if r.Body != "## Actions\n- fixed bug\n" {
		t.Errorf("body = %q", r.Body)
	}
	if r.Frontmatter["excerpt"] != `fixed "the" bug` {
		t.Errorf("excerpt = %v", r.Frontmatter["excerpt"])
	}
}

func TestParse_TopicsAsString(t *testing.T) {
	r := Parse([]byte("---\ntopics: go, testing ,\n---\nbody"))
	if diff := cmp.Diff([]string{"go", "testing"}, r.Topics); diff != "" {
		t.Errorf("topics (-want +got):\n%s", diff)
	}
	if !r.HasTopics {
		t.Error("HasTopics should be set")
	}
}

func TestParse_EmptyTopics(t *testing.T) {
	r := Parse([]byte("---\ntitle: x\ntopics: []\n---\n"))
	if !r.HasTopics || len(r.Topics) != 0 {
		t.Errorf("topics = %v, has = %v", r.Topics, r.HasTopics)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter != nil || r.Title != "" || r.HasTopics {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestParse_UnclosedFrontmatter(t *testing.T) {
	r := Parse([]byte("---\ntitle: x\nno closing fence"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestParse_NonStringTitle(t *testing.T) {
	r := Parse([]byte("---\ntitle: 2024\n---\n"))
	if r.Title != "2024" {
		t.Errorf("title = %q", r.Title)
	}
}
