// Package parser reads the YAML front matter of compiled diary entries.
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Result holds the output of parsing a compiled entry.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Title       string
	Topics      []string
	// HasTopics is set when the front matter carries a topics key, even an empty one.
	HasTopics bool
}

// Parse separates front matter from the body and extracts title and topics.
// Content without a well-formed front matter block is all body.
func Parse(data []byte) *Result {
	fm, body := splitFrontmatter(data)
	res := &Result{Frontmatter: fm, Body: body}
	if fm == nil {
		return res
	}
	if t, ok := fm["title"]; ok {
		res.Title = strings.TrimSpace(scalar(t))
	}
	if raw, ok := fm["topics"]; ok {
		res.HasTopics = true
		res.Topics = extractTopics(raw)
	}
	return res
}

// splitFrontmatter separates YAML front matter (between leading --- lines)
// from the body. Invalid YAML falls back to treating everything as body.
func splitFrontmatter(data []byte) (map[string]any, string) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data)
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data)
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, string(data)
	}
	return fm, body
}

// extractTopics accepts a YAML list or a comma-separated string.
func extractTopics(raw any) []string {
	var out []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			if s := strings.TrimSpace(scalar(item)); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
