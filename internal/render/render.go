// Package render fills {{name}} placeholders in a plain-text template.
package render

import (
	"sort"
	"strings"
	"unicode"
)

// Placeholders lists the names a diary template may use.
var Placeholders = []string{
	"title", "date", "excerpt", "topics", "draft",
	"context", "actions", "observations", "openThreads", "timeline",
}

// Render replaces every occurrence of {{key}} for each key in vars in a
// single pass, so substituted values are never expanded again. Unknown
// placeholders are left as they are. The output is right-trimmed and ends
// with exactly one newline.
func Render(template string, vars map[string]string) string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{{"+k+"}}", vars[k])
	}
	out := strings.NewReplacer(pairs...).Replace(template)
	return strings.TrimRightFunc(out, unicode.IsSpace) + "\n"
}

// QuoteEscape backslash-escapes double quotes.
func QuoteEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}

// TopicList formats topics as an inline array: ["a", "b"].
func TopicList(topics []string) string {
	quoted := make([]string, len(topics))
	for i, t := range topics {
		quoted[i] = `"` + QuoteEscape(t) + `"`
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Missing returns the known placeholders that template does not reference.
func Missing(template string) []string {
	var out []string
	for _, p := range Placeholders {
		if !strings.Contains(template, "{{"+p+"}}") {
			out = append(out, p)
		}
	}
	return out
}
