// Package rules checks a compiled entry's title, excerpt and topics against
// the constraints a collection declares.
package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/starford/devdiary/internal/apperr"
)

// Rules are the per-collection constraints. Every part is optional.
type Rules struct {
	TitleRegex      string       `yaml:"titleRegex" json:"titleRegex,omitempty"`
	TitleFormatHelp string       `yaml:"titleFormatHelp" json:"titleFormatHelp,omitempty"`
	Excerpt         *ExcerptRule `yaml:"excerpt" json:"excerpt,omitempty"`
	Topics          *TopicsRule  `yaml:"topics" json:"topics,omitempty"`
}

// ExcerptRule bounds the excerpt length in characters.
type ExcerptRule struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// TopicsRule restricts topics to an allow-list and sets a minimum count.
type TopicsRule struct {
	Allowed  []string `yaml:"allowed" json:"allowed"`
	MinCount int      `yaml:"minCount" json:"minCount,omitempty"`
}

// Validate returns the first violated rule as an *apperr.ValidationError,
// checking title, then excerpt, then topics. nil rules always pass.
func Validate(destination, title, excerpt string, topics []string, r *Rules) error {
	if r == nil {
		return nil
	}

	if r.TitleRegex != "" {
		re, err := regexp.Compile(r.TitleRegex)
		if err != nil {
			return fmt.Errorf("rules: compile titleRegex for %s: %w", destination, err)
		}
		if !re.MatchString(title) {
			help := ""
			if r.TitleFormatHelp != "" {
				help = " (" + r.TitleFormatHelp + ")"
			}
			return &apperr.ValidationError{
				Destination: destination,
				Kind:        apperr.KindTitle,
				Reason:      fmt.Sprintf("invalid title for %s%s: %q", destination, help, title),
			}
		}
	}

	if r.Excerpt != nil {
		n := utf8.RuneCountInString(excerpt)
		if n > r.Excerpt.Max {
			return &apperr.ValidationError{
				Destination: destination,
				Kind:        apperr.KindExcerptLength,
				Reason:      fmt.Sprintf("excerpt must be at most %d chars for %s (got %d)", r.Excerpt.Max, destination, n),
			}
		}
		// Only emptiness is checked against min: short entries are legitimate.
		if r.Excerpt.Min > 0 && n == 0 {
			return &apperr.ValidationError{
				Destination: destination,
				Kind:        apperr.KindExcerptEmpty,
				Reason:      fmt.Sprintf("excerpt is required for %s", destination),
			}
		}
	}

	if r.Topics != nil {
		if len(topics) < r.Topics.MinCount {
			return &apperr.ValidationError{
				Destination: destination,
				Kind:        apperr.KindTopicCount,
				Reason:      fmt.Sprintf("at least %d topic(s) required for %s", r.Topics.MinCount, destination),
			}
		}
		allowed := make(map[string]struct{}, len(r.Topics.Allowed))
		for _, a := range r.Topics.Allowed {
			allowed[a] = struct{}{}
		}
		var invalid []string
		for _, t := range topics {
			if _, ok := allowed[t]; !ok {
				invalid = append(invalid, t)
			}
		}
		if len(invalid) > 0 {
			return &apperr.ValidationError{
				Destination: destination,
				Kind:        apperr.KindTopicInvalid,
				Reason: fmt.Sprintf("invalid topic(s) for %s: %s. Allowed: %s",
					destination, strings.Join(invalid, ", "), strings.Join(r.Topics.Allowed, ", ")),
			}
		}
	}

	return nil
}

// ClampExcerpt collapses whitespace in text and fits it to rule.
// Text already within [Min, Max] is kept; longer text is cut to Max. When
// the cut result is shorter than Min the slice is widened to
// max(Min, min(Max, len)) characters, which still may not reach Min.
func ClampExcerpt(text string, rule *ExcerptRule) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if rule == nil {
		return cleaned
	}
	runes := []rune(cleaned)
	n := len(runes)
	if n >= rule.Min && n <= rule.Max {
		return cleaned
	}
	trimmed := strings.TrimSpace(string(runes[:min(rule.Max, n)]))
	if utf8.RuneCountInString(trimmed) < rule.Min {
		width := max(rule.Min, min(rule.Max, n))
		return strings.TrimSpace(string(runes[:min(width, n)]))
	}
	return trimmed
}
