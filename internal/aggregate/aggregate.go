// Package aggregate derives the bucketed and chronological views of a day's
// events and pre-renders them as plain text for the template renderer.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/starford/devdiary/internal/dates"
	"github.com/starford/devdiary/internal/models"
)

// None is rendered for an empty bucket.
const None = "- (none)"

// Bucketize partitions events by section, keeping their relative order.
// Meta and unknown sections are dropped.
func Bucketize(events []models.Event) models.Buckets {
	var b models.Buckets
	for _, e := range events {
		switch e.Section {
		case models.SectionContext:
			b.Context = append(b.Context, e)
		case models.SectionActions:
			b.Actions = append(b.Actions, e)
		case models.SectionObservations:
			b.Observations = append(b.Observations, e)
		case models.SectionOpenThreads:
			b.OpenThreads = append(b.OpenThreads, e)
		}
	}
	return b
}

// Timeline returns the note events ordered by timestamp. Events whose
// timestamp is missing or unparseable go last; ties keep insertion order.
func Timeline(events []models.Event, loc *time.Location) []models.Event {
	type keyed struct {
		ev models.Event
		at time.Time
		ok bool
	}
	items := make([]keyed, 0, len(events))
	for _, e := range events {
		if e.Section == models.SectionMeta {
			continue
		}
		at, ok := dates.ParseTimestamp(e.TS, loc)
		items = append(items, keyed{ev: e, at: at, ok: ok})
	}
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.ok != b.ok {
			return a.ok
		}
		if !a.ok {
			return false
		}
		return a.at.Before(b.at)
	})
	out := make([]models.Event, len(items))
	for i, it := range items {
		out[i] = it.ev
	}
	return out
}

// RenderBullets renders one "- " line per event. With withTimes set, events
// carrying a parseable timestamp get an "HH:MM " prefix in loc.
func RenderBullets(events []models.Event, loc *time.Location, withTimes bool) string {
	if len(events) == 0 {
		return None
	}
	lines := make([]string, len(events))
	for i, e := range events {
		var sb strings.Builder
		sb.WriteString("- ")
		if withTimes {
			if clock, ok := dates.Clock(e.TS, loc); ok {
				sb.WriteString(clock)
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(e.Text)
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// RenderTimeline renders the chronological view, one
// "- HH:MM (Label) text" line per event.
func RenderTimeline(events []models.Event, loc *time.Location) string {
	ordered := Timeline(events, loc)
	if len(ordered) == 0 {
		return None
	}
	lines := make([]string, len(ordered))
	for i, e := range ordered {
		var sb strings.Builder
		sb.WriteString("- ")
		if clock, ok := dates.Clock(e.TS, loc); ok {
			sb.WriteString(clock)
			sb.WriteByte(' ')
		}
		sb.WriteString("(" + e.Section.Label() + ") ")
		sb.WriteString(e.Text)
		lines[i] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// Texts returns the text of each event.
func Texts(events []models.Event) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Text
	}
	return out
}
