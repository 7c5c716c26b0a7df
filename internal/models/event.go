// Package models defines the domain types for devdiary.
package models

// Section is the bucket a note is classified into.
type Section string

// Known sections. SectionMeta is an internal pseudo-section holding compile
// metadata; it never shows up in rendered output.
const (
	SectionContext      Section = "context"
	SectionActions      Section = "actions"
	SectionObservations Section = "observations"
	SectionOpenThreads  Section = "openThreads"
	SectionMeta         Section = "meta"
)

// NoteSections lists the four user-facing sections in rendering order.
var NoteSections = []Section{
	SectionContext,
	SectionActions,
	SectionObservations,
	SectionOpenThreads,
}

// Valid reports whether s is one of the known sections, meta included.
func (s Section) Valid() bool {
	switch s {
	case SectionContext, SectionActions, SectionObservations, SectionOpenThreads, SectionMeta:
		return true
	}
	return false
}

// Label returns the display name used in timelines.
func (s Section) Label() string {
	switch s {
	case SectionContext:
		return "Context"
	case SectionActions:
		return "Action"
	case SectionObservations:
		return "Observation"
	case SectionOpenThreads:
		return "Open Thread"
	case SectionMeta:
		return "Meta"
	}
	return string(s)
}

// Event is one line of a day log.
type Event struct {
	TS      string  `json:"ts"`
	Date    string  `json:"date"`
	Section Section `json:"section"`
	Text    string  `json:"text"`
}

// Metadata records the inputs of the last compile for a date.
type Metadata struct {
	TitleSuffix string `json:"titleSuffix"`
	TopicsCSV   string `json:"topicsCsv"`
}

// Buckets holds events partitioned by section, each in log order.
type Buckets struct {
	Context      []Event
	Actions      []Event
	Observations []Event
	OpenThreads  []Event
}

// Get returns the bucket for s, or nil for meta and unknown sections.
func (b Buckets) Get(s Section) []Event {
	switch s {
	case SectionContext:
		return b.Context
	case SectionActions:
		return b.Actions
	case SectionObservations:
		return b.Observations
	case SectionOpenThreads:
		return b.OpenThreads
	}
	return nil
}
