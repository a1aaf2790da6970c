// Package models holds the canonical event representation shared by the relay
// producer and the sink consumer. The queue carries exactly this shape as flat
// JSON, so both sides must agree on it.
package models

import "time"

// Source identifies the upstream origin of a change event.
type Source string

// Known event origins.
const (
	SourceWikipedia Source = "wikipedia"
)

// Valid reports whether s is a known origin.
func (s Source) Valid() bool {
	return s == SourceWikipedia
}

// ChangeEvent is the canonical, queue-transported change representation.
//
// Every field that is optional upstream stays optional here: pointers encode
// absence so a missing value is never confused with a zero value. Data that is
// origin-specific and not promoted to a first-class field travels in Extra.
type ChangeEvent struct {
	Source    Source            `json:"source"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
	Title     *string           `json:"title,omitempty"`
	User      *string           `json:"user,omitempty"`
	Bot       *bool             `json:"bot,omitempty"`
	Type      *string           `json:"type,omitempty"`
	PageURL   *string           `json:"page_url,omitempty"`
	Wiki      *string           `json:"wiki,omitempty"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// LogAttrs returns the salient fields of the event as key/value pairs suitable
// for slog, skipping absent fields.
func (e *ChangeEvent) LogAttrs() []any {
	attrs := []any{"source", string(e.Source)}
	if e.Wiki != nil {
		attrs = append(attrs, "wiki", *e.Wiki)
	}
	if e.Type != nil {
		attrs = append(attrs, "event_type", *e.Type)
	}
	if e.Title != nil {
		attrs = append(attrs, "title", *e.Title)
	}
	if e.User != nil {
		attrs = append(attrs, "user", *e.User)
	}
	if e.Bot != nil {
		attrs = append(attrs, "bot", *e.Bot)
	}
	if e.Timestamp != nil {
		attrs = append(attrs, "timestamp", e.Timestamp.Format(time.RFC3339))
	}
	return attrs
}
