// Package wikimedia models the upstream recent-change wire schema and its
// conversion to the canonical change event.
//
// Every field is optional: the stream mixes heterogeneous event subtypes
// (edits, log actions, categorization) on one channel, so absence of a field
// is never an error.
package wikimedia

import (
	"strconv"
	"time"

	"github.com/wikirelay/wikirelay/common/models"
)

// CanaryDomain marks upstream heartbeat/test traffic that must never be
// processed as real data.
const CanaryDomain = "canary"

// Meta is the nested event metadata block.
type Meta struct {
	URI       string     `json:"uri,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	ID        string     `json:"id,omitempty"`
	DT        *time.Time `json:"dt,omitempty"`
	Domain    string     `json:"domain,omitempty"`
	Stream    string     `json:"stream,omitempty"`

	// Present only when the upstream is itself queue-backed.
	Topic     string `json:"topic,omitempty"`
	Partition *int   `json:"partition,omitempty"`
	Offset    *int64 `json:"offset,omitempty"`
}

// Delta carries an old/new value pair for revision IDs and page lengths.
type Delta struct {
	Old *int64 `json:"old,omitempty"`
	New *int64 `json:"new,omitempty"`
}

// RecentChange is the upstream wire schema for one stream line.
type RecentChange struct {
	Schema           string  `json:"$schema,omitempty"`
	Meta             *Meta   `json:"meta,omitempty"`
	ID               *int64  `json:"id,omitempty"`
	Type             *string `json:"type,omitempty"`
	Namespace        *int    `json:"namespace,omitempty"`
	Title            *string `json:"title,omitempty"`
	TitleURL         *string `json:"title_url,omitempty"`
	Comment          *string `json:"comment,omitempty"`
	Timestamp        *int64  `json:"timestamp,omitempty"`
	User             *string `json:"user,omitempty"`
	Bot              *bool   `json:"bot,omitempty"`
	Minor            *bool   `json:"minor,omitempty"`
	Patrolled        *bool   `json:"patrolled,omitempty"`
	Length           *Delta  `json:"length,omitempty"`
	Revision         *Delta  `json:"revision,omitempty"`
	ServerURL        *string `json:"server_url,omitempty"`
	ServerName       *string `json:"server_name,omitempty"`
	ServerScriptPath *string `json:"server_script_path,omitempty"`
	Wiki             *string `json:"wiki,omitempty"`
}

// IsCanary reports whether the event is upstream heartbeat/test traffic.
func (rc *RecentChange) IsCanary() bool {
	return rc.Meta != nil && rc.Meta.Domain == CanaryDomain
}

// MatchesOrigin reports whether the event claims to come from the given
// server identity. Events without a server name never match: the stream
// carries all wikis and an instance processes exactly one.
func (rc *RecentChange) MatchesOrigin(origin string) bool {
	return rc.ServerName != nil && *rc.ServerName == origin
}

// ToChangeEvent converts the raw event to its canonical form. Optional
// upstream fields stay optional; nothing is defaulted.
func (rc *RecentChange) ToChangeEvent() *models.ChangeEvent {
	ev := &models.ChangeEvent{
		Source: models.SourceWikipedia,
		Title:  rc.Title,
		User:   rc.User,
		Bot:    rc.Bot,
		Type:   rc.Type,
		Wiki:   rc.Wiki,
	}

	if rc.Timestamp != nil {
		ts := time.Unix(*rc.Timestamp, 0).UTC()
		ev.Timestamp = &ts
	} else if rc.Meta != nil && rc.Meta.DT != nil {
		ts := rc.Meta.DT.UTC()
		ev.Timestamp = &ts
	}

	if rc.Meta != nil && rc.Meta.URI != "" {
		uri := rc.Meta.URI
		ev.PageURL = &uri
	} else if rc.TitleURL != nil {
		ev.PageURL = rc.TitleURL
	}

	extra := make(map[string]string)
	if rc.ServerName != nil {
		extra["server_name"] = *rc.ServerName
	}
	if rc.Namespace != nil {
		extra["namespace"] = strconv.Itoa(*rc.Namespace)
	}
	if rc.Comment != nil {
		extra["comment"] = *rc.Comment
	}
	if rc.Minor != nil {
		extra["minor"] = strconv.FormatBool(*rc.Minor)
	}
	if rc.Patrolled != nil {
		extra["patrolled"] = strconv.FormatBool(*rc.Patrolled)
	}
	if len(extra) > 0 {
		ev.Extra = extra
	}

	return ev
}
