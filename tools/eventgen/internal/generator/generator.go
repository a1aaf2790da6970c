// Package generator produces synthetic MediaWiki recent-change events for
// local development and load testing of the relay pipeline.
package generator

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"gopkg.in/yaml.v3"
)

// Profile controls the shape of the generated event mix.
type Profile struct {
	// Streams lists the stream names the generator offers.
	Streams []string `yaml:"streams"`

	// Domains are the wiki domains events are attributed to.
	Domains []string `yaml:"domains"`

	// EventTypes are the change types to choose from.
	EventTypes []string `yaml:"event_types"`

	// CanaryRate is the fraction of events tagged with the canary domain.
	CanaryRate float64 `yaml:"canary_rate"`

	// BotRate is the fraction of events attributed to bot accounts.
	BotRate float64 `yaml:"bot_rate"`

	// MalformedRate is the fraction of emitted lines that are not valid
	// JSON, for exercising downstream error handling.
	MalformedRate float64 `yaml:"malformed_rate"`
}

// DefaultProfile returns a profile resembling the real recentchange feed.
func DefaultProfile() Profile {
	return Profile{
		Streams:       []string{"recentchange"},
		Domains:       []string{"en.wikipedia.org", "de.wikipedia.org", "commons.wikimedia.org", "www.wikidata.org"},
		EventTypes:    []string{"edit", "new", "log", "categorize"},
		CanaryRate:    0.02,
		BotRate:       0.25,
		MalformedRate: 0,
	}
}

// LoadProfile reads a YAML profile from path. Missing fields fall back to
// defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()

	data, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse profile: %w", err)
	}
	if err := p.validate(); err != nil {
		return p, err
	}
	return p, nil
}

func (p Profile) validate() error {
	if len(p.Streams) == 0 {
		return fmt.Errorf("profile must list at least one stream")
	}
	if len(p.Domains) == 0 {
		return fmt.Errorf("profile must list at least one domain")
	}
	for _, rate := range []float64{p.CanaryRate, p.BotRate, p.MalformedRate} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("rates must be between 0 and 1")
		}
	}
	return nil
}

// meta mirrors the envelope the real EventStreams feed attaches to events.
type meta struct {
	URI       string `json:"uri"`
	RequestID string `json:"request_id"`
	ID        string `json:"id"`
	DT        string `json:"dt"`
	Domain    string `json:"domain"`
	Stream    string `json:"stream"`
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
	Offset    int64  `json:"offset"`
}

type length struct {
	Old int `json:"old"`
	New int `json:"new"`
}

// recentChange is the wire shape of one generated event.
type recentChange struct {
	Schema     string  `json:"$schema"`
	Meta       meta    `json:"meta"`
	ID         int64   `json:"id"`
	Type       string  `json:"type"`
	Namespace  int     `json:"namespace"`
	Title      string  `json:"title"`
	TitleURL   string  `json:"title_url"`
	Comment    string  `json:"comment"`
	Timestamp  int64   `json:"timestamp"`
	User       string  `json:"user"`
	Bot        bool    `json:"bot"`
	Minor      bool    `json:"minor"`
	Patrolled  bool    `json:"patrolled"`
	ServerURL  string  `json:"server_url"`
	ServerName string  `json:"server_name"`
	Wiki       string  `json:"wiki"`
	Length     *length `json:"length,omitempty"`
}

// Generator emits fake recent-change lines according to a profile.
type Generator struct {
	profile Profile
	faker   *gofakeit.Faker
	rand    *rand.Rand
	offset  int64
}

// New creates a Generator. seed 0 selects a random seed.
func New(profile Profile, seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		profile: profile,
		faker:   gofakeit.New(seed),
		rand:    rand.New(rand.NewSource(seed)),
	}
}

// NextLine returns one newline-terminated line for the named stream. Per the
// profile's malformed rate it occasionally returns garbage instead of JSON.
func (g *Generator) NextLine(stream string) []byte {
	if g.rand.Float64() < g.profile.MalformedRate {
		return []byte(g.faker.LoremIpsumSentence(4) + "\n")
	}

	ev := g.nextEvent(stream)
	data, err := json.Marshal(ev)
	if err != nil {
		// recentChange marshals unconditionally; this path is unreachable.
		panic(err)
	}
	return append(data, '\n')
}

func (g *Generator) nextEvent(stream string) recentChange {
	domain := g.pick(g.profile.Domains)
	if g.rand.Float64() < g.profile.CanaryRate {
		domain = "canary"
	}

	title := g.title()
	now := time.Now()
	g.offset++

	ev := recentChange{
		Schema: "/mediawiki/recentchange/1.0.0",
		Meta: meta{
			URI:       fmt.Sprintf("https://%s/wiki/%s", domain, url.PathEscape(title)),
			RequestID: g.faker.UUID(),
			ID:        g.faker.UUID(),
			DT:        now.UTC().Format(time.RFC3339),
			Domain:    domain,
			Stream:    stream,
			Topic:     "codfw.mediawiki." + stream,
			Partition: 0,
			Offset:    g.offset,
		},
		ID:         g.rand.Int63n(2_000_000_000),
		Type:       g.pick(g.profile.EventTypes),
		Namespace:  []int{0, 0, 0, 1, 2, 4, 14}[g.rand.Intn(7)],
		Title:      title,
		Comment:    g.comment(),
		Timestamp:  now.Unix(),
		User:       g.user(),
		Bot:        g.rand.Float64() < g.profile.BotRate,
		Minor:      g.rand.Float64() < 0.3,
		Patrolled:  g.rand.Float64() < 0.5,
		ServerURL:  "https://" + domain,
		ServerName: domain,
		Wiki:       wikiID(domain),
	}
	ev.TitleURL = ev.Meta.URI

	if ev.Type == "edit" || ev.Type == "new" {
		old := g.rand.Intn(50_000)
		ev.Length = &length{Old: old, New: old + g.rand.Intn(2_000) - 500}
	}
	return ev
}

func (g *Generator) pick(values []string) string {
	return values[g.rand.Intn(len(values))]
}

func (g *Generator) title() string {
	words := make([]string, 1+g.rand.Intn(3))
	for i := range words {
		words[i] = g.faker.Noun()
	}
	if first := words[0]; first != "" {
		words[0] = strings.ToUpper(first[:1]) + first[1:]
	}
	return strings.Join(words, "_")
}

func (g *Generator) user() string {
	if g.rand.Float64() < 0.2 {
		// Anonymous edits show the editor's IP address.
		return g.faker.IPv4Address()
	}
	return g.faker.Username()
}

func (g *Generator) comment() string {
	comments := []string{
		"/* %s */ fixed typo",
		"Reverted edits by [[Special:Contributions/%s|%s]]",
		"Added references",
		"Updated infobox",
		"",
	}
	c := comments[g.rand.Intn(len(comments))]
	if strings.Contains(c, "%s") {
		user := g.faker.Username()
		c = strings.ReplaceAll(c, "%s", user)
	}
	return c
}

// wikiID derives the MediaWiki database name from a domain, e.g.
// en.wikipedia.org becomes enwiki.
func wikiID(domain string) string {
	parts := strings.Split(domain, ".")
	if len(parts) < 2 {
		return domain
	}
	switch parts[1] {
	case "wikipedia":
		return parts[0] + "wiki"
	default:
		return parts[0] + parts[1]
	}
}
