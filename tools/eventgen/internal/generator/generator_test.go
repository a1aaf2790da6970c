package generator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextLine_ValidRecentChange(t *testing.T) {
	p := DefaultProfile()
	p.CanaryRate = 0
	p.MalformedRate = 0
	gen := New(p, 42)

	line := gen.NextLine("recentchange")
	require.Equal(t, byte('\n'), line[len(line)-1])

	var ev recentChange
	require.NoError(t, json.Unmarshal(line, &ev))

	assert.Equal(t, "/mediawiki/recentchange/1.0.0", ev.Schema)
	assert.Equal(t, "recentchange", ev.Meta.Stream)
	assert.Contains(t, p.Domains, ev.Meta.Domain)
	assert.Equal(t, ev.Meta.Domain, ev.ServerName)
	assert.NotEmpty(t, ev.Title)
	assert.NotEmpty(t, ev.User)
	assert.Contains(t, p.EventTypes, ev.Type)
	assert.NotZero(t, ev.Timestamp)
}

func TestNextLine_CanaryRate(t *testing.T) {
	p := DefaultProfile()
	p.CanaryRate = 1
	gen := New(p, 1)

	var ev recentChange
	require.NoError(t, json.Unmarshal(gen.NextLine("recentchange"), &ev))
	assert.Equal(t, "canary", ev.Meta.Domain)
}

func TestNextLine_MalformedRate(t *testing.T) {
	p := DefaultProfile()
	p.MalformedRate = 1
	gen := New(p, 1)

	line := gen.NextLine("recentchange")
	var ev recentChange
	assert.Error(t, json.Unmarshal(line, &ev))
}

func TestNextLine_OffsetsIncrease(t *testing.T) {
	gen := New(DefaultProfile(), 7)

	var first, second recentChange
	require.NoError(t, json.Unmarshal(gen.NextLine("recentchange"), &first))
	require.NoError(t, json.Unmarshal(gen.NextLine("recentchange"), &second))
	assert.Greater(t, second.Meta.Offset, first.Meta.Offset)
}

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
streams: [recentchange, revision-create]
domains: [fr.wikipedia.org]
canary_rate: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"recentchange", "revision-create"}, p.Streams)
	assert.Equal(t, []string{"fr.wikipedia.org"}, p.Domains)
	assert.Equal(t, 0.5, p.CanaryRate)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultProfile().BotRate, p.BotRate)
}

func TestLoadProfile_RejectsBadRates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("canary_rate: 1.5\n"), 0o644))

	_, err := LoadProfile(path)
	assert.ErrorContains(t, err, "between 0 and 1")
}

func TestWikiID(t *testing.T) {
	assert.Equal(t, "enwiki", wikiID("en.wikipedia.org"))
	assert.Equal(t, "commonswikimedia", wikiID("commons.wikimedia.org"))
}
