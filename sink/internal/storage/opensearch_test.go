package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client, err := NewClient(Config{
		URL:         "https://localhost:9200",
		Username:    "admin",
		IndexPrefix: "wikirelay-changes",
	})
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestWriteIndex_DailyName(t *testing.T) {
	client, err := NewClient(Config{
		URL:         "https://localhost:9200",
		IndexPrefix: "wikirelay-changes",
	})
	require.NoError(t, err)

	day := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "wikirelay-changes-2025.06.01", client.writeIndex(day))
}
