package publisher

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikirelay/wikirelay/common/logging"
	"github.com/wikirelay/wikirelay/common/models"
)

type fakeJetStream struct {
	failures int
	calls    int
	subjects []string
	payloads [][]byte
}

func (f *fakeJetStream) PublishSync(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	f.calls++
	f.subjects = append(f.subjects, subject)
	f.payloads = append(f.payloads, data)
	if f.calls <= f.failures {
		return nil, errors.New("nats: timeout")
	}
	return &jetstream.PubAck{Stream: "CHANGE_EVENTS", Sequence: uint64(f.calls)}, nil
}

func testPublisher(js *fakeJetStream) (*Publisher, *[]time.Duration) {
	p := New(js, "changes.recentchange", logging.New(slog.LevelError, "text"))
	var delays []time.Duration
	p.sleep = func(ctx context.Context, d time.Duration) {
		delays = append(delays, d)
	}
	return p, &delays
}

func titled(title string) *models.ChangeEvent {
	return &models.ChangeEvent{Source: models.SourceWikipedia, Title: &title}
}

func TestPublish_Success(t *testing.T) {
	js := &fakeJetStream{}
	p, delays := testPublisher(js)

	require.NoError(t, p.Publish(context.Background(), titled("Foo")))

	assert.Equal(t, 1, js.calls)
	assert.Empty(t, *delays)
	assert.Equal(t, "changes.recentchange", js.subjects[0])
	assert.Contains(t, string(js.payloads[0]), `"title":"Foo"`)
}

func TestPublish_RetriesWithExponentialBackoff(t *testing.T) {
	js := &fakeJetStream{failures: 2}
	p, delays := testPublisher(js)

	require.NoError(t, p.Publish(context.Background(), titled("Foo")))

	assert.Equal(t, 3, js.calls)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}, *delays)
}

func TestPublish_GivesUpAfterThreeRetries(t *testing.T) {
	js := &fakeJetStream{failures: 100}
	p, delays := testPublisher(js)

	// Failure is absorbed: the caller never sees a transport error.
	require.NoError(t, p.Publish(context.Background(), titled("Foo")))

	assert.Equal(t, 4, js.calls, "initial attempt plus three retries")
	assert.Equal(t, []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
	}, *delays)
}

func TestPublish_ContextCancelledStopsRetrying(t *testing.T) {
	js := &fakeJetStream{failures: 100}
	p, _ := testPublisher(js)

	ctx, cancel := context.WithCancel(context.Background())
	p.sleep = func(context.Context, time.Duration) { cancel() }

	require.NoError(t, p.Publish(ctx, titled("Foo")))
	assert.Equal(t, 1, js.calls)
}
