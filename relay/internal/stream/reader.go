// Package stream implements the long-lived upstream stream consumer: connect,
// decode line-delimited JSON, filter, normalize, and hand off to the queue
// publisher. The reconnect loop never terminates on connection failure; only
// process shutdown ends it.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wikirelay/wikirelay/common/logging"
	"github.com/wikirelay/wikirelay/common/models"
	"github.com/wikirelay/wikirelay/relay/internal/backoff"
	"github.com/wikirelay/wikirelay/relay/internal/config"
	"github.com/wikirelay/wikirelay/relay/internal/metrics"
	"github.com/wikirelay/wikirelay/relay/internal/wikimedia"
)

const userAgent = "wikirelay/1.0 (https://github.com/wikirelay/wikirelay)"

// Upstream lines can be large. A line beyond this size is discarded and
// counted like any other undecodable line; it never ends the session.
const maxLineSize = 1024 * 1024

var errLineTooLong = errors.New("stream line exceeds maximum size")

// EventPublisher accepts normalized events for queue delivery. Implementations
// own their retry policy; a returned error never aborts the stream session.
type EventPublisher interface {
	Publish(ctx context.Context, ev *models.ChangeEvent) error
}

// Reader consumes the configured upstream stream until cancelled.
type Reader struct {
	cfg     *config.Config
	client  *http.Client
	pub     EventPublisher
	log     *logging.Logger
	retrier *backoff.Retrier
}

// New creates a Reader. The HTTP client must not impose an overall request
// timeout: the stream response body is read indefinitely.
func New(cfg *config.Config, client *http.Client, pub EventPublisher, log *logging.Logger) *Reader {
	r := &Reader{
		cfg:    cfg,
		client: client,
		pub:    pub,
		log:    log,
	}
	r.retrier = &backoff.Retrier{
		Policy: backoff.Policy{
			Start:     cfg.Backoff.Start,
			Increment: cfg.Backoff.Increment,
			Max:       cfg.Backoff.Max,
		},
		OnRetry: r.onRetry,
	}
	return r
}

// Run consumes the stream until ctx is cancelled, reconnecting forever with
// linear capped backoff. Backoff state is scoped to this call.
func (r *Reader) Run(ctx context.Context) error {
	r.log.InfoContext(ctx, "starting stream reader",
		logging.Stream(r.cfg.Wikimedia.Stream),
		"url", r.cfg.StreamURL(),
		"origin", r.cfg.Origin(),
	)
	return r.retrier.Run(ctx, r.streamOnce)
}

// streamOnce performs one connect-and-drain attempt. It returns when the
// connection ends for any reason; the retrier schedules the next attempt.
func (r *Reader) streamOnce(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.StreamURL(), nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %s", resp.Status)
	}

	r.log.InfoContext(ctx, "connected to stream", logging.Stream(r.cfg.Wikimedia.Stream))

	br := bufio.NewReaderSize(resp.Body, 64*1024)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line, err := readLine(br)
		switch {
		case err == nil:
			r.handleLine(ctx, line)
		case errors.Is(err, errLineTooLong):
			metrics.DeserializationErrors.WithLabelValues(metrics.ReasonLineTooLong).Inc()
			r.log.WarnContext(ctx, "discarding oversized stream line")
		case errors.Is(err, io.EOF):
			return errors.New("upstream closed the stream")
		default:
			return fmt.Errorf("stream read: %w", err)
		}
	}
}

// readLine returns the next newline-terminated line. A line longer than
// maxLineSize is consumed in full and reported as errLineTooLong so the
// session can continue at the next line.
func readLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for {
		chunk, err := br.ReadSlice('\n')
		line = append(line, chunk...)
		switch err {
		case nil:
			return line, nil
		case bufio.ErrBufferFull:
			if len(line) > maxLineSize {
				return nil, discardLine(br)
			}
		case io.EOF:
			if len(line) > 0 {
				return line, nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

// discardLine consumes the remainder of an oversized line.
func discardLine(br *bufio.Reader) error {
	for {
		_, err := br.ReadSlice('\n')
		switch err {
		case nil, io.EOF:
			return errLineTooLong
		case bufio.ErrBufferFull:
			continue
		default:
			return err
		}
	}
}

// handleLine decodes, filters, and forwards a single stream line. A line that
// fails to decode never terminates the session.
func (r *Reader) handleLine(ctx context.Context, line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}

	if line[0] != '{' {
		metrics.DeserializationErrors.WithLabelValues(metrics.ReasonMalformedJSON).Inc()
		r.log.DebugContext(ctx, "discarding non-JSON stream line")
		return
	}

	var rc wikimedia.RecentChange
	if err := json.Unmarshal(line, &rc); err != nil {
		metrics.DeserializationErrors.WithLabelValues(metrics.ReasonSchemaMismatch).Inc()
		r.log.DebugContext(ctx, "discarding unrecognized stream line", logging.Error(err))
		return
	}

	if rc.IsCanary() {
		metrics.EventsFiltered.WithLabelValues(metrics.FilterCanary).Inc()
		return
	}
	if !rc.MatchesOrigin(r.cfg.Origin()) {
		metrics.EventsFiltered.WithLabelValues(metrics.FilterOrigin).Inc()
		return
	}

	// The publisher owns its retry and failure policy; a queue problem must
	// never kill the stream connection.
	if err := r.pub.Publish(ctx, rc.ToChangeEvent()); err != nil {
		r.log.DebugContext(ctx, "publish error ignored by stream reader", logging.Error(err))
	}
}

func (r *Reader) onRetry(attempt int, delay time.Duration, err error) {
	metrics.ReconnectAttempts.Inc()
	attrs := []any{logging.Attempt(attempt), logging.Delay(delay)}
	if err != nil {
		attrs = append(attrs, logging.Error(err))
	}
	r.log.Warn("stream disconnected, scheduling reconnect", attrs...)
}
