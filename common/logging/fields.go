package logging

import (
	"log/slog"
	"time"
)

// Common field names for consistent logging across services.
const (
	FieldService   = "service"
	FieldError     = "error"
	FieldStream    = "stream"
	FieldSubject   = "subject"
	FieldWiki      = "wiki"
	FieldTitle     = "title"
	FieldUser      = "user"
	FieldEventType = "event_type"
	FieldAttempt   = "attempt"
	FieldDelay     = "delay_ms"
	FieldBatchSize = "batch_size"
	FieldCount     = "count"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Stream returns a slog attribute for an upstream or queue stream name.
func Stream(name string) slog.Attr {
	return slog.String(FieldStream, name)
}

// Subject returns a slog attribute for a queue subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}

// Wiki returns a slog attribute for a wiki identifier.
func Wiki(wiki string) slog.Attr {
	return slog.String(FieldWiki, wiki)
}

// Title returns a slog attribute for a page title.
func Title(title string) slog.Attr {
	return slog.String(FieldTitle, title)
}

// User returns a slog attribute for an editing user.
func User(user string) slog.Attr {
	return slog.String(FieldUser, user)
}

// EventType returns a slog attribute for an event type.
func EventType(t string) slog.Attr {
	return slog.String(FieldEventType, t)
}

// Attempt returns a slog attribute for a retry attempt number.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Delay returns a slog attribute for a backoff delay in milliseconds.
func Delay(d time.Duration) slog.Attr {
	return slog.Int64(FieldDelay, d.Milliseconds())
}

// BatchSize returns a slog attribute for a message batch size.
func BatchSize(n int) slog.Attr {
	return slog.Int(FieldBatchSize, n)
}

// Count returns a slog attribute for a generic count.
func Count(n int) slog.Attr {
	return slog.Int(FieldCount, n)
}
