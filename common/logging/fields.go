package logging

import "log/slog"

// Common field names for consistent logging across the pipeline.
const (
	FieldService  = "service"
	FieldEventID  = "event_id"
	FieldProject  = "project"
	FieldCacheKey = "cache_key"
	FieldSubject  = "subject"
	FieldError    = "error"
	FieldAttempt  = "attempt"
	FieldDuration = "duration_ms"
	FieldReason   = "reason"
)

// Service returns a slog attribute for the service name.
func Service(name string) slog.Attr {
	return slog.String(FieldService, name)
}

// EventID returns a slog attribute for an event id.
func EventID(id string) slog.Attr {
	return slog.String(FieldEventID, id)
}

// Project returns a slog attribute for a project id.
func Project(id int) slog.Attr {
	return slog.Int(FieldProject, id)
}

// CacheKey returns a slog attribute for a dedup cache key.
func CacheKey(key string) slog.Attr {
	return slog.String(FieldCacheKey, key)
}

// Subject returns a slog attribute for a message bus subject.
func Subject(subject string) slog.Attr {
	return slog.String(FieldSubject, subject)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}

// Attempt returns a slog attribute for a delivery/retry attempt counter.
func Attempt(n int) slog.Attr {
	return slog.Int(FieldAttempt, n)
}

// Duration returns a slog attribute for duration in milliseconds.
func Duration(ms int64) slog.Attr {
	return slog.Int64(FieldDuration, ms)
}

// Reason returns a slog attribute explaining a drop or DLQ write.
func Reason(reason string) slog.Attr {
	return slog.String(FieldReason, reason)
}
