// Package notifications delivers batch events to an ntfy topic.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Delivery failures are returned to the
// caller, which logs them; a notification never changes a batch outcome.
package notifications
