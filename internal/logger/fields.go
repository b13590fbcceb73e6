/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logger

import "log/slog"

// Standard field keys for structured logging.
const (
	KeyRequestID  = "request_id"
	KeyService    = "service" // initializer identity
	KeyPath       = "path"    // storage path
	KeyOperation  = "operation"
	KeyCollection = "collection"
	KeyView       = "view"
	KeyTransform  = "transform"
	KeyCount      = "count"
	KeyBackend    = "backend"
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyStatus     = "status"
	KeyMethod     = "method"
	KeyRoute      = "route"
	KeyAddr       = "addr"
)

// Service returns a slog.Attr for the initializer identity
func Service(name string) slog.Attr {
	return slog.String(KeyService, name)
}

// Path returns a slog.Attr for a storage path
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Operation returns a slog.Attr for a dispatcher operation
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Collection returns a slog.Attr for a collection name
func Collection(name string) slog.Attr {
	return slog.String(KeyCollection, name)
}

// Count returns a slog.Attr for a record count
func Count(n int) slog.Attr {
	return slog.Int(KeyCount, n)
}

// Backend returns a slog.Attr for a persistence backend name
func Backend(name string) slog.Attr {
	return slog.String(KeyBackend, name)
}

// DurationMs returns a slog.Attr for a duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error; nil errors produce an empty attr
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
