/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging fields
type LogContext struct {
	RequestID string
	Service   string // initializer identity
	Path      string // storage path
	Operation string
	StartTime time.Time
}

// WithContext returns a new context carrying lc
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for one request
func NewLogContext(requestID string) *LogContext {
	return &LogContext{
		RequestID: requestID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithInstance returns a copy addressed at one store instance
func (lc *LogContext) WithInstance(service, path string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Service = service
		c.Path = path
	}
	return c
}

// WithOperation returns a copy with the operation set
func (lc *LogContext) WithOperation(op string) *LogContext {
	c := lc.Clone()
	if c != nil {
		c.Operation = op
	}
	return c
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return Duration(lc.StartTime)
}
