// Package context tags each planning request with an identifier so the
// log lines of one pipeline run can be correlated across packages.
package context

import (
	stdctx "context"

	"github.com/google/uuid"
)

// requestIDKey is unexported so only this package can write the value
type requestIDKey struct{}

// NewRequestID returns a fresh identifier for one planning run
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID stores the request ID on the context
func WithRequestID(parent stdctx.Context, requestID string) stdctx.Context {
	return stdctx.WithValue(parent, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the stored request ID, or "" when the
// context carries none
func RequestIDFromContext(ctx stdctx.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}
