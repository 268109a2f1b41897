// Package requestid propagates a per-request correlation id through context.
package requestid

import "context"

type contextKey struct{}

// WithRequestID returns a context carrying the request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, contextKey{}, requestID)
}

// FromContext returns the request id placed by the transport middleware, or
// an empty string.
func FromContext(ctx context.Context) string {
	requestID, _ := ctx.Value(contextKey{}).(string)
	return requestID
}
