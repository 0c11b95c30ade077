package clientstate

import "context"

type ctxKeySessionID struct{}

// WithSessionID stamps the browser session id onto the request context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, ctxKeySessionID{}, sessionID)
}

// SessionIDFromContext returns the browser session id, or "".
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(ctxKeySessionID{}).(string); ok {
		return id
	}
	return ""
}
