package shared

import "context"

type ctxKey int

const ctxKeySession ctxKey = iota

// ContextWithSession attaches the session to the request context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, sess)
}

// SessionFromContext returns the session attached by the middleware,
// or nil when the request carries none.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKeySession).(*Session)
	return sess
}
