package auth

import "context"

// SessionHandle lets procedures act on the transport's session.
type SessionHandle struct {
	Token string
	// Clear drops the session from the client, e.g. by expiring its cookie.
	Clear func()
}

type sessionKey struct{}

func WithSession(ctx context.Context, h SessionHandle) context.Context {
	return context.WithValue(ctx, sessionKey{}, h)
}

func SessionFrom(ctx context.Context) (SessionHandle, bool) {
	h, ok := ctx.Value(sessionKey{}).(SessionHandle)
	return h, ok
}
