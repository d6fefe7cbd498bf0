package sdk

import "context"

// Session carries the connected wallet and network of a request.
type Session struct {
	WalletAddress string
	NetworkID     int
	ClientUUID    string
}

type sessionKeyType struct{}

//nolint:gochecknoglobals // this is zero-size sentinel type.
var sessionKey = sessionKeyType{}

// WithSession returns a new context with the provided session.
func WithSession(parent context.Context, s Session) context.Context {
	return context.WithValue(parent, sessionKey, s)
}

// SessionFromContext extracts a Session from context if present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	v := ctx.Value(sessionKey)
	if v == nil {
		return Session{}, false
	}
	s, ok := v.(Session)
	return s, ok
}
