package httpapi

import (
	"context"

	domainSession "github.com/powerdesk/backoffice/internal/domain/session"
)

type sessionContextKey string

const sessionKey sessionContextKey = "session"

func withSession(ctx context.Context, st domainSession.State) context.Context {
	return context.WithValue(ctx, sessionKey, st)
}

func sessionFromContext(ctx context.Context) (domainSession.State, bool) {
	st, ok := ctx.Value(sessionKey).(domainSession.State)
	return st, ok
}
