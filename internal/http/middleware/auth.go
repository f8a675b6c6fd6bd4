package middleware

import (
	"context"
	"net/http"

	"github.com/sigmatax/console/internal/access"
	"github.com/sigmatax/console/internal/session"
)

type contextKey string

const (
	ContextKeySession contextKey = "session"
	ContextKeyFamily  contextKey = "family"
)

// SessionRestorer rehydrates a session from its cookie value.
type SessionRestorer interface {
	Restore(ctx context.Context, raw string) (*session.Session, error)
}

// PermissionResolver turns a role into capabilities.
type PermissionResolver interface {
	Resolve(role string) access.Permissions
}

// Session restores the browser session named by the cookie and injects it,
// with its resolved permissions, into the request context. Requests without a
// usable session continue anonymously and a stale cookie is cleared.
func Session(restorer SessionRestorer, resolver PermissionResolver, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil || c.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := restorer.Restore(r.Context(), c.Value)
			if err != nil {
				http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
				next.ServeHTTP(w, r)
				return
			}

			ctx := SetSession(r.Context(), sess)
			ctx = access.WithPermissions(ctx, resolver.Resolve(sess.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetSession stores sess on ctx.
func SetSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, ContextKeySession, sess)
}

// GetSession returns the session of the request, or nil.
func GetSession(ctx context.Context) *session.Session {
	val, _ := ctx.Value(ContextKeySession).(*session.Session)
	return val
}

// GetSubject returns the staff id of the session, or "".
func GetSubject(ctx context.Context) string {
	if sess := GetSession(ctx); sess != nil {
		return sess.SubjectID.String()
	}
	return ""
}
