package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sigmatax/console/internal/jobs"
)

// FamilyScope resolves the {family} route parameter. Unknown families are 404.
func FamilyScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fam, ok := jobs.Lookup(chi.URLParam(r, "family"))
		if !ok {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(SetFamily(r.Context(), fam)))
	})
}

// SetFamily stores the job family on ctx.
func SetFamily(ctx context.Context, fam jobs.Family) context.Context {
	return context.WithValue(ctx, ContextKeyFamily, fam)
}

// GetFamily returns the job family of the request.
func GetFamily(ctx context.Context) (jobs.Family, bool) {
	val, ok := ctx.Value(ContextKeyFamily).(jobs.Family)
	return val, ok
}
