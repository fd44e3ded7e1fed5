package identity

import (
	"net/http"

	"github.com/taskhive/taskhive/internal/platform/httpx"
)

// RequireBasic guards a route with the Basic tier.
func (e *Extractor) RequireBasic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := e.Basic(r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithBasic(r.Context(), id)))
	})
}

// RequireRoleAware guards a route with the RoleAware tier.
func (e *Extractor) RequireRoleAware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := e.RoleAware(r.Context(), r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithRoleAware(r.Context(), id)))
	})
}

// RequireAdmin guards a route with the Admin tier. The RoleAware result is
// stored alongside the Admin identity so handlers can reuse the profile
// without another read.
func (e *Extractor) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := e.RoleAware(r.Context(), r)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		if !user.IsAdmin() {
			httpx.RespondError(w, httpx.ErrForbidden)
			return
		}
		ctx := ContextWithRoleAware(r.Context(), user)
		ctx = ContextWithAdmin(ctx, Admin{Email: user.Email, Name: user.Name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
