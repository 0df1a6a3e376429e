package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/pressgate/internal/authz"
	httpx "github.com/dropDatabas3/pressgate/internal/http"
	"github.com/dropDatabas3/pressgate/internal/http/errors"
)

// writeDecision mapea una Decision denegada al error HTTP correspondiente:
// sin identidad => 401, identidad sin rol/permiso => 403.
func writeDecision(w http.ResponseWriter, d authz.Decision) {
	httpx.RecordAuthzDenied(string(d.Reason))
	switch d.Reason {
	case authz.ReasonUnauthenticated:
		w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
		errors.WriteError(w, errors.ErrUnauthorized)
	case authz.ReasonInsufficientRole:
		errors.WriteError(w, errors.ErrInsufficientRole)
	case authz.ReasonInsufficientPermission:
		errors.WriteError(w, errors.ErrInsufficientPermission)
	default:
		errors.WriteError(w, errors.ErrForbidden)
	}
}

// RequireRole exige que el Subject tenga exactamente uno de los roles dados.
// Comparación exacta de slug: no hay jerarquía entre roles.
func RequireRole(engine *authz.Engine, roleSlugs ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := GetSubject(r.Context())
			if d := engine.RequireRole(r.Context(), sub, roleSlugs...); !d.Allowed {
				writeDecision(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission exige que el rol del Subject incluya el permiso dado.
// El rol protegido pasa cualquier chequeo de permiso.
func RequirePermission(engine *authz.Engine, permSlug string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sub := GetSubject(r.Context())
			if d := engine.RequirePermission(r.Context(), sub, permSlug); !d.Allowed {
				writeDecision(w, d)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
