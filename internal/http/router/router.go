// Package router arma el árbol de rutas de la API y la cadena global
// de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/pressgate/internal/authz"
	httperrors "github.com/dropDatabas3/pressgate/internal/http/errors"
	"github.com/dropDatabas3/pressgate/internal/http/handlers"
	mw "github.com/dropDatabas3/pressgate/internal/http/middlewares"
	jwtx "github.com/dropDatabas3/pressgate/internal/jwt"
	"github.com/dropDatabas3/pressgate/internal/rate"
	tokens "github.com/dropDatabas3/pressgate/internal/security/token"
)

// Deps contiene todo lo necesario para montar el router.
type Deps struct {
	Engine  *authz.Engine
	Issuer  *jwtx.Issuer
	Revoked *tokens.RevocationList

	Auth   *handlers.AuthController
	Posts  *handlers.PostsController
	Admin  *handlers.AdminController
	Health *handlers.HealthController

	// Metrics es el handler de /metrics (nil = sin endpoint).
	Metrics http.Handler
	// WithMetrics instrumenta cada request (nil = sin instrumentación).
	WithMetrics mw.Middleware

	// Limiter global (nil = sin rate limiting global).
	Limiter rate.Limiter
	// LoginLimiter más estricto para register/login (nil = usa Limiter).
	LoginLimiter rate.Limiter

	CORSAllowedOrigins []string
}

// New construye el http.Handler completo de la API.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	requireAuth := mw.RequireAuth(deps.Issuer, deps.Revoked, deps.Engine)

	// Infra (sin cadena de API).
	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Get("/.well-known/jwks.json", deps.Health.Keys)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		// Auth
		r.Group(func(r chi.Router) {
			if lim := loginLimiter(deps); lim != nil {
				r.Use(mw.WithRateLimit(lim, mw.IPPathKey))
			}
			r.Post("/auth/register", deps.Auth.Register)
			r.Post("/auth/login", deps.Auth.Login)
		})
		r.With(requireAuth).Post("/auth/logout", deps.Auth.Logout)

		// Identidad
		r.With(requireAuth).Get("/me", handlers.Me)

		// Posts: lectura pública, mutaciones gated por permiso.
		r.Get("/posts", deps.Posts.List)
		r.Get("/posts/{id}", deps.Posts.Get)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.With(mw.RequirePermission(deps.Engine, "post.create")).Post("/posts", deps.Posts.Create)
			r.With(mw.RequirePermission(deps.Engine, "post.edit")).Put("/posts/{id}", deps.Posts.Update)
			r.With(mw.RequirePermission(deps.Engine, "post.delete")).Delete("/posts/{id}", deps.Posts.Delete)
		})

		// Admin: solo el rol protegido.
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(mw.RequireRole(deps.Engine, deps.Engine.ProtectedRole()))
			r.Get("/users", deps.Admin.ListUsers)
			r.Put("/users/{id}/role", deps.Admin.ChangeUserRole)
			r.Get("/roles", deps.Admin.ListRoles)
			r.Put("/roles/{id}/permissions", deps.Admin.UpdateRolePermissions)
			r.Get("/permissions", deps.Admin.ListPermissions)
		})
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	// Cadena global, de afuera hacia adentro:
	// RequestID → Logging → Recover → SecurityHeaders → CORS → Metrics → RateLimit
	global := []mw.Middleware{
		mw.WithRequestID(),
		mw.WithLogging(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSAllowedOrigins),
	}
	if deps.WithMetrics != nil {
		global = append(global, deps.WithMetrics)
	}
	if deps.Limiter != nil {
		global = append(global, mw.WithRateLimit(deps.Limiter, mw.IPPathKey))
	}
	return mw.Chain(r, global...)
}

func loginLimiter(deps Deps) rate.Limiter {
	if deps.LoginLimiter != nil {
		return deps.LoginLimiter
	}
	return deps.Limiter
}
