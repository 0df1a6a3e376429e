package middlewares

import (
	"net/http"
	"strings"

	"github.com/dropDatabas3/pressgate/internal/authz"
	"github.com/dropDatabas3/pressgate/internal/http/errors"
	jwtx "github.com/dropDatabas3/pressgate/internal/jwt"
	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/pressgate/internal/security/token"
)

// bearerToken extrae el token del header Authorization.
func bearerToken(r *http.Request) string {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth valida el Bearer token, chequea la denylist de revocados y
// resuelve el Subject (usuario + rol con permisos frescos) contra el store.
// El rol y los permisos NO se leen del token: un cambio de rol aplica al
// siguiente request sin re-login.
func RequireAuth(issuer *jwtx.Issuer, revoked *tokens.RevocationList, engine *authz.Engine) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="pressgate"`)
				errors.WriteError(w, errors.ErrTokenMissing)
				return
			}

			claims, err := issuer.ParseAccess(raw)
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			if jti := ClaimString(claims, "jti"); jti != "" && revoked.IsRevoked(r.Context(), jti) {
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenRevoked)
				return
			}

			userID := ClaimString(claims, "sub")
			sub, err := engine.Resolve(r.Context(), userID)
			if err != nil {
				// Token válido pero usuario borrado o rol corrupto: 401.
				logger.From(r.Context()).Debug("subject resolution failed",
					logger.UserID(userID), logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				errors.WriteError(w, errors.ErrTokenInvalid)
				return
			}

			ctx := WithClaims(r.Context(), claims)
			ctx = WithSubject(ctx, sub)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
