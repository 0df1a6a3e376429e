// Package tokens mantiene la denylist de access tokens revocados (logout).
package tokens

import (
	"context"
	"time"

	"github.com/dropDatabas3/pressgate/internal/cache"
)

// RevocationList guarda los "jti" revocados hasta que el token expira solo.
// El backend (memory/redis) lo decide la config de cache.
type RevocationList struct {
	c cache.Client
}

func NewRevocationList(c cache.Client) *RevocationList {
	return &RevocationList{c: c}
}

func key(jti string) string { return "revoked:" + jti }

// Revoke marca un jti como revocado. El TTL se acota a la expiración del
// token: pasada esa hora el parser lo rechaza igual.
func (r *RevocationList) Revoke(ctx context.Context, jti string, exp time.Time) error {
	ttl := time.Until(exp)
	if ttl <= 0 {
		return nil // ya expirado, nada que guardar
	}
	return r.c.Set(ctx, key(jti), "1", ttl)
}

// IsRevoked consulta la denylist. Ante error de backend responde revocado:
// mejor negar un token válido que aceptar uno revocado.
func (r *RevocationList) IsRevoked(ctx context.Context, jti string) bool {
	ok, err := r.c.Exists(ctx, key(jti))
	if err != nil {
		return true
	}
	return ok
}
