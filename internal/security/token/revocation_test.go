package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/dropDatabas3/pressgate/internal/cache"
)

func TestRevocationList(t *testing.T) {
	ctx := context.Background()
	rl := NewRevocationList(cache.NewMemory("test"))

	if rl.IsRevoked(ctx, "jti-1") {
		t.Fatal("fresh jti must not be revoked")
	}
	if err := rl.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if !rl.IsRevoked(ctx, "jti-1") {
		t.Fatal("revoked jti must report revoked")
	}
}

func TestRevoke_ExpiredTokenIsNoop(t *testing.T) {
	ctx := context.Background()
	rl := NewRevocationList(cache.NewMemory("test"))

	if err := rl.Revoke(ctx, "jti-old", time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	// No se guarda nada: el token ya está vencido para el parser.
	if rl.IsRevoked(ctx, "jti-old") {
		t.Fatal("expired token should not occupy the denylist")
	}
}
