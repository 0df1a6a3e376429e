package rate

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d must be allowed", i+1)
		}
		if res.Remaining != int64(2-i) {
			t.Fatalf("hit %d: expected remaining %d, got %d", i+1, 2-i, res.Remaining)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed || res.RetryAfter <= 0 {
		t.Fatalf("4th hit must be limited with retry-after, got %+v", res)
	}

	// Otra clave no comparte ventana.
	res, err = l.Allow(ctx, "5.6.7.8")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Allowed {
		t.Fatal("different key must have its own window")
	}
}
