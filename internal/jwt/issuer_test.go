package jwt

import (
	"testing"
	"time"
)

func TestIssueAndParseAccess(t *testing.T) {
	ks, err := NewEd25519("kid-test")
	if err != nil {
		t.Fatal(err)
	}
	iss := NewIssuer("http://pressgate.local", ks, time.Minute)

	token, jti, exp, err := iss.IssueAccess("user-1", map[string]any{
		"username": "alice",
		"role":     "ADMIN",
	})
	if err != nil {
		t.Fatal(err)
	}
	if jti == "" || exp.Before(time.Now()) {
		t.Fatalf("bad jti/exp: %q %v", jti, exp)
	}

	claims, err := iss.ParseAccess(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims["sub"] != "user-1" || claims["username"] != "alice" || claims["role"] != "ADMIN" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims["jti"] != jti {
		t.Fatalf("jti mismatch: %v vs %s", claims["jti"], jti)
	}
}

func TestParseAccess_WrongIssuer(t *testing.T) {
	ks, _ := NewEd25519("kid-a")
	a := NewIssuer("http://a.local", ks, time.Minute)
	b := NewIssuer("http://b.local", ks, time.Minute)

	token, _, _, err := a.IssueAccess("u", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ParseAccess(token); err != ErrInvalidIssuer {
		t.Fatalf("expected ErrInvalidIssuer, got %v", err)
	}
}

func TestParseAccess_WrongKey(t *testing.T) {
	ksA, _ := NewEd25519("kid-a")
	ksB, _ := NewEd25519("kid-b")
	a := NewIssuer("http://x.local", ksA, time.Minute)
	b := NewIssuer("http://x.local", ksB, time.Minute)

	token, _, _, err := a.IssueAccess("u", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.ParseAccess(token); err == nil {
		t.Fatal("expected signature validation failure")
	}
}

func TestFromSeed_Deterministic(t *testing.T) {
	const seed = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA" // 32 bytes base64url
	a, err := FromSeed("kid", seed)
	if err != nil {
		t.Fatal(err)
	}
	bks, err := FromSeed("kid", seed)
	if err != nil {
		t.Fatal(err)
	}
	if string(a.Pub) != string(bks.Pub) {
		t.Fatal("same seed must derive same key")
	}

	iss := NewIssuer("http://x.local", a, time.Minute)
	token, _, _, err := iss.IssueAccess("u", nil)
	if err != nil {
		t.Fatal(err)
	}
	iss2 := NewIssuer("http://x.local", bks, time.Minute)
	if _, err := iss2.ParseAccess(token); err != nil {
		t.Fatalf("token must verify across restarts: %v", err)
	}
}
