package password

import "testing"

// Parámetros bajos para que el test corra rápido.
var testParams = Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(testParams, "s3cret-pass")
	if err != nil {
		t.Fatal(err)
	}
	if !Verify("s3cret-pass", phc) {
		t.Fatal("expected verify to pass")
	}
	if Verify("wrong-pass", phc) {
		t.Fatal("expected verify to fail for wrong password")
	}
}

func TestHash_SaltedPerCall(t *testing.T) {
	a, _ := Hash(testParams, "same")
	b, _ := Hash(testParams, "same")
	if a == b {
		t.Fatal("two hashes of the same password must differ (random salt)")
	}
}

func TestHash_EmptyPassword(t *testing.T) {
	if _, err := Hash(testParams, ""); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	for _, s := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=8192,t=1,p=1$!!badsalt!!$AAAA",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdA$AAAA",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdA$AAAA",
	} {
		if Verify("x", s) {
			t.Fatalf("malformed phc must not verify: %q", s)
		}
	}
}

func TestPolicy_Validate(t *testing.T) {
	p := Policy{MinLength: 8, RequireLower: true, RequireDigit: true}

	if ok, _ := p.Validate("abcdef12"); !ok {
		t.Fatal("expected valid password")
	}
	ok, reasons := p.Validate("short1")
	if ok || len(reasons) != 1 || reasons[0] != "too_short" {
		t.Fatalf("expected too_short, got %v", reasons)
	}
	if ok, _ := p.Validate("NODIGITSHERE"); ok {
		t.Fatal("expected missing_lower/missing_digit")
	}
}
