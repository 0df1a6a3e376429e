package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(writeYAML(t, "{}\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":8080" {
		t.Fatalf("addr default: %q", c.Server.Addr)
	}
	if c.Storage.Driver != "memory" || c.Cache.Kind != "memory" {
		t.Fatalf("driver/cache defaults: %q %q", c.Storage.Driver, c.Cache.Kind)
	}
	if c.RBAC.ProtectedRole != "OWNER" || c.RBAC.DefaultRole != "USER" {
		t.Fatalf("rbac defaults: %+v", c.RBAC)
	}
	if c.AccessTTL().Minutes() != 15 {
		t.Fatalf("access ttl default: %v", c.AccessTTL())
	}
	if c.Security.PasswordPolicy.MinLength != 8 {
		t.Fatalf("policy default: %d", c.Security.PasswordPolicy.MinLength)
	}
}

func TestLoad_YAMLValues(t *testing.T) {
	c, err := Load(writeYAML(t, `
server:
  addr: ":9000"
rbac:
  protected_role: ROOT
jwt:
  access_ttl: 30m
rate:
  enabled: true
  max_requests: 5
`))
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":9000" || c.RBAC.ProtectedRole != "ROOT" {
		t.Fatalf("yaml values not applied: %+v", c)
	}
	if !c.Rate.Enabled || c.Rate.MaxRequests != 5 {
		t.Fatalf("rate: %+v", c.Rate)
	}
	if c.AccessTTL().Minutes() != 30 {
		t.Fatalf("access ttl: %v", c.AccessTTL())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("RBAC_PROTECTED_ROLE", "SUPREMO")
	t.Setenv("SERVER_ADDR", ":7777")
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c, err := Load(writeYAML(t, "rbac:\n  protected_role: OWNER\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.RBAC.ProtectedRole != "SUPREMO" || c.Server.Addr != ":7777" {
		t.Fatalf("env overrides not applied: %+v", c)
	}
	if len(c.Server.CORSAllowedOrigins) != 2 || c.Server.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("cors csv: %v", c.Server.CORSAllowedOrigins)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []string{
		"storage:\n  driver: oracle\n",
		"storage:\n  driver: postgres\n", // sin DSN
		"cache:\n  kind: memcached\n",
		"jwt:\n  access_ttl: nope\n",
	}
	for _, body := range cases {
		if _, err := Load(writeYAML(t, body)); err == nil {
			t.Fatalf("expected error for %q", body)
		}
	}
}
