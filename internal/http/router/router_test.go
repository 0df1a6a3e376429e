package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dropDatabas3/pressgate/internal/admin"
	"github.com/dropDatabas3/pressgate/internal/authz"
	"github.com/dropDatabas3/pressgate/internal/cache"
	"github.com/dropDatabas3/pressgate/internal/http/handlers"
	jwtx "github.com/dropDatabas3/pressgate/internal/jwt"
	"github.com/dropDatabas3/pressgate/internal/security/password"
	tokens "github.com/dropDatabas3/pressgate/internal/security/token"
	"github.com/dropDatabas3/pressgate/internal/seed"
	"github.com/dropDatabas3/pressgate/internal/store/memory"
)

var testParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type env struct {
	ts      *httptest.Server
	store   *memory.Store
	revoked *tokens.RevocationList
}

func newEnv(t *testing.T) *env {
	t.Helper()

	st := memory.New("OWNER")
	if err := seed.Run(context.Background(), st, seed.Options{
		ProtectedRole: "OWNER",
		OwnerUsername: "boss",
		OwnerPassword: "Sup3r-secreta!",
		HashParams:    testParams,
	}); err != nil {
		t.Fatal(err)
	}

	keys, err := jwtx.NewEd25519("test-1")
	if err != nil {
		t.Fatal(err)
	}
	issuer := jwtx.NewIssuer("http://test", keys, 0)
	cc := cache.NewMemory("t")
	revoked := tokens.NewRevocationList(cc)
	engine := authz.New(st, "OWNER")
	adminSvc := admin.NewService(admin.Deps{Repo: st, ProtectedRole: "OWNER"})

	h := New(Deps{
		Engine:  engine,
		Issuer:  issuer,
		Revoked: revoked,
		Auth: handlers.NewAuthController(handlers.AuthDeps{
			Repo:        st,
			Issuer:      issuer,
			Revoked:     revoked,
			Policy:      password.Policy{MinLength: 8},
			HashParams:  testParams,
			DefaultRole: "USER",
			AutoLogin:   true,
		}),
		Posts:  handlers.NewPostsController(st),
		Admin:  handlers.NewAdminController(adminSvc),
		Health: &handlers.HealthController{JWKS: keys.JWKSJSON(), Cache: cc},
	})

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return &env{ts: ts, store: st, revoked: revoked}
}

// call hace un request JSON y decodifica la respuesta en out (si no es nil).
func (e *env) call(t *testing.T, method, path, token string, body, out any) int {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *env) login(t *testing.T, username, pass string) string {
	t.Helper()
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	code := e.call(t, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"username": username, "password": pass}, &tok)
	if code != http.StatusOK {
		t.Fatalf("login %s: status %d", username, code)
	}
	return tok.AccessToken
}

func (e *env) register(t *testing.T, username, pass string) string {
	t.Helper()
	var resp struct {
		Token *struct {
			AccessToken string `json:"access_token"`
		} `json:"token"`
	}
	code := e.call(t, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"username": username, "password": pass}, &resp)
	if code != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, code)
	}
	if resp.Token == nil {
		t.Fatal("auto-login token missing")
	}
	return resp.Token.AccessToken
}

func TestRegister_WeakPassword(t *testing.T) {
	e := newEnv(t)
	var errResp struct {
		Code string `json:"code"`
	}
	code := e.call(t, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"username": "weak", "password": "corta"}, &errResp)
	if code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", code)
	}
	if errResp.Code != "PASSWORD_TOO_WEAK" {
		t.Fatalf("code = %s", errResp.Code)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	e := newEnv(t)
	e.register(t, "dupe", "Passw0rd-larga")
	code := e.call(t, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"username": "dupe", "password": "Passw0rd-larga"}, nil)
	if code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", code)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newEnv(t)
	code := e.call(t, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"username": "boss", "password": "nope-nope"}, nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", code)
	}
}

func TestMe_FreshRoleAndPermissions(t *testing.T) {
	e := newEnv(t)
	tok := e.register(t, "alice", "Passw0rd-larga")

	var me struct {
		Username    string   `json:"username"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if code := e.call(t, http.MethodGet, "/v1/me", tok, nil, &me); code != http.StatusOK {
		t.Fatalf("me: status %d", code)
	}
	if me.Username != "alice" || me.Role != "USER" {
		t.Fatalf("me = %+v", me)
	}
	if len(me.Permissions) != 1 || me.Permissions[0] != "post.read" {
		t.Fatalf("perms = %v", me.Permissions)
	}

	// Sin token => 401
	if code := e.call(t, http.MethodGet, "/v1/me", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous me: status %d, want 401", code)
	}
}

func TestPosts_PermissionGating(t *testing.T) {
	e := newEnv(t)
	userTok := e.register(t, "reader", "Passw0rd-larga")
	ownerTok := e.login(t, "boss", "Sup3r-secreta!")

	// Lectura pública.
	if code := e.call(t, http.MethodGet, "/v1/posts", "", nil, nil); code != http.StatusOK {
		t.Fatalf("public list: status %d", code)
	}

	// Crear sin token => 401; con rol USER => 403.
	post := map[string]string{"title": "Hola", "content": "mundo"}
	if code := e.call(t, http.MethodPost, "/v1/posts", "", post, nil); code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: status %d, want 401", code)
	}
	var errResp struct {
		Code string `json:"code"`
	}
	if code := e.call(t, http.MethodPost, "/v1/posts", userTok, post, &errResp); code != http.StatusForbidden {
		t.Fatalf("user create: status %d, want 403", code)
	}
	if errResp.Code != "INSUFFICIENT_PERMISSION" {
		t.Fatalf("code = %s", errResp.Code)
	}

	// El rol protegido pasa cualquier permiso sin filas propias.
	var created struct {
		ID string `json:"id"`
	}
	if code := e.call(t, http.MethodPost, "/v1/posts", ownerTok, post, &created); code != http.StatusCreated {
		t.Fatalf("owner create: status %d, want 201", code)
	}

	// Update parcial: content vacío conserva el previo.
	var updated struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	upd := map[string]string{"title": "Chau"}
	if code := e.call(t, http.MethodPut, "/v1/posts/"+created.ID, ownerTok, upd, &updated); code != http.StatusOK {
		t.Fatalf("owner update: status %d", code)
	}
	if updated.Title != "Chau" || updated.Content != "mundo" {
		t.Fatalf("updated = %+v", updated)
	}

	if code := e.call(t, http.MethodDelete, "/v1/posts/"+created.ID, ownerTok, nil, nil); code != http.StatusNoContent {
		t.Fatalf("owner delete: status %d", code)
	}
	if code := e.call(t, http.MethodGet, "/v1/posts/"+created.ID, "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted post get: status %d, want 404", code)
	}
}

func TestAdmin_RequiresProtectedRole(t *testing.T) {
	e := newEnv(t)
	userTok := e.register(t, "pleb", "Passw0rd-larga")
	ownerTok := e.login(t, "boss", "Sup3r-secreta!")

	var errResp struct {
		Code string `json:"code"`
	}
	if code := e.call(t, http.MethodGet, "/v1/admin/users", userTok, nil, &errResp); code != http.StatusForbidden {
		t.Fatalf("user admin access: status %d, want 403", code)
	}
	if errResp.Code != "INSUFFICIENT_ROLE" {
		t.Fatalf("code = %s", errResp.Code)
	}

	var list struct {
		Users []struct {
			User struct {
				Username string `json:"username"`
			} `json:"user"`
			Role struct {
				Slug string `json:"slug"`
			} `json:"role"`
		} `json:"users"`
	}
	if code := e.call(t, http.MethodGet, "/v1/admin/users", ownerTok, nil, &list); code != http.StatusOK {
		t.Fatalf("owner admin access: status %d", code)
	}
	if len(list.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(list.Users))
	}
}

func TestAdmin_ChangeRoleWithSync(t *testing.T) {
	e := newEnv(t)
	e.register(t, "carol", "Passw0rd-larga")
	ownerTok := e.login(t, "boss", "Sup3r-secreta!")

	var list struct {
		Users []struct {
			User struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"user"`
		} `json:"users"`
	}
	e.call(t, http.MethodGet, "/v1/admin/users", ownerTok, nil, &list)
	var carolID string
	for _, u := range list.Users {
		if u.User.Username == "carol" {
			carolID = u.User.ID
		}
	}
	if carolID == "" {
		t.Fatal("carol not found")
	}

	// Cambio de rol + sync de permisos del rol destino en un paso.
	body := map[string]any{"role": "ADMIN", "permissions": []string{"post.read", "post.create", "post.edit"}}
	var changed struct {
		Role struct {
			Slug        string `json:"slug"`
			Permissions []struct {
				Slug string `json:"slug"`
			} `json:"permissions"`
		} `json:"role"`
	}
	code := e.call(t, http.MethodPut, fmt.Sprintf("/v1/admin/users/%s/role", carolID), ownerTok, body, &changed)
	if code != http.StatusOK {
		t.Fatalf("change role: status %d", code)
	}
	if changed.Role.Slug != "ADMIN" || len(changed.Role.Permissions) != 3 {
		t.Fatalf("changed = %+v", changed)
	}

	// Carol ahora puede crear posts con su token nuevo.
	carolTok := e.login(t, "carol", "Passw0rd-larga")
	if code := e.call(t, http.MethodPost, "/v1/posts", carolTok, map[string]string{"title": "x"}, nil); code != http.StatusCreated {
		t.Fatalf("carol create after promote: status %d", code)
	}
}

func TestAdmin_ProtectedRoleGuards(t *testing.T) {
	e := newEnv(t)
	e.register(t, "dave", "Passw0rd-larga")
	ownerTok := e.login(t, "boss", "Sup3r-secreta!")

	var list struct {
		Users []struct {
			User struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"user"`
		} `json:"users"`
	}
	e.call(t, http.MethodGet, "/v1/admin/users", ownerTok, nil, &list)
	ids := map[string]string{}
	for _, u := range list.Users {
		ids[u.User.Username] = u.User.ID
	}

	var errResp struct {
		Code string `json:"code"`
	}
	// Promover a dave al rol protegido => 403.
	code := e.call(t, http.MethodPut, "/v1/admin/users/"+ids["dave"]+"/role", ownerTok,
		map[string]string{"role": "OWNER"}, &errResp)
	if code != http.StatusForbidden || errResp.Code != "PROTECTED_ROLE" {
		t.Fatalf("promote to protected: status %d code %s", code, errResp.Code)
	}
	// Tocar al dueño => 403 aunque sea no-op.
	code = e.call(t, http.MethodPut, "/v1/admin/users/"+ids["boss"]+"/role", ownerTok,
		map[string]string{"role": "OWNER"}, &errResp)
	if code != http.StatusForbidden || errResp.Code != "PROTECTED_ROLE" {
		t.Fatalf("touch owner: status %d code %s", code, errResp.Code)
	}
	// Sync de permisos del rol protegido => 403.
	code = e.call(t, http.MethodPut, "/v1/admin/roles/OWNER/permissions", ownerTok,
		map[string]any{"permissions": []string{"post.read"}}, &errResp)
	if code != http.StatusForbidden || errResp.Code != "PROTECTED_ROLE" {
		t.Fatalf("sync protected perms: status %d code %s", code, errResp.Code)
	}
}

func TestAdmin_UpdateRolePermissions(t *testing.T) {
	e := newEnv(t)
	ownerTok := e.login(t, "boss", "Sup3r-secreta!")

	var role struct {
		Slug        string `json:"slug"`
		Permissions []struct {
			Slug string `json:"slug"`
		} `json:"permissions"`
	}
	body := map[string]any{"permissions": []string{"post.read", "post.delete", "no.such"}}
	code := e.call(t, http.MethodPut, "/v1/admin/roles/USER/permissions", ownerTok, body, &role)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	// Slug desconocido se descarta en silencio.
	if len(role.Permissions) != 2 {
		t.Fatalf("perms = %+v", role.Permissions)
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	e := newEnv(t)
	tok := e.register(t, "eve", "Passw0rd-larga")

	if code := e.call(t, http.MethodGet, "/v1/me", tok, nil, nil); code != http.StatusOK {
		t.Fatalf("pre-logout me: status %d", code)
	}
	if code := e.call(t, http.MethodPost, "/v1/auth/logout", tok, nil, nil); code != http.StatusNoContent {
		t.Fatalf("logout: status %d", code)
	}
	var errResp struct {
		Code string `json:"code"`
	}
	if code := e.call(t, http.MethodGet, "/v1/me", tok, nil, &errResp); code != http.StatusUnauthorized {
		t.Fatalf("post-logout me: status %d, want 401", code)
	}
	if errResp.Code != "TOKEN_REVOKED" {
		t.Fatalf("code = %s", errResp.Code)
	}
}

func TestHealthAndJWKS(t *testing.T) {
	e := newEnv(t)
	if code := e.call(t, http.MethodGet, "/healthz", "", nil, nil); code != http.StatusOK {
		t.Fatalf("healthz: %d", code)
	}
	var ready struct {
		Status string `json:"status"`
		Cache  *struct {
			Driver string `json:"driver"`
		} `json:"cache"`
	}
	if code := e.call(t, http.MethodGet, "/readyz", "", nil, &ready); code != http.StatusOK {
		t.Fatalf("readyz: %d", code)
	}
	if ready.Status != "ready" || ready.Cache == nil || ready.Cache.Driver != "memory" {
		t.Fatalf("readyz body: %+v", ready)
	}
	var jwks struct {
		Keys []map[string]any `json:"keys"`
	}
	if code := e.call(t, http.MethodGet, "/.well-known/jwks.json", "", nil, &jwks); code != http.StatusOK {
		t.Fatalf("jwks: %d", code)
	}
	if len(jwks.Keys) != 1 {
		t.Fatalf("jwks keys = %d", len(jwks.Keys))
	}
}
