package authz

import (
	"context"
	"testing"

	"github.com/dropDatabas3/pressgate/internal/store/core"
	"github.com/dropDatabas3/pressgate/internal/store/memory"
)

const protected = "OWNER"

func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	st := memory.New(protected)

	for slug, name := range map[string]string{
		"post.read":   "Leer posts",
		"post.create": "Crear posts",
		"post.edit":   "Editar posts",
		"post.delete": "Eliminar posts",
	} {
		if _, err := st.EnsurePermission(ctx, slug, name); err != nil {
			t.Fatalf("EnsurePermission(%s): %v", slug, err)
		}
	}

	user, err := st.FindOrCreateRole(ctx, "USER", "Usuario")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := st.SyncRolePermissions(ctx, user.ID, []string{"post.read"}); err != nil {
		t.Fatal(err)
	}
	if _, err := st.FindOrCreateRole(ctx, "ADMIN", "Administrador"); err != nil {
		t.Fatal(err)
	}
	if _, err := st.FindOrCreateRole(ctx, protected, "Owner"); err != nil {
		t.Fatal(err)
	}
	return st
}

func mkSubject(t *testing.T, st *memory.Store, username, roleSlug string) *Subject {
	t.Helper()
	ctx := context.Background()
	role, err := st.GetRoleBySlug(ctx, roleSlug)
	if err != nil {
		t.Fatalf("GetRoleBySlug(%s): %v", roleSlug, err)
	}
	u, err := st.CreateUser(ctx, username, "x", role.ID)
	if err != nil {
		t.Fatalf("CreateUser(%s): %v", username, err)
	}
	return &Subject{User: u, Role: role}
}

func TestRequireRole_ExactMatchOnly(t *testing.T) {
	st := seedStore(t)
	e := New(st, protected)
	ctx := context.Background()

	admin := mkSubject(t, st, "alice", "ADMIN")

	if d := e.RequireRole(ctx, admin, "ADMIN"); !d.Allowed {
		t.Fatalf("expected allow, got reason %s", d.Reason)
	}
	// Sin jerarquía: ADMIN no pasa un chequeo de USER.
	if d := e.RequireRole(ctx, admin, "USER"); d.Allowed || d.Reason != ReasonInsufficientRole {
		t.Fatalf("expected insufficient_role, got %+v", d)
	}
	// Case-sensitive.
	if d := e.RequireRole(ctx, admin, "admin"); d.Allowed {
		t.Fatal("role comparison must be case-sensitive")
	}
	// Varios slugs: alcanza con matchear uno.
	if d := e.RequireRole(ctx, admin, "USER", "ADMIN"); !d.Allowed {
		t.Fatalf("expected allow with multiple slugs, got reason %s", d.Reason)
	}
	if d := e.RequireRole(ctx, admin, "USER", "SUPERADMIN"); d.Allowed {
		t.Fatal("no listed slug matches, must deny")
	}
}

func TestRequireRole_Anonymous(t *testing.T) {
	st := seedStore(t)
	e := New(st, protected)
	ctx := context.Background()

	for _, sub := range []*Subject{nil, {}, {User: &core.User{ID: "u1"}}} {
		if d := e.RequireRole(ctx, sub, "USER"); d.Allowed || d.Reason != ReasonUnauthenticated {
			t.Fatalf("expected unauthenticated, got %+v", d)
		}
		if d := e.RequirePermission(ctx, sub, "post.read"); d.Allowed || d.Reason != ReasonUnauthenticated {
			t.Fatalf("expected unauthenticated, got %+v", d)
		}
	}
}

func TestRequirePermission_RoleGrant(t *testing.T) {
	st := seedStore(t)
	e := New(st, protected)
	ctx := context.Background()

	user := mkSubject(t, st, "bob", "USER")

	if d := e.RequirePermission(ctx, user, "post.read"); !d.Allowed {
		t.Fatalf("expected allow, got reason %s", d.Reason)
	}
	if d := e.RequirePermission(ctx, user, "post.delete"); d.Allowed || d.Reason != ReasonInsufficientPermission {
		t.Fatalf("expected insufficient_permission, got %+v", d)
	}
}

func TestRequirePermission_ProtectedRoleOverride(t *testing.T) {
	st := seedStore(t)
	e := New(st, protected)
	ctx := context.Background()

	// OWNER no tiene permisos asignados y aun así pasa todo chequeo,
	// incluso contra un slug que no existe en el catálogo.
	owner := mkSubject(t, st, "root", protected)

	for _, slug := range []string{"post.read", "post.delete", "no.such.perm"} {
		if d := e.RequirePermission(ctx, owner, slug); !d.Allowed {
			t.Fatalf("protected role must pass %q, got reason %s", slug, d.Reason)
		}
	}
	// El override es de permisos, no de roles: OWNER no pasa RequireRole(ADMIN).
	if d := e.RequireRole(ctx, owner, "ADMIN"); d.Allowed {
		t.Fatal("protected role must not bypass role checks")
	}
}

func TestResolve_FreshPermissions(t *testing.T) {
	st := seedStore(t)
	e := New(st, protected)
	ctx := context.Background()

	sub := mkSubject(t, st, "carol", "USER")
	if d := e.RequirePermission(ctx, sub, "post.edit"); d.Allowed {
		t.Fatal("USER must not have post.edit yet")
	}

	// Ampliar permisos del rol: el siguiente Resolve los ve sin re-login.
	if _, err := st.SyncRolePermissions(ctx, sub.Role.ID, []string{"post.read", "post.edit"}); err != nil {
		t.Fatal(err)
	}
	fresh, err := e.Resolve(ctx, sub.User.ID)
	if err != nil {
		t.Fatal(err)
	}
	if d := e.RequirePermission(ctx, fresh, "post.edit"); !d.Allowed {
		t.Fatalf("expected fresh permissions, got reason %s", d.Reason)
	}
}

func TestResolve_UnknownUser(t *testing.T) {
	st := seedStore(t)
	e := New(st, protected)

	if _, err := e.Resolve(context.Background(), "00000000-0000-0000-0000-000000000000"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}
