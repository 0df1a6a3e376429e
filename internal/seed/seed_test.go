package seed

import (
	"context"
	"testing"

	"github.com/dropDatabas3/pressgate/internal/security/password"
	"github.com/dropDatabas3/pressgate/internal/store/memory"
)

var testParams = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

func testOpts() Options {
	return Options{
		ProtectedRole: "OWNER",
		OwnerUsername: "owner",
		OwnerPassword: "s3cret-s3cret",
		HashParams:    testParams,
	}
}

func TestRun_SeedsCatalogRolesAndOwner(t *testing.T) {
	ctx := context.Background()
	st := memory.New("OWNER")

	if err := Run(ctx, st, testOpts()); err != nil {
		t.Fatal(err)
	}

	perms, err := st.ListPermissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 4 {
		t.Fatalf("expected 4 permissions, got %d", len(perms))
	}

	user, err := st.GetRoleBySlug(ctx, "USER")
	if err != nil {
		t.Fatal(err)
	}
	if len(user.Permissions) != 1 || user.Permissions[0].Slug != "post.read" {
		t.Fatalf("USER perms: %v", user.PermissionSlugs())
	}
	super, _ := st.GetRoleBySlug(ctx, "SUPERADMIN")
	if len(super.Permissions) != 4 {
		t.Fatalf("SUPERADMIN perms: %v", super.PermissionSlugs())
	}
	prot, err := st.GetRoleBySlug(ctx, "OWNER")
	if err != nil {
		t.Fatal(err)
	}
	if len(prot.Permissions) != 0 {
		t.Fatalf("protected role must have no explicit perms: %v", prot.PermissionSlugs())
	}

	owner, err := st.GetUserByUsername(ctx, "owner")
	if err != nil {
		t.Fatal(err)
	}
	if owner.RoleID != prot.ID {
		t.Fatalf("owner role = %s, want %s", owner.RoleID, prot.ID)
	}
	if !password.Verify("s3cret-s3cret", owner.PasswordHash) {
		t.Fatal("owner password hash does not verify")
	}
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	st := memory.New("OWNER")

	if err := Run(ctx, st, testOpts()); err != nil {
		t.Fatal(err)
	}
	if err := Run(ctx, st, testOpts()); err != nil {
		t.Fatal(err)
	}

	users, _ := st.ListUsers(ctx)
	if len(users) != 1 {
		t.Fatalf("owner duplicated: %d users", len(users))
	}
	roles, _ := st.ListRoles(ctx)
	if len(roles) != 4 {
		t.Fatalf("expected 4 roles, got %d", len(roles))
	}
}

func TestRun_KeepsOperatorChanges(t *testing.T) {
	ctx := context.Background()
	st := memory.New("OWNER")

	if err := Run(ctx, st, testOpts()); err != nil {
		t.Fatal(err)
	}

	// Un operador recorta ADMIN por la API; re-seed no debe pisarlo.
	admin, _ := st.GetRoleBySlug(ctx, "ADMIN")
	if _, err := st.SyncRolePermissions(ctx, admin.ID, []string{"post.read"}); err != nil {
		t.Fatal(err)
	}
	if err := Run(ctx, st, testOpts()); err != nil {
		t.Fatal(err)
	}
	admin, _ = st.GetRoleBySlug(ctx, "ADMIN")
	if got := admin.PermissionSlugs(); len(got) != 1 || got[0] != "post.read" {
		t.Fatalf("re-seed overwrote operator changes: %v", got)
	}
}
