package pg

import (
	"context"
	"strings"

	"github.com/dropDatabas3/pressgate/internal/store/core"
)

// ---------- LECTURAS ----------

func (s *Store) GetRoleByID(ctx context.Context, id string) (*core.Role, error) {
	return s.getRole(ctx, `WHERE r.id = $1`, id)
}

func (s *Store) GetRoleBySlug(ctx context.Context, slug string) (*core.Role, error) {
	return s.getRole(ctx, `WHERE r.slug = $1`, slug)
}

func (s *Store) getRole(ctx context.Context, where, arg string) (*core.Role, error) {
	q := `
SELECT r.id, r.slug, r.name, r.created_at
FROM role r ` + where + ` LIMIT 1;`
	var role core.Role
	err := s.pool.QueryRow(ctx, q, arg).Scan(&role.ID, &role.Slug, &role.Name, &role.CreatedAt)
	if err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	perms, err := s.rolePermissions(ctx, role.ID)
	if err != nil {
		return nil, err
	}
	role.Permissions = perms
	return &role, nil
}

func (s *Store) rolePermissions(ctx context.Context, roleID string) ([]core.Permission, error) {
	const q = `
SELECT p.id, p.slug, p.name, p.created_at
FROM role_permission rp
JOIN permission p ON p.id = rp.permission_id
WHERE rp.role_id = $1
ORDER BY p.slug;`
	rows, err := s.pool.Query(ctx, q, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Permission
	for rows.Next() {
		var p core.Permission
		if err := rows.Scan(&p.ID, &p.Slug, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) ListRoles(ctx context.Context) ([]core.Role, error) {
	const q = `
SELECT r.id, r.slug, r.name, r.created_at
FROM role r
ORDER BY r.slug;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	var out []core.Role
	for rows.Next() {
		var role core.Role
		if err := rows.Scan(&role.ID, &role.Slug, &role.Name, &role.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, role)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		perms, err := s.rolePermissions(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Permissions = perms
	}
	return out, nil
}

// ---------- ESCRITURAS ----------

// FindOrCreateRole: upsert idempotente por slug. Si el rol ya existe, el name
// NO se pisa (DO NOTHING + re-lectura).
func (s *Store) FindOrCreateRole(ctx context.Context, slug, name string) (*core.Role, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, core.ErrInvalid
	}
	const q = `
INSERT INTO role (id, slug, name)
VALUES (gen_random_uuid(), $1, $2)
ON CONFLICT (slug) DO NOTHING;`
	if _, err := s.pool.Exec(ctx, q, slug, name); err != nil {
		return nil, err
	}
	return s.GetRoleBySlug(ctx, slug)
}

// SyncRolePermissions: full replace transaccional del join set. Un lector
// concurrente ve el set viejo o el nuevo, nunca uno parcial.
func (s *Store) SyncRolePermissions(ctx context.Context, roleID string, slugs []string) (*core.Role, error) {
	var roleSlug string
	err := s.pool.QueryRow(ctx, `SELECT slug FROM role WHERE id = $1`, roleID).Scan(&roleSlug)
	if err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	// El guard dispara antes de computar si el cambio sería un no-op.
	if roleSlug == s.protectedRole {
		return nil, core.ErrProtectedRole
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM role_permission WHERE role_id = $1`, roleID); err != nil {
		return nil, err
	}
	clean := dedupTrim(slugs)
	if len(clean) > 0 {
		// Slugs desconocidos se descartan vía el JOIN contra permission.
		const qIns = `
INSERT INTO role_permission (role_id, permission_id)
SELECT $1, p.id FROM permission p WHERE p.slug = ANY($2)
ON CONFLICT DO NOTHING;`
		if _, err := tx.Exec(ctx, qIns, roleID, clean); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.GetRoleByID(ctx, roleID)
}
