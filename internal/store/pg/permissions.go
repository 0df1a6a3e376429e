package pg

import (
	"context"
	"strings"

	"github.com/dropDatabas3/pressgate/internal/store/core"
)

func (s *Store) ListPermissions(ctx context.Context) ([]core.Permission, error) {
	const q = `
SELECT id, slug, name, created_at
FROM permission
ORDER BY slug;`
	rows, err := s.pool.Query(ctx, q)
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

// ResolvePermissions: slugs desconocidos se descartan (sin error).
func (s *Store) ResolvePermissions(ctx context.Context, slugs []string) ([]core.Permission, error) {
	clean := dedupTrim(slugs)
	if len(clean) == 0 {
		return nil, nil
	}
	const q = `
SELECT id, slug, name, created_at
FROM permission
WHERE slug = ANY($1)
ORDER BY slug;`
	rows, err := s.pool.Query(ctx, q, clean)
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

func (s *Store) EnsurePermission(ctx context.Context, slug, name string) (core.Permission, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return core.Permission{}, core.ErrInvalid
	}
	const q = `
INSERT INTO permission (id, slug, name)
VALUES (gen_random_uuid(), $1, $2)
ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
RETURNING id, slug, name, created_at;`
	var p core.Permission
	if err := s.pool.QueryRow(ctx, q, slug, name).Scan(&p.ID, &p.Slug, &p.Name, &p.CreatedAt); err != nil {
		return core.Permission{}, err
	}
	return p, nil
}

// dedupTrim normaliza y de-duplica slugs de entrada.
func dedupTrim(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
