package pg

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dropDatabas3/pressgate/internal/store/core"
)

const userCols = `u.id, u.username, u.password_hash, u.role_id, u.created_at`

func scanUser(row pgx.Row) (*core.User, error) {
	var u core.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.RoleID, &u.CreatedAt); err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	const q = `SELECT ` + userCols + ` FROM app_user u WHERE u.id = $1 LIMIT 1;`
	return scanUser(s.pool.QueryRow(ctx, q, id))
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	const q = `SELECT ` + userCols + ` FROM app_user u WHERE u.username = $1 LIMIT 1;`
	return scanUser(s.pool.QueryRow(ctx, q, username))
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash, roleID string) (*core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || roleID == "" {
		return nil, core.ErrInvalid
	}
	const q = `
INSERT INTO app_user (id, username, password_hash, role_id)
VALUES (gen_random_uuid(), $1, $2, $3)
RETURNING id, username, password_hash, role_id, created_at;`
	u, err := scanUser(s.pool.QueryRow(ctx, q, username, passwordHash, roleID))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation (username)
				return nil, core.ErrConflict
			case "23503": // foreign_key_violation (role_id)
				return nil, core.ErrNotFound
			}
		}
		return nil, err
	}
	return u, nil
}

// ReassignUserRole: un solo UPDATE condicionado, atómico. El WHERE excluye el
// caso "usuario con rol protegido" y el subquery valida que el rol nuevo exista
// y no sea el protegido; después distinguimos el motivo del no-update.
func (s *Store) ReassignUserRole(ctx context.Context, userID, roleID string) (*core.User, error) {
	// Pre-chequeos explícitos para devolver el error correcto (los dos guards
	// son independientes; cualquiera bloquea por sí solo).
	var curSlug string
	err := s.pool.QueryRow(ctx, `
SELECT r.slug FROM app_user u JOIN role r ON r.id = u.role_id WHERE u.id = $1`, userID).Scan(&curSlug)
	if err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	if curSlug == s.protectedRole {
		return nil, core.ErrProtectedRole
	}

	var nextSlug string
	err = s.pool.QueryRow(ctx, `SELECT slug FROM role WHERE id = $1`, roleID).Scan(&nextSlug)
	if err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	if nextSlug == s.protectedRole {
		return nil, core.ErrProtectedRole
	}

	// El UPDATE repite las condiciones: si otro request cambió el estado entre
	// los chequeos y acá, no escribimos nada.
	const q = `
UPDATE app_user u
SET role_id = $2
FROM role cur, role next
WHERE u.id = $1
  AND cur.id = u.role_id AND cur.slug <> $3
  AND next.id = $2 AND next.slug <> $3
RETURNING u.id, u.username, u.password_hash, u.role_id, u.created_at;`
	u, err := scanUser(s.pool.QueryRow(ctx, q, userID, roleID, s.protectedRole))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrProtectedRole
		}
		return nil, err
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	const q = `
SELECT ` + userCols + `
FROM app_user u
ORDER BY u.username;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.User
	for rows.Next() {
		var u core.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.RoleID, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
