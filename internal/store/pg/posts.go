package pg

import (
	"context"
	"strings"

	"github.com/dropDatabas3/pressgate/internal/store/core"
)

func (s *Store) ListPosts(ctx context.Context) ([]core.Post, error) {
	const q = `
SELECT id, title, content, author_id, created_at, updated_at
FROM post
ORDER BY created_at DESC;`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Post
	for rows.Next() {
		var p core.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPost(ctx context.Context, id string) (*core.Post, error) {
	const q = `
SELECT id, title, content, author_id, created_at, updated_at
FROM post WHERE id = $1 LIMIT 1;`
	var p core.Post
	err := s.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreatePost(ctx context.Context, title, content, authorID string) (*core.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, core.ErrInvalid
	}
	const q = `
INSERT INTO post (id, title, content, author_id)
VALUES (gen_random_uuid(), $1, $2, $3)
RETURNING id, title, content, author_id, created_at, updated_at;`
	var p core.Post
	err := s.pool.QueryRow(ctx, q, title, content, authorID).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePost: campos vacíos conservan el valor previo (COALESCE/NULLIF).
func (s *Store) UpdatePost(ctx context.Context, id, title, content string) (*core.Post, error) {
	const q = `
UPDATE post SET
  title = COALESCE(NULLIF($2, ''), title),
  content = COALESCE(NULLIF($3, ''), content),
  updated_at = NOW()
WHERE id = $1
RETURNING id, title, content, author_id, created_at, updated_at;`
	var p core.Post
	err := s.pool.QueryRow(ctx, q, id, title, content).Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isNotFound(err) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	ct, err := s.pool.Exec(ctx, `DELETE FROM post WHERE id = $1`, id)
	if err != nil {
		if isNotFound(err) {
			return core.ErrNotFound
		}
		return err
	}
	if ct.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}
