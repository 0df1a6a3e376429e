// Package memory implementa core.Repository en memoria.
// Útil para desarrollo y testing; mismo contrato que el store pg.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/pressgate/internal/store/core"
)

type Store struct {
	mu sync.RWMutex

	protectedRole string

	perms     map[string]core.Permission // slug -> permiso
	roles     map[string]*roleRec        // id -> rol
	roleSlugs map[string]string          // slug -> id
	users     map[string]*core.User      // id -> usuario
	usernames map[string]string          // username -> id
	posts     map[string]*core.Post      // id -> post
}

type roleRec struct {
	id, slug, name string
	permSlugs      []string
	createdAt      time.Time
}

// New crea un store vacío. protectedRole es el slug del rol protegido
// (defensa en profundidad a nivel storage).
func New(protectedRole string) *Store {
	return &Store{
		protectedRole: protectedRole,
		perms:         map[string]core.Permission{},
		roles:         map[string]*roleRec{},
		roleSlugs:     map[string]string{},
		users:         map[string]*core.User{},
		usernames:     map[string]string{},
		posts:         map[string]*core.Post{},
	}
}

// ---------- permisos ----------

func (s *Store) ListPermissions(ctx context.Context) ([]core.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Permission, 0, len(s.perms))
	for _, p := range s.perms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (s *Store) ResolvePermissions(ctx context.Context, slugs []string) ([]core.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(slugs), nil
}

// resolveLocked descarta desconocidos y duplicados. Caller sostiene el lock.
func (s *Store) resolveLocked(slugs []string) []core.Permission {
	seen := map[string]struct{}{}
	out := make([]core.Permission, 0, len(slugs))
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if slug == "" {
			continue
		}
		if _, dup := seen[slug]; dup {
			continue
		}
		seen[slug] = struct{}{}
		if p, ok := s.perms[slug]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) EnsurePermission(ctx context.Context, slug, name string) (core.Permission, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return core.Permission{}, core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.perms[slug]; ok {
		p.Name = name
		s.perms[slug] = p
		return p, nil
	}
	p := core.Permission{ID: uuid.NewString(), Slug: slug, Name: name, CreatedAt: time.Now().UTC()}
	s.perms[slug] = p
	return p, nil
}

// ---------- roles ----------

func (s *Store) GetRoleByID(ctx context.Context, id string) (*core.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.roles[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	return s.materializeLocked(rec), nil
}

func (s *Store) GetRoleBySlug(ctx context.Context, slug string) (*core.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.roleSlugs[slug]
	if !ok {
		return nil, core.ErrNotFound
	}
	return s.materializeLocked(s.roles[id]), nil
}

func (s *Store) FindOrCreateRole(ctx context.Context, slug, name string) (*core.Role, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.roleSlugs[slug]; ok {
		// existente: el name NO se pisa
		return s.materializeLocked(s.roles[id]), nil
	}
	rec := &roleRec{id: uuid.NewString(), slug: slug, name: name, createdAt: time.Now().UTC()}
	s.roles[rec.id] = rec
	s.roleSlugs[slug] = rec.id
	return s.materializeLocked(rec), nil
}

func (s *Store) ListRoles(ctx context.Context) ([]core.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Role, 0, len(s.roles))
	for _, rec := range s.roles {
		out = append(out, *s.materializeLocked(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (s *Store) SyncRolePermissions(ctx context.Context, roleID string, slugs []string) (*core.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.roles[roleID]
	if !ok {
		return nil, core.ErrNotFound
	}
	// El guard dispara antes de mirar si el cambio sería un no-op.
	if rec.slug == s.protectedRole {
		return nil, core.ErrProtectedRole
	}
	resolved := s.resolveLocked(slugs)
	next := make([]string, 0, len(resolved))
	for _, p := range resolved {
		next = append(next, p.Slug)
	}
	rec.permSlugs = next // full replace bajo el mismo lock (atómico)
	return s.materializeLocked(rec), nil
}

// materializeLocked arma el core.Role con su set de permisos resuelto.
func (s *Store) materializeLocked(rec *roleRec) *core.Role {
	role := &core.Role{ID: rec.id, Slug: rec.slug, Name: rec.name, CreatedAt: rec.createdAt}
	for _, slug := range rec.permSlugs {
		if p, ok := s.perms[slug]; ok {
			role.Permissions = append(role.Permissions, p)
		}
	}
	return role
}

// ---------- usuarios ----------

func (s *Store) GetUserByID(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernames[username]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) CreateUser(ctx context.Context, username, passwordHash, roleID string) (*core.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || roleID == "" {
		return nil, core.ErrInvalid
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.usernames[username]; exists {
		return nil, core.ErrConflict
	}
	if _, ok := s.roles[roleID]; !ok {
		return nil, core.ErrNotFound
	}
	u := &core.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		RoleID:       roleID,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	s.usernames[username] = u.ID
	cp := *u
	return &cp, nil
}

func (s *Store) ReassignUserRole(ctx context.Context, userID, roleID string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, core.ErrNotFound
	}
	next, ok := s.roles[roleID]
	if !ok {
		return nil, core.ErrNotFound
	}
	// Chequeos independientes: cualquiera de los dos bloquea por sí solo.
	if cur, ok := s.roles[u.RoleID]; ok && cur.slug == s.protectedRole {
		return nil, core.ErrProtectedRole
	}
	if next.slug == s.protectedRole {
		return nil, core.ErrProtectedRole
	}
	u.RoleID = roleID
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// ---------- posts ----------

func (s *Store) ListPosts(ctx context.Context) ([]core.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p)
	}
	// más recientes primero, como el listado original
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetPost(ctx context.Context, id string) (*core.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *Store) CreatePost(ctx context.Context, title, content, authorID string) (*core.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, core.ErrInvalid
	}
	now := time.Now().UTC()
	p := &core.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		AuthorID:  authorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
	cp := *p
	return &cp, nil
}

func (s *Store) UpdatePost(ctx context.Context, id, title, content string) (*core.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	if title != "" {
		p.Title = title
	}
	if content != "" {
		p.Content = content
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return core.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

var _ core.Repository = (*Store)(nil)
