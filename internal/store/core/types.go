package core

import "time"

// Permission es una capacidad atómica identificada por slug (ej: "post.create").
// El slug es estable: una vez referenciado por un rol no se renombra.
type Permission struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Role agrupa permisos bajo un slug único y case-sensitive.
// El rol protegido (config rbac.protected_role) no es mutable vía admin.
type Role struct {
	ID          string       `json:"id"`
	Slug        string       `json:"slug"`
	Name        string       `json:"name"`
	Permissions []Permission `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
}

// HasPermission busca un slug dentro del set del rol (match exacto).
func (r *Role) HasPermission(slug string) bool {
	for _, p := range r.Permissions {
		if p.Slug == slug {
			return true
		}
	}
	return false
}

// PermissionSlugs devuelve los slugs del set (orden de carga).
func (r *Role) PermissionSlugs() []string {
	out := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, p.Slug)
	}
	return out
}

// User siempre tiene exactamente un rol asignado (RoleID nunca vacío post-creación).
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	RoleID       string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Post es el recurso del blog; el gating por permiso vive en el transporte.
type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
