package core

import "context"

// Repository define la persistencia que necesita el servicio.
// Implementaciones: pg (producción) y memory (dev/tests).
//
// Invariantes que TODA implementación debe sostener (defensa en profundidad,
// independiente de los gates del engine de autorización):
//   - SyncRolePermissions sobre el rol protegido -> ErrProtectedRole, incluso si
//     el sync sería un no-op.
//   - ReassignUserRole -> ErrProtectedRole si el rol actual del usuario O el rol
//     nuevo es el protegido. Ambos chequeos son independientes.
//   - Sync y reassign son atómicos: un lector concurrente nunca observa un set de
//     permisos parcial ni un usuario sin rol.
type Repository interface {
	// Catálogo de permisos
	ListPermissions(ctx context.Context) ([]Permission, error)
	// ResolvePermissions traduce slugs a permisos canónicos. Slugs desconocidos
	// se descartan en silencio (sin error); devuelve solo los matches.
	ResolvePermissions(ctx context.Context, slugs []string) ([]Permission, error)
	// EnsurePermission upsert por slug (seeding). El slug nunca se renombra.
	EnsurePermission(ctx context.Context, slug, name string) (Permission, error)

	// Roles
	GetRoleByID(ctx context.Context, id string) (*Role, error)
	GetRoleBySlug(ctx context.Context, slug string) (*Role, error)
	// FindOrCreateRole es idempotente por slug; si existe, devuelve el existente
	// sin pisar el name.
	FindOrCreateRole(ctx context.Context, slug, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]Role, error)
	// SyncRolePermissions reemplaza el set COMPLETO del rol por los slugs
	// resueltos (full replace, no merge). Slugs desconocidos se descartan.
	SyncRolePermissions(ctx context.Context, roleID string, slugs []string) (*Role, error)

	// Usuarios
	GetUserByID(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, username, passwordHash, roleID string) (*User, error)
	ReassignUserRole(ctx context.Context, userID, roleID string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// Posts
	ListPosts(ctx context.Context) ([]Post, error)
	GetPost(ctx context.Context, id string) (*Post, error)
	CreatePost(ctx context.Context, title, content, authorID string) (*Post, error)
	UpdatePost(ctx context.Context, id, title, content string) (*Post, error)
	DeletePost(ctx context.Context, id string) error
}
