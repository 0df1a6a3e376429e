// Package admin implementa las operaciones administrativas de RBAC:
// listar usuarios/roles, reasignar rol y sincronizar permisos de un rol.
package admin

import (
	"context"
	"strings"

	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/store/core"
)

// Deps contiene las dependencias del servicio administrativo.
type Deps struct {
	Repo          core.Repository
	ProtectedRole string
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// UserWithRole es la vista administrativa de un usuario: incluye su rol.
type UserWithRole struct {
	User core.User `json:"user"`
	Role core.Role `json:"role"`
}

// ListUsers devuelve todos los usuarios con su rol resuelto.
func (s *Service) ListUsers(ctx context.Context) ([]UserWithRole, error) {
	users, err := s.deps.Repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	// Cachear roles por ID para no re-leer por usuario.
	roles := map[string]*core.Role{}
	out := make([]UserWithRole, 0, len(users))
	for _, u := range users {
		role, ok := roles[u.RoleID]
		if !ok {
			role, err = s.deps.Repo.GetRoleByID(ctx, u.RoleID)
			if err != nil {
				return nil, err
			}
			roles[u.RoleID] = role
		}
		out = append(out, UserWithRole{User: u, Role: *role})
	}
	return out, nil
}

// ListRoles devuelve el catálogo de roles con sus permisos.
func (s *Service) ListRoles(ctx context.Context) ([]core.Role, error) {
	return s.deps.Repo.ListRoles(ctx)
}

// ListPermissions devuelve el catálogo completo de permisos.
func (s *Service) ListPermissions(ctx context.Context) ([]core.Permission, error) {
	return s.deps.Repo.ListPermissions(ctx)
}

// ChangeUserRole reasigna el rol de un usuario. Si perms != nil, primero
// sincroniza (full replace) los permisos del rol destino y recién después
// reasigna: la operación sirve también para ajustar el rol en el mismo paso.
//
// Guards del rol protegido (el store los re-chequea):
//   - el usuario que HOY tiene el rol protegido no puede ser tocado,
//     ni siquiera para "reasignarle" el mismo rol;
//   - nadie puede ser promovido AL rol protegido.
func (s *Service) ChangeUserRole(ctx context.Context, userID, roleSlug string, perms []string, syncPerms bool) (*UserWithRole, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("admin"),
		logger.Op("ChangeUserRole"),
		logger.UserID(userID),
	)

	roleSlug = strings.TrimSpace(roleSlug)
	if roleSlug == "" {
		return nil, core.ErrInvalid
	}

	// Paso 1: guards del rol protegido, ANTES de crear nada. Independientes:
	// cada uno bloquea solo. Un rechazo no debe dejar un rol nuevo creado.
	if roleSlug == s.deps.ProtectedRole {
		log.Info("change rejected: destination is protected role", logger.Role(roleSlug))
		return nil, core.ErrProtectedRole
	}
	target, err := s.deps.Repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	cur, err := s.deps.Repo.GetRoleByID(ctx, target.RoleID)
	if err != nil {
		return nil, err
	}
	if cur.Slug == s.deps.ProtectedRole {
		log.Info("change rejected: target holds protected role", logger.Role(cur.Slug))
		return nil, core.ErrProtectedRole
	}

	// Paso 2: el rol destino se resuelve o se crea (idempotente por slug,
	// el name existente no se pisa).
	next, err := s.deps.Repo.FindOrCreateRole(ctx, roleSlug, roleSlug)
	if err != nil {
		return nil, err
	}

	// Paso 3: sync opcional de permisos del rol destino (full replace).
	if syncPerms {
		if next, err = s.deps.Repo.SyncRolePermissions(ctx, next.ID, perms); err != nil {
			return nil, err
		}
	}

	// Paso 4: reasignación.
	updated, err := s.deps.Repo.ReassignUserRole(ctx, target.ID, next.ID)
	if err != nil {
		return nil, err
	}

	log.Info("user role changed", logger.Role(next.Slug), logger.Bool("perms_synced", syncPerms))
	return &UserWithRole{User: *updated, Role: *next}, nil
}

// UpdateRolePermissions reemplaza (full replace) el set de permisos de un
// rol, referenciado por ID o slug. Slugs desconocidos se descartan.
func (s *Service) UpdateRolePermissions(ctx context.Context, roleRef string, perms []string) (*core.Role, error) {
	role, err := s.deps.Repo.GetRoleByID(ctx, roleRef)
	if err != nil {
		role, err = s.deps.Repo.GetRoleBySlug(ctx, roleRef)
		if err != nil {
			return nil, err
		}
	}
	// Mismo guard que el store (defensa en profundidad).
	if role.Slug == s.deps.ProtectedRole {
		return nil, core.ErrProtectedRole
	}
	updated, err := s.deps.Repo.SyncRolePermissions(ctx, role.ID, perms)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("role permissions updated",
		logger.Component("admin"),
		logger.Role(updated.Slug),
		logger.Count(len(updated.Permissions)),
	)
	return updated, nil
}
