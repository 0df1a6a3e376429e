// Package seed carga el catálogo inicial de permisos y roles, y crea el
// usuario dueño si no existe. Es idempotente: correr el seed varias veces
// no duplica filas ni pisa asignaciones existentes.
package seed

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/security/password"
	"github.com/dropDatabas3/pressgate/internal/store/core"
)

// permission del catálogo base del blog.
type permission struct {
	Slug string
	Name string
}

var catalog = []permission{
	{"post.read", "Leer posts"},
	{"post.create", "Crear posts"},
	{"post.edit", "Editar posts"},
	{"post.delete", "Eliminar posts"},
}

// rolePerms define los roles base y sus permisos.
// El rol protegido no necesita filas: su override es universal.
var rolePerms = []struct {
	Slug  string
	Name  string
	Perms []string
}{
	{"USER", "Usuario", []string{"post.read"}},
	{"ADMIN", "Administrador", []string{"post.read", "post.create"}},
	{"SUPERADMIN", "Superadministrador", []string{"post.read", "post.create", "post.edit", "post.delete"}},
}

// Options parametriza el seed.
type Options struct {
	ProtectedRole string // slug del rol dueño (ej: OWNER)
	OwnerUsername string
	OwnerPassword string // vacío = no crear usuario dueño
	HashParams    password.Params
}

// Run siembra catálogo, roles y usuario dueño sobre cualquier Repository.
func Run(ctx context.Context, repo core.Repository, opts Options) error {
	log := logger.L().With(logger.Layer("seed"))

	// Paso 1: catálogo de permisos.
	for _, p := range catalog {
		if _, err := repo.EnsurePermission(ctx, p.Slug, p.Name); err != nil {
			return fmt.Errorf("seed permission %s: %w", p.Slug, err)
		}
	}
	log.Info("permission catalog ready", logger.Count(len(catalog)))

	// Paso 2: roles base con sus permisos.
	for _, r := range rolePerms {
		role, err := repo.FindOrCreateRole(ctx, r.Slug, r.Name)
		if err != nil {
			return fmt.Errorf("seed role %s: %w", r.Slug, err)
		}
		// Solo sincronizar roles recién creados o vacíos: un operador pudo
		// haber ajustado los permisos por la API admin.
		if len(role.Permissions) == 0 {
			if _, err := repo.SyncRolePermissions(ctx, role.ID, r.Perms); err != nil {
				return fmt.Errorf("seed role perms %s: %w", r.Slug, err)
			}
		}
	}

	// Paso 3: rol protegido (sin permisos: override universal).
	protected, err := repo.FindOrCreateRole(ctx, opts.ProtectedRole, opts.ProtectedRole)
	if err != nil {
		return fmt.Errorf("seed protected role: %w", err)
	}

	// Paso 4: usuario dueño.
	if opts.OwnerPassword == "" {
		log.Warn("owner password not set, skipping owner bootstrap")
		return nil
	}
	if _, err := repo.GetUserByUsername(ctx, opts.OwnerUsername); err == nil {
		log.Info("owner user already exists", logger.Username(opts.OwnerUsername))
		return nil
	} else if !errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("seed owner lookup: %w", err)
	}

	hash, err := password.Hash(opts.HashParams, opts.OwnerPassword)
	if err != nil {
		return fmt.Errorf("seed owner hash: %w", err)
	}
	owner, err := repo.CreateUser(ctx, opts.OwnerUsername, hash, protected.ID)
	if err != nil {
		return fmt.Errorf("seed owner create: %w", err)
	}
	log.Info("owner user created", logger.UserID(owner.ID), logger.Username(owner.Username), logger.Role(protected.Slug))
	return nil
}
