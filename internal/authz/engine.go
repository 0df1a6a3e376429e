// Package authz implementa el motor de autorización RBAC.
//
// Modelo: cada usuario tiene exactamente un rol; cada rol tiene un conjunto
// de permisos. No hay jerarquía de roles: la comparación de rol es exacta.
// El rol protegido (configurable, default "OWNER") tiene override universal:
// pasa cualquier chequeo de permiso aunque su set de permisos esté vacío.
package authz

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/store/core"
)

// Reason explica por qué una decisión fue denegada.
type Reason string

const (
	ReasonUnauthenticated        Reason = "unauthenticated"
	ReasonInsufficientRole       Reason = "insufficient_role"
	ReasonInsufficientPermission Reason = "insufficient_permission"
)

// Decision es el resultado de evaluar un chequeo de autorización.
// Si Allowed es false, Reason indica la causa (para mapear a 401/403).
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision        { return Decision{Allowed: true} }
func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

// Subject es el actor autenticado con su rol ya resuelto.
// Un Subject nil o sin rol representa un request anónimo.
type Subject struct {
	User *core.User
	Role *core.Role
}

// Engine evalúa decisiones de autorización contra el directorio de usuarios.
type Engine struct {
	repo          core.Repository
	protectedRole string
}

// New crea un Engine. protectedRole es el slug del rol con override universal.
func New(repo core.Repository, protectedRole string) *Engine {
	return &Engine{repo: repo, protectedRole: protectedRole}
}

// ProtectedRole retorna el slug del rol protegido configurado.
func (e *Engine) ProtectedRole() string { return e.protectedRole }

// Resolve carga el Subject para un userID: usuario + rol con permisos frescos.
// Se resuelve por request: un cambio de rol o de permisos aplica al siguiente
// request sin necesidad de re-login.
func (e *Engine) Resolve(ctx context.Context, userID string) (*Subject, error) {
	u, err := e.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r, err := e.repo.GetRoleByID(ctx, u.RoleID)
	if err != nil {
		// Usuario apuntando a un rol inexistente: estado corrupto, se trata
		// como no autenticado aguas arriba.
		if errors.Is(err, core.ErrNotFound) {
			return nil, core.ErrNotFound
		}
		return nil, err
	}
	return &Subject{User: u, Role: r}, nil
}

// RequireRole exige que el sujeto tenga exactamente uno de los roles dados.
// Comparación case-sensitive sobre el slug; sin jerarquía: ADMIN no
// satisface un chequeo de USER ni viceversa.
func (e *Engine) RequireRole(ctx context.Context, sub *Subject, roleSlugs ...string) Decision {
	if sub == nil || sub.User == nil || sub.Role == nil {
		return deny(ReasonUnauthenticated)
	}
	for _, slug := range roleSlugs {
		if sub.Role.Slug == slug {
			return allow()
		}
	}
	logger.From(ctx).Debug("role check denied",
		logger.UserID(sub.User.ID),
		logger.Role(sub.Role.Slug),
		logger.String("required_roles", strings.Join(roleSlugs, ",")),
	)
	return deny(ReasonInsufficientRole)
}

// RequirePermission exige que el rol del sujeto incluya el permiso dado.
// El rol protegido pasa siempre, incluso con set de permisos vacío o ante
// un slug de permiso inexistente en el catálogo.
func (e *Engine) RequirePermission(ctx context.Context, sub *Subject, permSlug string) Decision {
	if sub == nil || sub.User == nil || sub.Role == nil {
		return deny(ReasonUnauthenticated)
	}
	if sub.Role.Slug == e.protectedRole {
		return allow()
	}
	if !sub.Role.HasPermission(permSlug) {
		logger.From(ctx).Debug("permission check denied",
			logger.UserID(sub.User.ID),
			logger.Role(sub.Role.Slug),
			logger.Permission(permSlug),
		)
		return deny(ReasonInsufficientPermission)
	}
	return allow()
}
