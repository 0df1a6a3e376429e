package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/pressgate/internal/admin"
	httperrors "github.com/dropDatabas3/pressgate/internal/http/errors"
	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/store/core"
)

// AdminController expone la gestión de usuarios, roles y permisos.
// Todas sus rutas van detrás de RequireRole(rol protegido) en el router.
type AdminController struct {
	service *admin.Service
}

func NewAdminController(service *admin.Service) *AdminController {
	return &AdminController{service: service}
}

// ListUsers maneja GET /v1/admin/users
func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := c.service.ListUsers(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("list users failed", logger.Err(err))
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

// ListRoles maneja GET /v1/admin/roles
func (c *AdminController) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := c.service.ListRoles(r.Context())
	if err != nil {
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"roles": roles})
}

// ListPermissions maneja GET /v1/admin/permissions
func (c *AdminController) ListPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := c.service.ListPermissions(r.Context())
	if err != nil {
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

// changeRoleRequest es el body de PUT /v1/admin/users/{id}/role.
// Permissions en nil significa "no tocar los permisos del rol destino";
// presente (aunque sea []), el rol destino se sincroniza por full replace.
type changeRoleRequest struct {
	Role        string    `json:"role"`
	Permissions *[]string `json:"permissions"`
}

// ChangeUserRole maneja PUT /v1/admin/users/{id}/role
func (c *AdminController) ChangeUserRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.ChangeUserRole"))

	userID := chi.URLParam(r, "id")

	var req changeRoleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if req.Role == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("role es obligatorio"))
		return
	}

	var perms []string
	syncPerms := req.Permissions != nil
	if syncPerms {
		perms = *req.Permissions
	}

	result, err := c.service.ChangeUserRole(ctx, userID, req.Role, perms, syncPerms)
	if err != nil {
		log.Warn("change role failed", logger.UserID(userID), logger.Role(req.Role), logger.Err(err))
		httperrors.WriteError(w, mapAdminError(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type rolePermsRequest struct {
	Permissions []string `json:"permissions"`
}

// UpdateRolePermissions maneja PUT /v1/admin/roles/{id}/permissions
func (c *AdminController) UpdateRolePermissions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("AdminController.UpdateRolePermissions"))

	roleRef := chi.URLParam(r, "id")

	var req rolePermsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	role, err := c.service.UpdateRolePermissions(ctx, roleRef, req.Permissions)
	if err != nil {
		log.Warn("sync perms failed", logger.Role(roleRef), logger.Err(err))
		httperrors.WriteError(w, mapAdminError(err))
		return
	}

	writeJSON(w, http.StatusOK, role)
}

// mapAdminError traduce errores del servicio administrativo a AppError.
func mapAdminError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, core.ErrProtectedRole):
		return httperrors.ErrProtectedRole
	case errors.Is(err, core.ErrNotFound):
		return httperrors.ErrNotFound.WithDetail("usuario o rol inexistente")
	case errors.Is(err, core.ErrInvalid):
		return httperrors.ErrBadRequest.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
