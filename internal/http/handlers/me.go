package handlers

import (
	"net/http"

	httperrors "github.com/dropDatabas3/pressgate/internal/http/errors"
	mw "github.com/dropDatabas3/pressgate/internal/http/middlewares"
)

type meResponse struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// Me maneja GET /v1/me: identidad del token con rol y permisos frescos.
func Me(w http.ResponseWriter, r *http.Request) {
	sub := mw.GetSubject(r.Context())
	if sub == nil || sub.User == nil || sub.Role == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	perms := sub.Role.PermissionSlugs()
	if perms == nil {
		perms = []string{}
	}
	writeJSON(w, http.StatusOK, meResponse{
		ID:          sub.User.ID,
		Username:    sub.User.Username,
		Role:        sub.Role.Slug,
		Permissions: perms,
	})
}
