// Package handlers contiene los controllers HTTP de la API.
//
// Cada controller recibe sus dependencias por constructor y traduce los
// sentinels del dominio (core.ErrNotFound, core.ErrProtectedRole, ...) a
// los AppError del paquete errors.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	httperrors "github.com/dropDatabas3/pressgate/internal/http/errors"
	"github.com/dropDatabas3/pressgate/internal/store/core"
)

const (
	maxBodySize     = 64 * 1024 // 64KB
	contentTypeJSON = "application/json; charset=utf-8"
)

// writeJSON serializa v con el status indicado.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON parsea el body (limitado a maxBodySize) en dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return httperrors.ErrBodyTooLarge
		}
		return httperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// mapStoreError traduce los sentinels del store al contrato de errores HTTP.
func mapStoreError(err error) *httperrors.AppError {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return httperrors.ErrNotFound
	case errors.Is(err, core.ErrConflict):
		return httperrors.ErrUsernameTaken
	case errors.Is(err, core.ErrProtectedRole):
		return httperrors.ErrProtectedRole
	case errors.Is(err, core.ErrInvalid):
		return httperrors.ErrBadRequest.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
