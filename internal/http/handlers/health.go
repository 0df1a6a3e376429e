package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/dropDatabas3/pressgate/internal/cache"
	httperrors "github.com/dropDatabas3/pressgate/internal/http/errors"
	"github.com/dropDatabas3/pressgate/internal/observability/logger"
)

// HealthController expone liveness, readiness y las claves públicas (JWKS).
type HealthController struct {
	// Ready chequea las dependencias (DB, cache). nil = siempre listo.
	Ready func(ctx context.Context) error
	// Cache, si está presente, agrega sus stats a la respuesta de readiness.
	Cache cache.Client
	// JWKS es el documento JSON con la clave pública de firma.
	JWKS []byte
}

type readyResponse struct {
	Status string       `json:"status"`
	Cache  *cacheStatus `json:"cache,omitempty"`
}

type cacheStatus struct {
	Driver     string `json:"driver"`
	Keys       int64  `json:"keys"`
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
	UsedMemory string `json:"used_memory,omitempty"`
}

// Healthz maneja GET /healthz (liveness).
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz maneja GET /readyz (readiness).
func (c *HealthController) Readyz(w http.ResponseWriter, r *http.Request) {
	if c.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := c.Ready(ctx); err != nil {
			logger.From(r.Context()).Warn("readiness check failed", logger.Err(err))
			httperrors.WriteError(w, httperrors.ErrServiceUnavailable.WithCause(err))
			return
		}
	}
	resp := readyResponse{Status: "ready"}
	if c.Cache != nil {
		// Las stats son informativas: si fallan, readiness sigue siendo ok.
		if st, err := c.Cache.Stats(r.Context()); err == nil {
			resp.Cache = &cacheStatus{
				Driver:     st.Driver,
				Keys:       st.Keys,
				Hits:       st.Hits,
				Misses:     st.Misses,
				UsedMemory: st.UsedMemory,
			}
		} else {
			logger.From(r.Context()).Debug("cache stats unavailable", logger.Err(err))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Keys maneja GET /.well-known/jwks.json
func (c *HealthController) Keys(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(c.JWKS)
}
