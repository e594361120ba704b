package handlers

import (
	"net/http"

	"github.com/agrispine/server/pkg"
)

// HealthHandler, liveness endpoint'i.
type HealthHandler struct {
	backend     string
	connections func() int
}

// NewHealthHandler: connections, açık WebSocket bağlantı sayısını verir.
func NewHealthHandler(backend string, connections func() int) *HealthHandler {
	return &HealthHandler{backend: backend, connections: connections}
}

// Check godoc
// GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"store":       h.backend,
		"connections": h.connections(),
	})
}
