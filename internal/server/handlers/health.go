package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"chodewars-server/internal/shared/response"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Store     string `json:"store"`
}

// StoreProbe reports whether the record store is reachable and initialized.
type StoreProbe interface {
	Exists(ctx context.Context) (bool, error)
}

type HealthHandler struct {
	store  StoreProbe
	logger *slog.Logger
	now    func() time.Time
}

func NewHealthHandler(store StoreProbe, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		logger: logger.With("handler", "health"),
		now:    time.Now,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, storeStatus, code := "healthy", "connected", http.StatusOK
	exists, err := h.store.Exists(ctx)
	switch {
	case err != nil:
		h.logger.Warn("Store probe failed", "error", err)
		status, storeStatus, code = "degraded", "disconnected", http.StatusServiceUnavailable
	case !exists:
		status, storeStatus, code = "degraded", "uninitialized", http.StatusServiceUnavailable
	}

	response.Success(w, code, HealthResponse{
		Status:    status,
		Timestamp: h.now().Format(time.RFC3339),
		Store:     storeStatus,
	})
}
