package handlers

import (
	"log/slog"
	"net/http"

	"chodewars-server/internal/game"
	"chodewars-server/internal/shared/response"
)

type AdminHandler struct {
	service *game.Service
	logger  *slog.Logger
}

func NewAdminHandler(service *game.Service, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With("component", "admin_handler"),
	}
}

// Reset wipes the universe and recreates the configured clusters.
func (h *AdminHandler) Reset(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "reset_universe")

	if err := h.service.ResetUniverse(r.Context()); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, map[string]string{"message": "universe reset"})
}

// Bootstrap creates configured clusters that are missing.
func (h *AdminHandler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "bootstrap")

	created, err := h.service.Bootstrap(r.Context())
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, toEntityResponses(created))
}
