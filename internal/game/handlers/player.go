package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"chodewars-server/internal/game"
	"chodewars-server/internal/middleware"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/shared/response"
)

const maxBodyBytes = 1 << 20

// PlayerHandler serves the signed-in player's view of the game. Routes are
// wrapped in the game access middleware, which puts the player in context.
type PlayerHandler struct {
	service *game.Service
	logger  *slog.Logger
}

func NewPlayerHandler(service *game.Service, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{
		service: service,
		logger:  logger.With("component", "player_handler"),
	}
}

func (h *PlayerHandler) Me(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "me")

	player := middleware.GetPlayerFromContext(r)
	if player == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	status, err := h.service.Status(r.Context(), player.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, toStatusResponse(status))
}

func (h *PlayerHandler) AssignHome(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "assign_home")

	player := middleware.GetPlayerFromContext(r)
	if player == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	var req AssignHomeRequest
	if !decode(w, r, logger, &req) {
		return
	}

	if err := h.service.AssignHomeSector(r.Context(), player, req.PlanetName, req.ShipName); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	status, err := h.service.Status(r.Context(), player.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, toStatusResponse(status))
}

func (h *PlayerHandler) Warps(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "warps")

	player := middleware.GetPlayerFromContext(r)
	if player == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	warps, err := h.service.Warps(r.Context(), player.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, toEntityResponses(warps))
}

func (h *PlayerHandler) Move(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "move")

	player := middleware.GetPlayerFromContext(r)
	if player == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	var req MoveRequest
	if !decode(w, r, logger, &req) {
		return
	}
	if req.DestinationID == "" {
		response.Error(w, r, logger, errors.Validation("destination_id is required"))
		return
	}

	if _, err := h.service.MovePlayerShip(r.Context(), player.ID, req.DestinationID); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	status, err := h.service.Status(r.Context(), player.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, toStatusResponse(status))
}

func (h *PlayerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "transfer")

	player := middleware.GetPlayerFromContext(r)
	if player == nil {
		response.Error(w, r, logger, errors.Unauthorized("authentication required"))
		return
	}

	var req TransferRequest
	if !decode(w, r, logger, &req) {
		return
	}

	if err := h.service.TransferCargo(r.Context(), player, req.CommodityID, req.TargetID, req.Amount); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	status, err := h.service.Status(r.Context(), player.ID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, toStatusResponse(status))
}

func (h *PlayerHandler) Entity(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With("handler", "entity")

	id := r.PathValue("id")
	if id == "" {
		response.Error(w, r, logger, errors.Validation("entity ID is required"))
		return
	}

	e, children, err := h.service.Inspect(r.Context(), id)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, InspectResponse{
		Entity:   toEntityResponse(e),
		Children: toEntityResponses(children),
	})
}

func decode(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		response.Error(w, r, logger, errors.WrapValidation("invalid JSON in request body", err))
		return false
	}
	return true
}
