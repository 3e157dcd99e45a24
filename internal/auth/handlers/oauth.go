package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"chodewars-server/internal/auth"
	"chodewars-server/internal/auth/providers"
	"chodewars-server/internal/entity"
	"chodewars-server/internal/shared/config"
	"chodewars-server/internal/shared/cookies"
	"chodewars-server/internal/shared/errors"
	"chodewars-server/internal/shared/response"
)

// PlayerRegistry finds or creates the player record for a signed-in user.
type PlayerRegistry interface {
	CreatePlayer(ctx context.Context, playerID, name string) (*entity.Entity, error)
}

type OAuthHandler struct {
	provider     providers.OAuthProvider
	players      PlayerRegistry
	tokens       *auth.TokenIssuer
	states       *auth.StateManager
	config       *config.Config
	isConfigured bool
	logger       *slog.Logger
}

func NewOAuthHandler(
	provider providers.OAuthProvider,
	players PlayerRegistry,
	tokens *auth.TokenIssuer,
	states *auth.StateManager,
	cfg *config.Config,
	isConfigured bool,
	logger *slog.Logger,
) *OAuthHandler {
	return &OAuthHandler{
		provider:     provider,
		players:      players,
		tokens:       tokens,
		states:       states,
		config:       cfg,
		isConfigured: isConfigured,
		logger:       logger.With("component", provider.Name()+"_oauth"),
	}
}

func (h *OAuthHandler) HandleAuth(w http.ResponseWriter, r *http.Request) {
	name := h.provider.Name()
	logger := h.logger.With("handler", name+"_oauth_init")

	if !h.isConfigured {
		response.Error(w, r, logger, errors.External(fmt.Sprintf("%s OAuth is not properly configured", name)))
		return
	}

	state, err := h.states.GenerateState(name, r.UserAgent())
	if err != nil {
		response.Error(w, r, logger, errors.WrapInternal("failed to initialize OAuth flow", err))
		return
	}

	http.Redirect(w, r, h.provider.GetAuthURL(state), http.StatusTemporaryRedirect)
}

func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	name := h.provider.Name()
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")

	logger := h.logger.With(
		"handler", name+"_oauth_callback",
		"user_agent", r.UserAgent(),
		"ip", r.RemoteAddr,
		"has_code", code != "",
		"has_state", state != "",
	)

	if errorParam := query.Get("error"); errorParam != "" {
		logger.Warn("OAuth authorization denied",
			"oauth_error", errorParam,
			"error_description", query.Get("error_description"))
		h.redirectWithError(w, r, "oauth_denied", "Authorization was denied")
		return
	}

	if err := h.states.ValidateState(state, name, r.UserAgent()); err != nil {
		logger.Warn("OAuth state validation failed", "error", err)
		h.redirectWithError(w, r, "invalid_state", "Login session expired, please try again")
		return
	}

	if code == "" {
		logger.Error("OAuth callback missing authorization code")
		h.redirectWithError(w, r, "oauth_error", "Missing authorization code")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	token, err := h.provider.ExchangeCode(ctx, code)
	if err != nil {
		logger.Error("Failed to exchange authorization code", "error", err)
		h.redirectWithError(w, r, "oauth_error", "Could not complete sign in")
		return
	}

	userInfo, err := h.provider.GetUserInfo(ctx, token)
	if err != nil {
		logger.Error("Failed to get user info", "error", err)
		h.redirectWithError(w, r, "oauth_error", "Could not read account details")
		return
	}

	userLogger := logger.With("user_email", userInfo.Email, "provider_user_id", userInfo.ID)

	if userInfo.Email == "" || !userInfo.EmailVerified {
		userLogger.Error("User missing verified email")
		h.redirectWithError(w, r, "oauth_error", "A verified email is required")
		return
	}

	playerID := strings.ToLower(userInfo.Email)
	displayName := userInfo.Name
	if displayName == "" {
		displayName = playerID
	}

	player, err := h.players.CreatePlayer(ctx, playerID, displayName)
	if err != nil {
		userLogger.Error("Failed to create player", "error", err)
		h.redirectWithError(w, r, "storage_error", "Could not load your player")
		return
	}

	role := auth.RolePlayer
	if h.config.IsAdmin(playerID) {
		role = auth.RoleAdmin
	}

	jwtToken, err := h.tokens.Generate(player.ID, player.Name, role)
	if err != nil {
		userLogger.Error("Failed to generate JWT token", "error", err)
		h.redirectWithError(w, r, "auth_error", "Could not start a session")
		return
	}

	cookies.SetAuthCookie(w, h.config, jwtToken)

	userLogger.Info("OAuth authentication successful",
		"player_id", player.ID,
		"player_role", role)

	successURL := fmt.Sprintf("%s/auth/callback?success=true", h.config.Frontend.URL)
	http.Redirect(w, r, successURL, http.StatusTemporaryRedirect)
}
