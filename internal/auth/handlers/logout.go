package handlers

import (
	"net/http"

	"chodewars-server/internal/shared/config"
	"chodewars-server/internal/shared/cookies"
	"chodewars-server/internal/shared/response"
)

// Logout clears the session cookie.
func Logout(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookies.ClearAuthCookie(w, cfg)
		response.Success(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}
