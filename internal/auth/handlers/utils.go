package handlers

import (
	"fmt"
	"net/http"
	"net/url"
)

// redirectWithError redirects to frontend with error parameters
func (h *OAuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, errorType, message string) {
	errorURL := fmt.Sprintf("%s/auth/error?error=%s&message=%s",
		h.config.Frontend.URL, url.QueryEscape(errorType), url.QueryEscape(message))

	http.Redirect(w, r, errorURL, http.StatusTemporaryRedirect)
}
