package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"chodewars-server/internal/auth"
	"chodewars-server/internal/auth/providers"
	"chodewars-server/internal/entity"
	"chodewars-server/internal/shared/config"
	"chodewars-server/internal/shared/cookies"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeProvider struct {
	user        *providers.OAuthUser
	exchangeErr error
}

func (p *fakeProvider) Name() string { return "google" }

func (p *fakeProvider) GetAuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + url.QueryEscape(state)
}

func (p *fakeProvider) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "access"}, nil
}

func (p *fakeProvider) GetUserInfo(ctx context.Context, token *oauth2.Token) (*providers.OAuthUser, error) {
	return p.user, nil
}

type fakeRegistry struct {
	created map[string]string
}

func (r *fakeRegistry) CreatePlayer(ctx context.Context, playerID, name string) (*entity.Entity, error) {
	if r.created == nil {
		r.created = make(map[string]string)
	}
	r.created[playerID] = name
	return entity.NewPlayer(playerID, name), nil
}

type fixture struct {
	handler  *OAuthHandler
	provider *fakeProvider
	players  *fakeRegistry
	tokens   *auth.TokenIssuer
	states   *auth.StateManager
}

func setup(t *testing.T, configured bool) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := &config.Config{
		Auth:     config.AuthConfig{TokenExpiration: time.Hour, CookieSameSite: "lax"},
		Frontend: config.FrontendConfig{URL: "http://localhost:3000"},
		Admin:    config.AdminConfig{Emails: []string{"admiral@example.com"}},
	}

	tokens, err := auth.NewTokenIssuer(strings.Repeat("s", 32), time.Hour)
	require.NoError(t, err)

	f := &fixture{
		provider: &fakeProvider{user: &providers.OAuthUser{
			ID: "1", Email: "Pilot@Example.com", EmailVerified: true, Name: "Pilot",
		}},
		players: &fakeRegistry{},
		tokens:  tokens,
		states:  auth.NewStateManager(logger),
	}
	f.handler = NewOAuthHandler(f.provider, f.players, tokens, f.states, cfg, configured, logger)
	return f
}

func (f *fixture) callback(t *testing.T, query string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil)
	w := httptest.NewRecorder()
	f.handler.HandleCallback(w, r)
	return w
}

func (f *fixture) validState(t *testing.T) string {
	t.Helper()
	state, err := f.states.GenerateState("google", "")
	require.NoError(t, err)
	return url.QueryEscape(state)
}

func TestHandleAuthRedirectsWithState(t *testing.T) {
	f := setup(t, true)

	w := httptest.NewRecorder()
	f.handler.HandleAuth(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "https://accounts.example.com/auth?state=")
	assert.Equal(t, 1, f.states.Len())
}

func TestHandleAuthUnconfigured(t *testing.T) {
	f := setup(t, false)

	w := httptest.NewRecorder()
	f.handler.HandleAuth(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCallbackCreatesPlayerAndSetsCookie(t *testing.T) {
	f := setup(t, true)

	w := f.callback(t, "code=abc&state="+f.validState(t))

	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "http://localhost:3000/auth/callback?success=true", w.Header().Get("Location"))
	assert.Equal(t, "Pilot", f.players.created["pilot@example.com"])

	var token string
	for _, c := range w.Result().Cookies() {
		if c.Name == cookies.AuthCookieName {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	claims, err := f.tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "pilot@example.com", claims.PlayerID)
	assert.Equal(t, auth.RolePlayer, claims.Role)
}

func TestCallbackGrantsAdminRole(t *testing.T) {
	f := setup(t, true)
	f.provider.user.Email = "admiral@example.com"

	w := f.callback(t, "code=abc&state="+f.validState(t))

	cookie := w.Result().Cookies()[0]
	claims, err := f.tokens.Validate(cookie.Value)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
}

func TestCallbackFailures(t *testing.T) {
	tests := []struct {
		name      string
		prepare   func(f *fixture) string
		errorType string
	}{
		{
			name:      "provider error",
			prepare:   func(f *fixture) string { return "error=access_denied" },
			errorType: "oauth_denied",
		},
		{
			name:      "unknown state",
			prepare:   func(f *fixture) string { return "code=abc&state=forged" },
			errorType: "invalid_state",
		},
		{
			name: "missing code",
			prepare: func(f *fixture) string {
				s, _ := f.states.GenerateState("google", "")
				return "state=" + url.QueryEscape(s)
			},
			errorType: "oauth_error",
		},
		{
			name: "exchange failure",
			prepare: func(f *fixture) string {
				f.provider.exchangeErr = fmt.Errorf("boom")
				s, _ := f.states.GenerateState("google", "")
				return "code=abc&state=" + url.QueryEscape(s)
			},
			errorType: "oauth_error",
		},
		{
			name: "unverified email",
			prepare: func(f *fixture) string {
				f.provider.user.EmailVerified = false
				s, _ := f.states.GenerateState("google", "")
				return "code=abc&state=" + url.QueryEscape(s)
			},
			errorType: "oauth_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, true)

			w := f.callback(t, tt.prepare(f))

			assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
			location, err := url.Parse(w.Header().Get("Location"))
			require.NoError(t, err)
			assert.Equal(t, "/auth/error", location.Path)
			assert.Equal(t, tt.errorType, location.Query().Get("error"))
			assert.Empty(t, f.players.created)
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	cfg := &config.Config{Frontend: config.FrontendConfig{URL: "http://localhost:3000"}}

	w := httptest.NewRecorder()
	Logout(cfg)(w, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Negative(t, w.Result().Cookies()[0].MaxAge)
}
