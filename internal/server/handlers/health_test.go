package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type probe struct {
	exists bool
	err    error
}

func (p probe) Exists(ctx context.Context) (bool, error) {
	return p.exists, p.err
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name  string
		probe probe
		code  int
		store string
	}{
		{"connected", probe{exists: true}, http.StatusOK, "connected"},
		{"uninitialized", probe{}, http.StatusServiceUnavailable, "uninitialized"},
		{"down", probe{err: fmt.Errorf("dial tcp: refused")}, http.StatusServiceUnavailable, "disconnected"},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewHealthHandler(tt.probe, logger).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/server/health", nil))

			assert.Equal(t, tt.code, w.Code)
			var body HealthResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.store, body.Store)
		})
	}
}
