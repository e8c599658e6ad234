package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/practice-platform/internal/handler"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		db       handler.Pinger
		status   int
		database string
	}{
		{"connected", pingFunc(func(context.Context) error { return nil }), http.StatusOK, handler.DatabaseConnected},
		{"ping fails", pingFunc(func(context.Context) error { return errors.New("connection refused") }), http.StatusServiceUnavailable, handler.DatabaseError},
		{"no database", nil, http.StatusServiceUnavailable, handler.DatabaseDisconnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.db, "1.2.3", testLogger())
			rr := httptest.NewRecorder()
			h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.status, rr.Code)
			var resp handler.HealthResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.Equal(t, tt.database, resp.Database)
			assert.Equal(t, "1.2.3", resp.Version)
			assert.False(t, resp.Timestamp.IsZero())
			assert.NotContains(t, rr.Body.String(), "connection refused")
		})
	}
}
