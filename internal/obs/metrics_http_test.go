package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthHandler(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("db down") }

	tests := []struct {
		name   string
		health HealthCheck
		want   int
	}{
		{name: "all healthy", health: JoinHealth(ok, nil, ok), want: http.StatusOK},
		{name: "one failing", health: JoinHealth(ok, down), want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HealthHandler(tt.health).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "not-a-level", App: "auth-api", Env: "test", Ver: "dev"})
	assert.NoError(t, err)
	assert.True(t, l.Core().Enabled(0))
	assert.False(t, l.Core().Enabled(-1), "debug is off when the level falls back to info")
}
