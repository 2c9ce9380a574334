package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type fixedSessions int

func (f fixedSessions) SessionCount() int { return int(f) }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService("1.2.3", nil, nil, discardLogger())

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus string
		wantStore  string
	}{
		{"store reachable", nil, "ready", "ready"},
		{"store down", errors.New("connection refused"), "not_ready", "not_ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := new(MockStore)
			st.On("Ping", mock.Anything).Return(tt.pingErr)

			hs := NewHealthService("1.0.0", st, fixedSessions(3), discardLogger())
			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantStore, status.Services["store"].Status)
			assert.Equal(t, "3 live sessions", status.Services["websocket"].Message)
			st.AssertExpectations(t)
		})
	}
}

func TestHealthService_ReadinessWithoutStore(t *testing.T) {
	hs := NewHealthService("1.0.0", nil, nil, discardLogger())
	assert.Equal(t, "not_ready", hs.ReadinessCheck(context.Background()).Status)
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService("1.0.0", nil, nil, nil)

	live := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "1.0.0", v["version"])
	assert.Equal(t, "v1", v["api_version"])
	assert.Contains(t, v, "go_version")
}
