package bootstrap

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/balancedesk/config"
	httpx "github.com/target/balancedesk/internal/http"
)

func TestErrorChannelCapacity(t *testing.T) {
	tests := []struct {
		name  string
		modes []config.ServiceMode
		want  int
	}{
		{
			name: "no services enabled",
			want: 0,
		},
		{
			name:  "http runs the server and the job runner",
			modes: []config.ServiceMode{config.ServiceModeHTTP},
			want:  2,
		},
		{
			name:  "reaper only",
			modes: []config.ServiceMode{config.ServiceModeReaper},
			want:  1,
		},
		{
			name:  "all services enabled",
			modes: config.ValidServiceModes(),
			want:  3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enabled := make(map[config.ServiceMode]bool, len(tt.modes))
			for _, mode := range tt.modes {
				enabled[mode] = true
			}

			assert.Equal(t, tt.want, errorChannelCapacity(enabled))
			assert.Equal(t, tt.want+1, errorChannelBufferSize(enabled))
		})
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func memoryConfig(t *testing.T, services string) *config.AppConfig {
	t.Helper()
	cfg := &config.AppConfig{Services: services}
	cfg.Jobs.Backend = config.JobStoreMemory
	cfg.Artifacts.Backend = config.ArtifactLocal
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Sanitize()
	return cfg
}

func TestNewServices_ReaperOnly(t *testing.T) {
	cfg := memoryConfig(t, "reaper")

	c, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: testLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, c.Close()) })

	assert.NotNil(t, c.Jobs)
	assert.NotNil(t, c.Reaper)
	assert.Nil(t, c.Runner)
	assert.Nil(t, c.Validation)
	assert.Contains(t, c.HealthChecks, "job_store")

	report, err := c.Reaper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, report.Skipped)
}

func TestNewServices_Errors(t *testing.T) {
	t.Run("http without database", func(t *testing.T) {
		_, err := NewServices(context.Background(), &ServiceDeps{Config: memoryConfig(t, "http"), Logger: testLogger()})
		require.ErrorContains(t, err, "database is required")
	})

	t.Run("redis backend without client", func(t *testing.T) {
		cfg := memoryConfig(t, "reaper")
		cfg.Jobs.Backend = config.JobStoreRedis
		_, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: testLogger()})
		require.ErrorContains(t, err, "redis client is required")
	})

	t.Run("missing config", func(t *testing.T) {
		_, err := NewServices(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestBuildHTTPHandler_Middleware(t *testing.T) {
	cfg := memoryConfig(t, "reaper")
	c, err := NewServices(context.Background(), &ServiceDeps{Config: cfg, Logger: testLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	handler := buildHTTPHandler(httpHandlerConfig{
		Logger:   testLogger(),
		Services: routerServices(c, cfg, testLogger()),
		HTTP:     config.HTTPConfig{CompressionEnabled: true, CompressionLevel: 5},
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(httpx.RequestIDHeader))
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestShutdownHTTPServer_NilServer(t *testing.T) {
	assert.NoError(t, ShutdownHTTPServer(ShutdownConfig{}))
}
