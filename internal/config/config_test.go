package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvVars = []string{
	"TICKETDASH_SERVER_PORT", "TICKETDASH_SERVER_READ_TIMEOUT",
	"TICKETDASH_SECURITY_ALLOWED_ORIGINS", "TICKETDASH_SECURITY_ENABLE_CORS",
	"TICKETDASH_LOGGING_LEVEL", "TICKETDASH_LOGGING_FORMAT", "TICKETDASH_LOGGING_OUTPUT",
	"TICKETDASH_STORE_BACKEND", "TICKETDASH_STORE_TTL", "TICKETDASH_STORE_REDIS_ADDR",
	"TICKETDASH_UPLOAD_MAX_BYTES", "TICKETDASH_OBSERVABILITY_TRACE_EXPORTER",
	"TICKETDASH_DASHBOARD_DEFAULT_DATA_FILE",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		// t.Setenv restores the original value after the test
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		yaml        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no env vars",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, 30*time.Second, cfg.Server.WriteTimeout)
				assert.Equal(t, []string{"http://localhost:8080"}, cfg.Security.AllowedOrigins)
				assert.True(t, cfg.Security.RateLimit.Enabled)
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, int64(33554432), cfg.Upload.MaxBytes)
				assert.Equal(t, []string{".xlsx", ".xlsm", ".csv"}, cfg.Upload.AllowedExtensions)
				assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
				assert.Equal(t, 2*time.Hour, cfg.Store.TTL)
				assert.Equal(t, "ticketdash:dataset:", cfg.Store.KeyPrefix)
				assert.Equal(t, "none", cfg.Observability.TraceExporter)
				assert.Equal(t, "data.xlsx", cfg.Dashboard.DefaultDataFile)
				assert.Equal(t, 500, cfg.Dashboard.PreviewRows)
			},
		},
		{
			name: "environment overrides",
			env: map[string]string{
				"TICKETDASH_SERVER_PORT":              "9090",
				"TICKETDASH_SECURITY_ALLOWED_ORIGINS": "http://a.example,https://b.example",
				"TICKETDASH_LOGGING_LEVEL":            "debug",
				"TICKETDASH_LOGGING_FORMAT":           "text",
				"TICKETDASH_STORE_BACKEND":            "REDIS",
				"TICKETDASH_STORE_REDIS_ADDR":         "redis:6380",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, []string{"http://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "json", cfg.Logging.Format, "format is always forced to json")
				assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
				assert.Equal(t, "redis:6380", cfg.Store.RedisAddr)
			},
		},
		{
			name: "yaml file fills values not set in env",
			env:  map[string]string{"TICKETDASH_SERVER_PORT": "7070"},
			yaml: "server:\n  port: 9999\n  host: 127.0.0.1\nstore:\n  ttl: 30m\nlogging:\n  level: warn\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port, "env wins over file")
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 30*time.Minute, cfg.Store.TTL)
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, "127.0.0.1:7070", cfg.Addr())
			},
		},
		{
			name:    "invalid port",
			env:     map[string]string{"TICKETDASH_SERVER_PORT": "99999"},
			wantErr: true,
		},
		{
			name:    "unknown store backend",
			env:     map[string]string{"TICKETDASH_STORE_BACKEND": "postgres"},
			wantErr: true,
		},
		{
			name:    "unknown trace exporter",
			env:     map[string]string{"TICKETDASH_OBSERVABILITY_TRACE_EXPORTER": "jaeger"},
			wantErr: true,
		},
		{
			name:    "non numeric upload limit",
			env:     map[string]string{"TICKETDASH_UPLOAD_MAX_BYTES": "lots"},
			wantErr: true,
		},
		{
			name: "unknown log output falls back to console",
			env:  map[string]string{"TICKETDASH_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "console", cfg.Logging.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			configFile := ""
			if tt.yaml != "" {
				configFile = filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(configFile, []byte(tt.yaml), 0o644))
			}

			cfg, err := LoadFrom(configFile)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoadFrom_MalformedYAML(t *testing.T) {
	clearConfigEnv(t)
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server: [unterminated"), 0o644))

	_, err := LoadFrom(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config from file")
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.validate())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, DefaultDataFile, cfg.Dashboard.DefaultDataFile)
}
