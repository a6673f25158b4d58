package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		wantError string
		check     func(t *testing.T, cfg *Config)
	}{
		{
			name: "Defaults",
			env:  map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "development", cfg.Env)
				assert.Equal(t, "sqlite3", cfg.DBDriver)
				assert.Equal(t, "./data/property-desk.db", cfg.DBDSN)
				assert.Equal(t, "warn", cfg.LogLevel)
				assert.False(t, cfg.IsProduction())
			},
		},
		{
			name: "Postgres in production",
			env: map[string]string{
				"ENV":       "production",
				"DB_DRIVER": "pgx",
				"DB_DSN":    "postgres://desk@localhost/desk",
				"LOG_LEVEL": "info",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "pgx", cfg.DBDriver)
				assert.True(t, cfg.IsProduction())
			},
		},
		{
			name:      "Unknown driver",
			env:       map[string]string{"DB_DRIVER": "oracle"},
			wantError: "DB_DRIVER must be one of",
		},
		{
			name:      "Unknown log level",
			env:       map[string]string{"LOG_LEVEL": "loud"},
			wantError: "LOG_LEVEL must be one of",
		},
	}

	keys := []string{"ENV", "DB_DRIVER", "DB_DSN", "LOG_LEVEL", "LOG_FILE", "MENU_LAYOUT", "METRICS_FILE"}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range keys {
				t.Setenv(k, tt.env[k])
			}
			AppConfig = nil

			err := Load()

			if tt.wantError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
				assert.Nil(t, AppConfig)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, AppConfig)
			tt.check(t, AppConfig)
		})
	}
}
