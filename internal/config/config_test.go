package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_URL", "user:pass@tcp(localhost:3306)/stores?parseTime=true")
	t.Setenv("JWT_SECRET", "test-secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, _, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.RedisEnabled())
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_EXPIRY", "2h")

	cfg, _, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DB_URL", "")
	t.Setenv("JWT_SECRET", "")

	_, _, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bcrypt cost too low", map[string]string{"BCRYPT_COST": "2"}},
		{"zero jwt expiry", map[string]string{"JWT_EXPIRY": "0s"}},
		{"short secret in production", map[string]string{"APP_ENV": "production"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, _, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
