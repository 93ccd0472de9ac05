package config

import (
	"testing"
	"time"

	"projecthub-api/internal/auth"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_TTL", "")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("CORS_ORIGINS", "")

	cfg := Load()
	require.True(t, cfg.IsProduction())
	require.Equal(t, "8008", cfg.Port)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, auth.DefaultSettings.Issuer, cfg.JWTIssuer)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("AVATAR_MAX_BYTES", "1024")
	t.Setenv("PUBLIC_BASE_URL", "https://hub.example.com/")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, 2*time.Hour, cfg.JWTTTL)
	require.Equal(t, int64(1024), cfg.AvatarMaxBytes)
	require.Equal(t, "https://hub.example.com", cfg.PublicBaseURL)
	require.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_TTL", "soon")
	t.Setenv("AVATAR_MAX_BYTES", "-5")

	cfg := Load()
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, int64(2<<20), cfg.AvatarMaxBytes)
}
