package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"projecthub-api/internal/auth"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds every setting the server reads from the environment.
type Config struct {
	Env  string
	Port string

	DBDriver    string // "sqlite" or "postgres"
	DatabaseURL string

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	JWTTTL      time.Duration

	// RedisURL switches token revocation to Redis when set.
	RedisURL string

	AvatarDir      string
	AvatarMaxBytes int64
	PublicBaseURL  string

	SendgridAPIKey string
	MailFrom       string

	LogLevel    string
	CORSOrigins []string
}

// Load reads a .env file outside production and then the process environment.
func Load() Config {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil {
			log.Debug().Msg("no .env file found, using process environment")
		}
	}

	return Config{
		Env:            getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8008"),
		DBDriver:       strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DatabaseURL:    getEnv("DATABASE_URL", "projecthub.db"),
		JWTSecret:      getEnv("JWT_SECRET", auth.DefaultSettings.Secret),
		JWTIssuer:      getEnv("JWT_ISSUER", auth.DefaultSettings.Issuer),
		JWTAudience:    getEnv("JWT_AUDIENCE", auth.DefaultSettings.Audience),
		JWTTTL:         getDuration("JWT_TTL", auth.DefaultSettings.TTL),
		RedisURL:       os.Getenv("REDIS_URL"),
		AvatarDir:      getEnv("AVATAR_DIR", "data/avatars"),
		AvatarMaxBytes: getInt64("AVATAR_MAX_BYTES", 2<<20),
		PublicBaseURL:  strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8008"), "/"),
		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getEnv("MAIL_FROM", "noreply@projecthub.local"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		CORSOrigins:    splitList(getEnv("CORS_ORIGINS", "*")),
	}
}

// IsProduction reports whether APP_ENV is production.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func getInt64(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Msg("invalid integer, using default")
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
