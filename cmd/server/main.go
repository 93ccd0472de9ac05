package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"projecthub-api/internal/auth"
	"projecthub-api/internal/cache"
	"projecthub-api/internal/config"
	"projecthub-api/internal/database"
	"projecthub-api/internal/handlers"
	"projecthub-api/internal/logging"
	"projecthub-api/internal/mailer"
	"projecthub-api/internal/routes"
	"projecthub-api/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm/logger"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.IsProduction())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	auth.Configure(auth.Settings{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	gormLevel := logger.Warn
	if cfg.LogLevel == "debug" {
		gormLevel = logger.Info
	}
	if err := database.InitDB(database.Options{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DatabaseURL,
		LogLevel: gormLevel,
	}); err != nil {
		log.Fatal().Err(err).Msg("failed to initialise database")
	}
	defer database.Close()

	// Signed-out tokens: Redis when configured so every instance agrees
	if cfg.RedisURL != "" {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisURL, "projecthub:")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer rdb.Close()
		auth.SetRevocationStore(rdb)
		log.Info().Msg("token revocation backed by redis")
	} else {
		mem := cache.NewMemory()
		mem.StartJanitor(ctx, time.Minute)
		auth.SetRevocationStore(mem)
	}

	bucket, err := storage.NewDiskBucket(cfg.AvatarDir, cfg.AvatarMaxBytes)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare avatar storage")
	}
	storage.SetDefault(bucket)

	mailer.SetDefault(mailer.New(cfg.SendgridAPIKey, cfg.MailFrom))
	if cfg.SendgridAPIKey == "" {
		log.Warn().Msg("SENDGRID_API_KEY not set, invitation emails are only logged")
	}
	handlers.SetPublicBaseURL(cfg.PublicBaseURL)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "Accept", "Origin", "Cache-Control", "X-Requested-With"},
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(routes.SetupRoutes()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server")
	}
	log.Info().Msg("server stopped")
}
