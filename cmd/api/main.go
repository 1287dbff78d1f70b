package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"

	"github.com/lof/customer-profile/internal/api"
	"github.com/lof/customer-profile/internal/core/service"
	mongodb "github.com/lof/customer-profile/internal/infrastructure/db/mongo"
	redisdb "github.com/lof/customer-profile/internal/infrastructure/db/redis"
	"github.com/lof/customer-profile/internal/infrastructure/http/handlers"
	"github.com/lof/customer-profile/internal/infrastructure/media"
	"github.com/lof/customer-profile/internal/infrastructure/queue"
	"github.com/lof/customer-profile/internal/pkg/config"
	"github.com/lof/customer-profile/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title                       Customer Profile API
// @version                     1.0
// @description                 Customer accounts, profile pictures and the customer GraphQL endpoint.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg := config.MustLoad(".env")
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "customer-profile-api",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongodb")
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// --- Repositories ---
	customers := mongodb.NewCustomerRepository(db)
	attributes := mongodb.NewAttributeRepository(db)
	if err := mongodb.EnsureIndexes(ctx, customers, attributes); err != nil {
		log.Fatal().Err(err).Msg("failed to create indexes")
	}

	// --- Media ---
	mediaDir := media.NewDirectory(afero.NewOsFs(), cfg.Media.Root)
	storage := queue.NewMirrorDispatcher(
		mongodb.NewMediaStorage(db, cfg.Media.GridFSBucket, mediaDir),
		cfg.Media.MirrorWorkers,
		logger.Component("media_mirror"),
	)
	storage.Start()

	// --- Services ---
	avatarBackend := service.NewAvatarBackend(media.NewImageValidator(mediaDir.Fs(), logger.Component("image_validator")), logger.Component("avatar_backend"))
	customerService := service.NewCustomerService(customers, attributes, mediaDir, storage, logger.Component("customers"), avatarBackend)
	avatarService := service.NewAvatarService(mediaDir, storage, customers, service.AvatarConfig{
		BaseURL:        cfg.Media.BaseURL,
		PlaceholderURL: cfg.Media.PlaceholderURL,
	}, logger.Component("avatars"))
	authService := service.NewAuthService(customers, redisdb.NewSessionStore(rdb), cfg.JWTSecret, cfg.SessionTTL, logger.Component("auth"))

	e, err := api.NewRouter(api.Dependencies{
		Auth:      authService,
		Customers: customerService,
		Avatars:   avatarService,
		HealthChecks: map[string]handlers.Check{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"media":   func(context.Context) error { return mediaDir.Writable() },
		},
		Log: log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if err := storage.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("media mirror did not drain")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect")
	}
}
