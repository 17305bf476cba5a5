//	@title			Media Storage API
//	@version		1.0
//	@description	Media library backed by Supabase Storage or any S3-compatible service.
//
//	@host		localhost:8080
//	@BasePath	/api/v1
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/radif/mediastore/internal/config"
	"github.com/radif/mediastore/internal/db"
	"github.com/radif/mediastore/internal/media"
	appMiddleware "github.com/radif/mediastore/internal/middleware"
	"github.com/radif/mediastore/internal/provider"
	"github.com/radif/mediastore/internal/storage"

	_ "github.com/radif/mediastore/docs/swagger"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL, logger); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	client, err := newStorageClient(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("object storage init failed", zap.Error(err))
	}

	files, err := provider.New(cfg.Provider(), client, logger.Named("provider"))
	if err != nil {
		logger.Fatal("storage provider init failed", zap.Error(err))
	}

	// Wire dependencies: repository → service → handler
	mediaRepo := media.NewRepository(pool)
	mediaSvc := media.NewService(mediaRepo, files, cfg.StorageSizeLimit, logger.Named("media"))
	mediaHandler := media.NewHandler(mediaSvc, logger.Named("media"))

	var requireAuth func(http.Handler) http.Handler
	if cfg.JWTSecret != "" {
		requireAuth = appMiddleware.RequireAuth(cfg.JWTSecret)
	} else {
		logger.Warn("JWT_SECRET is empty, write routes are unauthenticated")
	}

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(logger.Named("http")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/files", mediaHandler.Routes(requireAuth))
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.AppEnv),
			zap.String("storage", cfg.StorageDriver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
		return
	}

	logger.Info("server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	zcfg.Level = level
	return zcfg.Build()
}

func newStorageClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Client, error) {
	switch cfg.StorageDriver {
	case config.DriverSupabase:
		return storage.NewSupabaseClient(cfg.StorageAPIURL, cfg.StorageAPIKey)
	case config.DriverS3:
		c, err := storage.NewMinioClient(cfg.StorageAPIURL, cfg.StorageAccessKey, cfg.StorageSecretKey, logger.Named("s3"))
		if err != nil {
			return nil, err
		}
		if err := c.EnsureBucket(ctx, cfg.StorageBucket); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
