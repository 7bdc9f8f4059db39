package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"metabarcoding-web/internal/config"
	"metabarcoding-web/internal/database"
	"metabarcoding-web/internal/handler"
	"metabarcoding-web/internal/middleware"
	"metabarcoding-web/internal/repository"
	"metabarcoding-web/internal/router"
	"metabarcoding-web/internal/service"
	"metabarcoding-web/internal/storage"
	"metabarcoding-web/internal/token"
)

type App struct {
	server *http.Server
	db     *database.DB
}

func New(cfg *config.Config) (*App, error) {
	uploads, err := storage.NewUploads(cfg.UploadsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize uploads storage: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	jobRepo := repository.NewJobRepository(pool)
	slog.Info("database ready")

	codec, err := token.NewCodec(cfg.JWTSecret, cfg.JWTAlgorithm)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize token codec: %w", err)
	}
	blacklist := token.NewBlacklist(codec, cfg.TokenTTL)

	authService := service.NewAuthService(userRepo, codec, blacklist, cfg.TokenTTL)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	authHandler := handler.NewAuthHandler(authService)

	analysisService := service.NewAnalysisService(jobRepo, uploads)
	analysisHandler := handler.NewAnalysisHandler(analysisService, cfg.MaxUploadSize)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:     authHandler,
		Analysis: analysisHandler,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, db: db}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.db.Close()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.db.Close()
	slog.Info("server stopped")
	return nil
}
