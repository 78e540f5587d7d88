package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dancras/tv-quiz-party/internal/auth"
	"github.com/dancras/tv-quiz-party/internal/config"
	"github.com/dancras/tv-quiz-party/internal/httpapi"
	"github.com/dancras/tv-quiz-party/internal/hub"
	"github.com/dancras/tv-quiz-party/internal/lobby"
	"github.com/dancras/tv-quiz-party/internal/profile"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		// Tokens then only survive this process, which matches the rest of
		// the lobby state.
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			logger.Fatal("generate token secret", zap.Error(err))
		}
		logger.Warn("JWT_SECRET not set, using an ephemeral secret")
	}

	var profiles profile.Store = profile.NewMemoryStore()
	if cfg.DatabaseURL != "" {
		store, err := profile.OpenGormStore(cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("open profile database", zap.Error(err))
		}
		profiles = store
		logger.Info("profiles persisted to postgres")
	}

	if err := os.MkdirAll(cfg.ProfileImagesDir, 0o755); err != nil {
		logger.Fatal("create profile images dir", zap.Error(err))
	}

	api := httpapi.New(
		cfg,
		auth.NewService(secret),
		profiles,
		lobby.NewStore(),
		hub.New(logger.Named("hub")),
		logger,
	)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: httpapi.SetupRoutes(api),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	if cfg.DevLog {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
