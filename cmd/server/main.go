package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/db"
	"studybuddy/backend/internal/deck"
	"studybuddy/backend/internal/handler"
	"studybuddy/backend/internal/logger"
	"studybuddy/backend/internal/model"
	"studybuddy/backend/internal/repository"
	"studybuddy/backend/internal/router"
	"studybuddy/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer database.Close()

	if err := db.RunMigrations(database, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	seedCards, err := loadSeedCards(cfg)
	if err != nil {
		return err
	}

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewStudySessionRepository(database)

	studyService := service.NewStudyService(sessionRepo, service.StudyOptions{
		SeedCards: seedCards,
		Logger:    log,
	})
	defer studyService.Close()
	authService := service.NewAuthService(userRepo, studyService, cfg.JWTSecret, cfg.TokenTTL)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.New(authService, router.Handlers{
		Auth:  handler.NewAuthHandler(authService),
		Deck:  handler.NewDeckHandler(studyService),
		Timer: handler.NewTimerHandler(studyService),
	}, cfg.CORSOrigins, log)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("backend listening", "addr", server.Addr, "db_path", cfg.DBPath, "cards", len(seedCards))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// loadSeedCards picks the cards every new workspace starts with: the seed
// file when configured, otherwise the built-in samples unless disabled.
func loadSeedCards(cfg config.Config) ([]model.Flashcard, error) {
	if cfg.DeckSeedFile != "" {
		cards, err := deck.LoadCardsFile(cfg.DeckSeedFile)
		if err != nil {
			return nil, fmt.Errorf("load deck seed file: %w", err)
		}
		return cards, nil
	}
	if cfg.SeedSampleCards {
		return model.SampleFlashcards(), nil
	}
	return nil, nil
}
