package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/worldcup-simulator/brackets"
	"github.com/Dosada05/worldcup-simulator/config"
	"github.com/Dosada05/worldcup-simulator/db"
	"github.com/Dosada05/worldcup-simulator/fixtures"
	"github.com/Dosada05/worldcup-simulator/handlers"
	"github.com/Dosada05/worldcup-simulator/middleware"
	"github.com/Dosada05/worldcup-simulator/repositories"
	api "github.com/Dosada05/worldcup-simulator/routes"
	"github.com/Dosada05/worldcup-simulator/services"
	"github.com/Dosada05/worldcup-simulator/storage"
)

const (
	janitorInterval = time.Minute // как часто удаляются простаивающие сессии
	shutdownTimeout = 15 * time.Second
)

// @title World Cup Simulator API
// @version 1.0
// @description Симулятор сетки чемпионата мира: групповой этап и плей-офф.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		slog.Error("application error", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("application exited")
}

func run() error {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Duration("session_ttl", cfg.SessionTTL))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Журнал правок в Postgres необязателен.
	editRepo := repositories.NewNopScoreEditRepository()
	if cfg.DatabaseURL != "" {
		dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer closeDB(dbConn, logger)

		if err := db.EnsureSchema(ctx, dbConn); err != nil {
			return err
		}
		editRepo = repositories.NewPostgresScoreEditRepository(dbConn)
		logger.Info("score edit audit log enabled")
	} else {
		logger.Info("DATABASE_URL is empty, score edit audit log disabled")
	}

	// Инициализация загрузчика снимков (Cloudflare R2)
	var uploader storage.FileUploader
	r2Config := storage.CloudflareR2UploaderConfig{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	}
	if r2Config.Enabled() {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, r2Config)
		if err != nil {
			return fmt.Errorf("failed to initialize Cloudflare R2 uploader: %w", err)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	} else {
		logger.Info("R2 settings are incomplete, snapshot export disabled")
	}

	// Ядро симуляции
	seedValue := time.Now().UnixNano()
	if cfg.TieBreakSeed != nil {
		seedValue = *cfg.TieBreakSeed
	}
	tieBreaker := brackets.NewRandomTieBreaker(seedValue)
	standings := brackets.NewStandingsCalculator(fixtures.Groups(), fixtures.Teams())
	propagator := brackets.NewPropagator(brackets.WorldCupTopology, standings, tieBreaker)
	seed, err := fixtures.Build(ctx, brackets.WorldCupTopology)
	if err != nil {
		return fmt.Errorf("failed to build tournament fixtures: %w", err)
	}
	logger.Info("fixtures built",
		slog.Int("group_matches", len(seed.GroupMatches)),
		slog.Int("knockout_matches", len(seed.KnockoutMatches)),
		slog.Int64("tiebreak_seed", seedValue),
	)

	wsHub := brackets.NewHub(logger.With(slog.String("component", "hub")))

	simulatorService := services.NewSimulatorService(
		seed,
		propagator,
		standings,
		editRepo,
		uploader,
		wsHub,
		services.SessionOptions{TTL: cfg.SessionTTL, MaxSessions: cfg.MaxSessions},
		logger,
	)

	// Инициализация обработчиков HTTP
	tokens := middleware.NewTokenIssuer(cfg.JWTSecretKey)
	referenceHandler := handlers.NewReferenceHandler(fixtures.TeamList(), fixtures.Groups())
	simulatorHandler := handlers.NewSimulatorHandler(simulatorService, tokens, fixtures.Teams(), logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, simulatorService, cfg.CORSAllowedOrigins, logger)

	router := chi.NewRouter()
	api.SetupRoutes(router, referenceHandler, simulatorHandler, webSocketHandler, tokens, api.Options{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return wsHub.Run(gctx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				simulatorService.ExpireIdle(gctx)
			}
		}
	})

	g.Go(func() error {
		logger.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
		return nil
	})

	return g.Wait()
}

func closeDB(dbConn *sql.DB, logger *slog.Logger) {
	if err := dbConn.Close(); err != nil {
		logger.Error("failed to close database connection", slog.Any("error", err))
		return
	}
	logger.Info("database connection closed")
}
