// @title Swiss Tournament API
// @version 1.0
// @description Swiss-system pairing, results and standings for organizers.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-tournament/brackets"
	"github.com/Dosada05/swiss-tournament/config"
	"github.com/Dosada05/swiss-tournament/db"
	"github.com/Dosada05/swiss-tournament/handlers"
	"github.com/Dosada05/swiss-tournament/repositories"
	api "github.com/Dosada05/swiss-tournament/routes"
	"github.com/Dosada05/swiss-tournament/services"
	"github.com/Dosada05/swiss-tournament/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.Bool("archive_enabled", cfg.R2 != nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Connect(ctx, cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	if err := db.Migrate(ctx, dbConn); err != nil {
		logger.Error("failed to apply schema", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2 != nil {
		uploader, err = storage.NewCloudflareR2Uploader(ctx, storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			PublicBaseURL:   cfg.R2.PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Cloudflare R2 uploader initialized")
	}

	wsHub := brackets.NewHub()
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	organizerRepo := repositories.NewPostgresOrganizerRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	byeRepo := repositories.NewPostgresByeRepository(dbConn)
	standingRepo := repositories.NewPostgresStandingRepository(dbConn)
	pairingRepo := repositories.NewPostgresPairingRepository(dbConn)

	engineOpts := []brackets.Option{brackets.WithLogger(logger)}
	if cfg.PairingSeed != nil {
		engineOpts = append(engineOpts, brackets.WithRand(rand.New(rand.NewSource(*cfg.PairingSeed))))
		logger.Info("deterministic pairings enabled", slog.Int64("seed", *cfg.PairingSeed))
	}
	engine := brackets.NewSwissPairer(engineOpts...)

	locks := services.NewTournamentLocks()

	var archiver services.ArchiveService
	if uploader != nil {
		archiver = services.NewArchiveService(tournamentRepo, standingRepo, uploader, logger)
	}

	authService := services.NewAuthService(organizerRepo)
	playerService := services.NewPlayerService(playerRepo)
	tournamentService := services.NewTournamentService(dbConn, tournamentRepo, playerRepo, standingRepo, pairingRepo, archiver, uploader, locks, wsHub, logger)
	pairingService := services.NewPairingService(dbConn, engine, tournamentRepo, standingRepo, matchRepo, byeRepo, pairingRepo, locks, wsHub, logger)
	matchService := services.NewMatchService(dbConn, tournamentRepo, matchRepo, byeRepo, pairingRepo, locks, wsHub, logger)
	logger.Info("Services initialized")

	if archiver != nil {
		sched, err := services.StartArchiveScheduler(archiver, cfg.ArchiveInterval, logger)
		if err != nil {
			logger.Error("failed to start archive scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				logger.Error("failed to stop archive scheduler", slog.Any("error", err))
			}
		}()
		logger.Info("archive scheduler started", slog.Duration("interval", cfg.ArchiveInterval))
	}

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Options{JWTSecret: cfg.JWTSecretKey, AllowedOrigins: cfg.CORSAllowedOrigins},
		handlers.NewAuthHandler(authService, cfg.JWTSecretKey),
		handlers.NewPlayerHandler(playerService),
		handlers.NewTournamentHandler(tournamentService),
		handlers.NewMatchHandler(matchService),
		handlers.NewRoundHandler(pairingService),
		handlers.NewWebSocketHandler(wsHub, tournamentService, cfg.CORSAllowedOrigins),
	)
	logger.Info("Routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
