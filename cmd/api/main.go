package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"telecasino-dice/internal/config"
	"telecasino-dice/internal/handlers"
	"telecasino-dice/internal/lib/logger/sl"
	"telecasino-dice/internal/services"
)

const (
	envDev  = "dev"
	envProd = "prod"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	log.Info("starting dice service", slog.String("env", cfg.Env))
	log.Debug("debug messages are enabled")

	workspace := services.NewWorkspace(cfg.SharedDir, log)

	compositor := services.NewSVGCompositor(workspace.ImagesDir(), cfg.FrameWidth, cfg.FrameHeight)
	if err := compositor.CheckAssets(); err != nil {
		log.Warn("die face assets incomplete, rounds will fail until they are installed", sl.Err(err))
	}

	encoder := services.NewFFmpegEncoder(cfg.FFmpegPath, cfg.MinVideoDuration, cfg.EncodeTimeout, log)

	var throttle services.Throttle = services.NewMemoryThrottle()
	if cfg.RedisURL != "" {
		redisService, err := services.NewRedisService(cfg)
		if err != nil {
			log.Error("failed to connect to redis", sl.Err(err))
			os.Exit(1)
		}
		defer redisService.Close()
		throttle = redisService
	}

	var mirror services.ArtifactMirror
	if cfg.S3.Enabled() {
		s3Mirror, err := services.NewS3Mirror(context.Background(), cfg.S3)
		if err != nil {
			log.Error("failed to init artifact mirror", sl.Err(err))
			os.Exit(1)
		}
		mirror = s3Mirror
		log.Info("mirroring videos", slog.String("bucket", cfg.S3.Bucket))
	}

	var jwtService *services.JWTService
	if cfg.JWTSecret != "" {
		jwtService = services.NewJWTService(cfg.JWTSecret, services.DefaultTokenTTL)
	}

	wsHandler := handlers.NewWebSocketHandler(log)
	defer wsHandler.Close()

	game := services.NewDiceGame(services.DiceGameConfig{
		Workspace:   workspace,
		Compositor:  compositor,
		Encoder:     encoder,
		Mirror:      mirror,
		Broadcaster: wsHandler,

		MirrorTimeout: cfg.S3.Timeout,
		PublicDir:     cfg.PublicDir,
		FrameCount:    cfg.FrameCount,
		FrameRate:     cfg.FrameRate,
		AudioFile:     cfg.AudioFile,
		Log:           log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sweepStaleRounds(ctx, workspace, cfg.SweepInterval, cfg.StaleRoundAge, log)

	if cfg.Env == envProd {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Dice:       handlers.NewDiceHandler(game, log),
		WebSocket:  wsHandler,
		JWT:        jwtService,
		Throttle:   throttle,
		RateLimit:  cfg.RateLimit,
		RateWindow: cfg.RateWindow,
		PublicDir:  cfg.PublicDir,
		Log:        log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server")

	// Rounds run for several seconds; give them time to finish.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.EncodeTimeout+30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", sl.Err(err))
	}

	log.Info("server exited")
}

func sweepStaleRounds(ctx context.Context, workspace *services.Workspace, interval, maxAge time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := workspace.Sweep(maxAge)
			if err != nil {
				log.Error("failed to sweep stale rounds", sl.Err(err))
				continue
			}
			if removed > 0 {
				log.Info("swept stale rounds", slog.Int("removed", removed))
			}
		}
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	return log
}
