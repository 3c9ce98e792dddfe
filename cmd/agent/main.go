package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/storyloom/storyloom-agent/internal/api"
	"github.com/storyloom/storyloom-agent/internal/asset"
	"github.com/storyloom/storyloom-agent/internal/capture"
	"github.com/storyloom/storyloom-agent/internal/config"
	"github.com/storyloom/storyloom-agent/internal/db"
	"github.com/storyloom/storyloom-agent/internal/export"
	"github.com/storyloom/storyloom-agent/internal/logging"
	"github.com/storyloom/storyloom-agent/internal/playback"
	"github.com/storyloom/storyloom-agent/internal/preview"
	"github.com/storyloom/storyloom-agent/internal/script"
	"github.com/storyloom/storyloom-agent/internal/storyboard"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("fatal error: %v", err)
	}
}

func run() error {
	startTime := time.Now()

	// A .env next to the binary is a convenience for local development;
	// missing is fine.
	_ = godotenv.Load()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := os.MkdirAll(cfg.DataDir(), 0755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := os.MkdirAll(cfg.MediaDir(), 0755); err != nil {
		return fmt.Errorf("failed to create media dir: %w", err)
	}

	logger := logging.NewLogger(cfg.LogLevel())
	logger.Info("starting storyloom agent", "version", config.Version, "data_dir", cfg.DataDir())

	// The session database lives in memory: job history and session config
	// vanish with the process, nothing but captured media touches disk.
	database, err := db.New(db.MemoryDSN, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize session database: %w", err)
	}
	defer database.Close()

	store := db.NewStore(database.Conn())

	sessionID, err := ensureSessionID(store)
	if err != nil {
		return fmt.Errorf("failed to ensure session ID: %w", err)
	}

	authToken, err := ensureAuthToken(store)
	if err != nil {
		return fmt.Errorf("failed to ensure auth token: %w", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════╗")
	fmt.Println("║                  STORYLOOM AGENT v" + config.Version + "                    ║")
	fmt.Println("╠═══════════════════════════════════════════════════════════╣")
	fmt.Printf("║  API URL:    http://127.0.0.1:%-27d ║\n", cfg.Port())
	fmt.Printf("║  Auth Token: %-45s ║\n", authToken)
	fmt.Printf("║  Session ID: %-45s ║\n", sessionID[:16]+"...")
	fmt.Println("╚═══════════════════════════════════════════════════════════╝")
	fmt.Println()

	registry := asset.NewRegistry()

	timeline := storyboard.NewTimeline()
	timeline.Seed(storyboard.DemoStoryboard())

	captureMgr := capture.NewManager(
		capture.NewStubDevice(logger),
		capture.NewFileSink(cfg.MediaDir()),
		registry,
		logger,
	)
	defer captureMgr.Close()

	renderer := export.NewSimRenderer(
		time.Duration(cfg.RenderMsPerSecond())*time.Millisecond,
		config.MinRenderDuration,
		logger,
	)
	exports := export.NewManager(renderer, registry, store, logger)

	player := preview.NewPlayer(timeline, cfg.PreviewTick(), logger)
	defer player.Stop()

	apiServer := api.NewServer(api.ServerConfig{
		Port:           cfg.Port(),
		MediaDir:       cfg.MediaDir(),
		Registry:       registry,
		Timeline:       timeline,
		Script:         script.NewEditor(),
		Capture:        captureMgr,
		Player:         player,
		PlaybackServer: playback.NewServer(logger),
		Exports:        exports,
		Store:          store,
		Logger:         logger,
		StartTime:      startTime,
	})

	go func() {
		if err := apiServer.Start(); err != nil {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown HTTP server", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

func ensureSessionID(store *db.Store) (string, error) {
	ctx := context.Background()

	existing, err := store.GetConfig(ctx, "session_id")
	if err == nil && existing != "" {
		return existing, nil
	}

	idBytes := make([]byte, 16)
	if _, err := rand.Read(idBytes); err != nil {
		return "", err
	}
	sessionID := hex.EncodeToString(idBytes)

	if err := store.SetConfig(ctx, "session_id", sessionID); err != nil {
		return "", err
	}

	return sessionID, nil
}

func ensureAuthToken(store *db.Store) (string, error) {
	ctx := context.Background()

	existing, err := store.GetConfig(ctx, "auth_token")
	if err == nil && existing != "" {
		return existing, nil
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	if err := store.SetConfig(ctx, "auth_token", token); err != nil {
		return "", err
	}

	return token, nil
}
