// main package for unified-tts, the OpenAI-compatible TTS gateway.
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

	"github.com/book-expert/logger"

	"github.com/book-expert/unified-tts/internal/adapters"
	"github.com/book-expert/unified-tts/internal/config"
	"github.com/book-expert/unified-tts/internal/health"
	"github.com/book-expert/unified-tts/internal/httpapi"
	"github.com/book-expert/unified-tts/internal/pipeline"
	"github.com/book-expert/unified-tts/internal/router"
	"github.com/book-expert/unified-tts/internal/voiceprefs"
	"github.com/book-expert/unified-tts/internal/voices"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "unified-tts-bootstrap.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create bootstrap logger: %w", err)
	}

	return log, nil
}

// backendSwitcher satisfies httpapi.DefaultBackend by keeping the
// config's runtime default in sync with the live router, so a
// POST /v1/backends/switch call affects the very next Chain() call.
type backendSwitcher struct {
	state  *config.DefaultBackendState
	router *router.Router
}

func (b backendSwitcher) Get() string { return b.state.Get() }

func (b backendSwitcher) Set(kind string) error {
	if err := b.state.Set(kind); err != nil {
		return err
	}

	b.router.SetDefault(kind)

	return nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	finalLog, err := setupLogger(cfg.Paths.LogDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		if closeErr := finalLog.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	prefs := voiceprefs.New(cfg.Paths.PrefsFile, finalLog)
	voiceRegistry := voices.New(cfg.Paths.VoiceDir, prefs, finalLog)

	adapterList := adapters.Build(cfg.Backends, voiceRegistry)
	if len(adapterList) == 0 {
		finalLog.Warn("no backends configured, every synthesis request will be rejected")
	}

	voiceRegistry.SetBackendSources(adapters.VoiceCatalogs(adapterList))

	tracker := health.NewTracker(adapters.Kinds(adapterList))

	rtr := router.New(adapters.Claimers(adapterList), tracker, voiceRegistry, cfg.Routing.DefaultBackend)

	pl := pipeline.New(rtr, adapterList, tracker, finalLog)

	backendState := config.NewDefaultBackendState(cfg.Routing.DefaultBackend)
	switcher := backendSwitcher{state: backendState, router: rtr}

	server := httpapi.New(pl, voiceRegistry, prefs, tracker, switcher, adapters.Kinds(adapterList), finalLog)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErrors := make(chan error, 1)

	go func() {
		finalLog.System("unified-tts listening on %s, default backend %q", addr, cfg.Routing.DefaultBackend)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErrors <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErrors:
		finalLog.Error("server error: %v", err)

		return fmt.Errorf("server error: %w", err)
	case <-quit:
		finalLog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		finalLog.Error("server forced shutdown: %v", err)

		return fmt.Errorf("server forced shutdown: %w", err)
	}

	finalLog.Info("server stopped cleanly")

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
