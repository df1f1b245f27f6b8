// main package for voice-studio
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
	"github.com/book-expert/voice-studio/internal/api"
	"github.com/book-expert/voice-studio/internal/config"
	"github.com/book-expert/voice-studio/internal/generation"
	"github.com/book-expert/voice-studio/internal/persistence"
	"github.com/book-expert/voice-studio/internal/session"
	"github.com/book-expert/voice-studio/internal/voices"
	"github.com/book-expert/voice-studio/internal/worker"
)

const (
	loadTimeout     = 10 * time.Second
	shutdownTimeout = 10 * time.Second
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voice-studio.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := logger.New(os.TempDir(), "voice-studio-bootstrap.log")
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, finalLog)
}

// serve wires the backends, restores the session and runs the HTTP server
// until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	// 4. Connect the backends
	deps, err := connect(cfg, log)
	if err != nil {
		return err
	}
	defer deps.Close()

	// 5. Restore the session and persist every later change
	adapter := persistence.New(deps.kv, log)

	loadCtx, cancelLoad := context.WithTimeout(ctx, loadTimeout)
	snapshot := adapter.Load(loadCtx)

	cancelLoad()

	sess := session.New(snapshot.Options()...)
	sess.OnMutate(adapter.Hook())

	// 6. Synthesis, optionally served by an in-process worker
	synthesizer, err := buildSynthesizer(cfg.Synthesis.Mode, cfg, deps)
	if err != nil {
		return err
	}

	workerErr := make(chan error, 1)

	if cfg.Synthesis.RunWorker {
		backend, buildErr := buildSynthesizer(cfg.Synthesis.WorkerMode, cfg, deps)
		if buildErr != nil {
			return buildErr
		}

		synthesisWorker := worker.NewNatsWorker(deps.nats, cfg.Synthesis.Subject, cfg.Synthesis.WorkerQueue, backend, log)

		go func() {
			workerErr <- synthesisWorker.Run(ctx)
		}()
	}

	location, err := cfg.Location()
	if err != nil {
		return fmt.Errorf("failed to resolve timezone: %w", err)
	}

	// 7. HTTP surface
	server := api.New(api.Dependencies{
		Session:   sess,
		Generator: generation.New(sess, synthesizer, log),
		Uploader:  voices.NewUploader(sess, deps.objects, api.ObjectPrefix, log),
		Objects:   deps.objects,
		Log:       log,
		Location:  location,
		Now:       time.Now,
	})

	httpServer := server.HTTPServer(cfg.Server.Addr)
	serveErr := make(chan error, 1)

	go func() {
		serveErr <- httpServer.ListenAndServe()
	}()

	log.System("voice-studio listening on %s (storage: %s, synthesis: %s)",
		cfg.Server.Addr, cfg.Storage.Backend, cfg.Synthesis.Mode)

	select {
	case err = <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
	case err = <-workerErr:
		if err != nil {
			return fmt.Errorf("synthesis worker failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("Shutdown signal received.")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}

	log.System("voice-studio stopped.")

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
