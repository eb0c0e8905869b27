// Package server owns the process lifecycle of the HTTP surface: listener
// setup, the control socket, the periodic code sweep and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rmcloud-dev/rmcloud/internal/config"
	"github.com/rmcloud-dev/rmcloud/internal/logger"
	"github.com/rmcloud-dev/rmcloud/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// Run serves until ctx is cancelled, then stops accepting connections and
// lets in-flight requests drain.
func Run(ctx context.Context, cfg *config.Config, h http.Handler, codes storage.CodeStorage) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", cfg.Common.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stopSocket, err := runControlSocket(fmt.Sprintf("127.0.0.1:%d", cfg.Common.Socket), codes)
	if err != nil {
		return err
	}
	defer stopSocket()

	go runJanitor(ctx, codes)

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("listening", "addr", "http://"+srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// runJanitor sweeps expired codes hourly so the code file stays bounded
// even when nobody runs the CLI clean command.
func runJanitor(ctx context.Context, codes storage.CodeStorage) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := codes.Clean(); err != nil {
				logger.Log.Error("code sweep failed", "error", err)
			}
		}
	}
}
