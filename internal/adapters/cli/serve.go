package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	webAdapter "aura-finance/internal/adapters/web"
	"aura-finance/internal/config"
	"aura-finance/internal/logger"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(e *env) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				e.cfg.ServerPort = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, e)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (overrides SERVER_PORT)")
	return cmd
}

// RunServer builds the service from cfg and serves the HTTP API until ctx is
// cancelled.
func RunServer(ctx context.Context, cfg *config.Config) error {
	e := &env{cfg: cfg}
	defer e.close()
	return serve(ctx, e)
}

// serve runs the HTTP API on the env's configuration and shuts it down
// gracefully when ctx is cancelled.
func serve(ctx context.Context, e *env) error {
	log := logger.WithComponent("server")

	if err := e.cfg.ValidateServer(); err != nil {
		return err
	}
	if e.cfg.ValidateExtraction() != nil {
		log.Warn().Msg("OPENAI_API_KEY is not set; document extraction is disabled")
	}

	svc, err := e.service(ctx)
	if err != nil {
		return err
	}

	// Expired sessions are also dropped lazily on access.
	e.sessions.StartPurge(ctx, time.Minute)

	srv := &http.Server{
		Addr:              ":" + e.cfg.ServerPort,
		Handler:           webAdapter.NewHandler(svc, e.cfg.AllowedOrigins, e.cfg.JWTSecret, e.cfg.SessionTTL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
