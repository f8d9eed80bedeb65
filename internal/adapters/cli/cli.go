// Package cli is the command-line adapter. Every command goes through
// app.ApplicationService, the same interface the web adapter uses.
package cli

import (
	"context"
	"fmt"
	"os"

	"aura-finance/internal/ai"
	"aura-finance/internal/app"
	"aura-finance/internal/config"
	"aura-finance/internal/core"
	"aura-finance/internal/db"
	"aura-finance/internal/logger"
	"aura-finance/internal/render"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

// env is the state shared by all commands of one invocation.
type env struct {
	cfg      *config.Config
	store    core.Store
	sessions *app.SessionStore
	svc      app.ApplicationService
}

// service opens storage and builds the application service on first use.
func (e *env) service(ctx context.Context) (app.ApplicationService, error) {
	if e.svc != nil {
		return e.svc, nil
	}
	store, err := db.OpenStore(ctx, e.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	e.store = store
	e.sessions = app.NewSessionStore(e.cfg.SessionTTL)
	e.svc = app.NewAppService(store, newExtractor(e.cfg), newRenderer(e.cfg), e.sessions)
	return e.svc, nil
}

func (e *env) close() {
	if e.store != nil {
		_ = e.store.Close()
	}
}

// newExtractor returns nil when no API key is configured so that the
// application service reports extraction as unavailable.
func newExtractor(cfg *config.Config) ai.Extractor {
	if cfg.ValidateExtraction() != nil {
		return nil
	}
	return ai.NewOpenAIExtractor(ai.Config{
		APIKey:          cfg.OpenAIAPIKey,
		Model:           cfg.OpenAIModel,
		TranscribeModel: cfg.OpenAITranscribeModel,
	})
}

func newRenderer(cfg *config.Config) *render.Renderer {
	return render.NewRenderer(render.WithSender(cfg.Sender()))
}

// newRootCmd builds the aura command tree around e.
func newRootCmd(e *env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "aura",
		Short: "AURA FINANCE - invoice extraction and records",
		Long: `AURA FINANCE turns scanned invoices, PDFs and voice notes into
structured invoice records, stores them per user and renders branded PDFs.

Run "aura serve" to start the HTTP API, or use the commands below for
one-off work from the terminal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := logger.Setup(cfg.GetLoggerConfig()); err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			e.cfg = cfg
			return nil
		},
	}

	rootCmd.AddCommand(
		newServeCmd(e),
		newMigrateCmd(e),
		newExtractCmd(e),
		newRenderCmd(e),
		newCompareCmd(e),
		newUserCmd(e),
	)
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	// Until the environment is read, log with the defaults.
	_ = logger.Setup(logger.DefaultConfig())
	log := logger.WithComponent("cmd")

	e := &env{}
	err := newRootCmd(e).Execute()
	e.close()
	if err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
