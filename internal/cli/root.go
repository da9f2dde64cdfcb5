// Package cli implements ticketctl, the operator command line used for
// migrations, scheduled SLA recomputation and issuing caller tokens.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-lifecycle/internal/config"
	"github.com/spec-kit/ticket-lifecycle/internal/observability"
	"github.com/spec-kit/ticket-lifecycle/internal/persistence"
)

// Version is set at build time via ldflags.
var Version = "dev"

var (
	jsonOut bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "ticketctl",
	Short: "Operator tooling for the ticket lifecycle service",
	Long: `ticketctl runs database migrations, recomputes SLA violations for a
period and issues bearer tokens for callers.

Configuration is read from the same environment variables as the API server
(POSTGRES_DSN, AUTH_JWT_SECRET, ...); a .env file is honoured.`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall command timeout")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// env is what a command needs from the runtime configuration.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return &env{cfg: cfg, logger: logger}, nil
}

// openPostgres connects to the configured database. Commands that persist
// data refuse to run against the in-memory store.
func (e *env) openPostgres(ctx context.Context) (*persistence.Postgres, error) {
	pg, err := persistence.NewPostgres(ctx, e.cfg.Postgres, e.logger)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if !pg.Enabled() {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}
	return pg, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
