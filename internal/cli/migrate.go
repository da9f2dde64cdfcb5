package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-lifecycle/internal/persistence"
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd, func(e *env, pg *persistence.Postgres) error {
			return persistence.RunMigrations(cmd.Context(), pg.Pool, e.logger)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd, func(e *env, pg *persistence.Postgres) error {
			return persistence.MigrateDown(cmd.Context(), pg.Pool, e.logger)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withPostgres(cmd, func(e *env, pg *persistence.Postgres) error {
			version, err := persistence.MigrationVersion(cmd.Context(), pg.Pool)
			if err != nil {
				return err
			}
			if jsonOut {
				return outputJSON(cmd.OutOrStdout(), map[string]int64{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		})
	},
}

// withPostgres loads config, connects and runs fn with a bounded context
// installed on cmd.
func withPostgres(cmd *cobra.Command, fn func(e *env, pg *persistence.Postgres) error) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer e.logger.Sync() //nolint:errcheck

	ctx, cancel := commandContext(cmd)
	defer cancel()
	cmd.SetContext(ctx)

	pg, err := e.openPostgres(ctx)
	if err != nil {
		return err
	}
	defer pg.Close()
	return fn(e, pg)
}
