package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/spec-kit/ticket-lifecycle/internal/auth"
	"github.com/spec-kit/ticket-lifecycle/internal/config"
)

var tokenTTLMinutes int

func init() {
	tokenIssueCmd.Flags().IntVar(&tokenTTLMinutes, "ttl", 0, "Token lifetime in minutes (default AUTH_ACCESS_TOKEN_TTL_MINUTES)")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Caller token utilities",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user-id>",
	Short: "Issue a bearer token for a caller",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		ttl := cfg.Auth.AccessTokenTTLMinutes
		if tokenTTLMinutes > 0 {
			ttl = tokenTTLMinutes
		}
		token, expires, err := auth.NewTokenManager(cfg.Auth.JWTSecret, ttl).GenerateToken(args[0])
		if err != nil {
			return err
		}
		if jsonOut {
			return outputJSON(cmd.OutOrStdout(), map[string]any{
				"token":      token,
				"expires_at": expires.Format(time.RFC3339),
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
