// Command cadastre-admin manages identity claims and viewer accounts outside the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cadastre-backend-go/internal/config"
	"cadastre-backend-go/internal/db"
)

// env carries the clients a subcommand needs. It is filled by the root command's
// PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	auth   *auth.Client
}

var (
	app     env
	timeout time.Duration
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "cadastre-admin",
	Short: "Administer cadastre viewer accounts",
	Long: `Administer cadastre viewer accounts.

Available subcommands:
  claims set      - Grant or revoke an admin claim on an identity
  users provision - Create or reuse an identity and mark its permission record`,
	SilenceUsage:      true,
	PersistentPreRunE: connect,
	PersistentPostRun: func(*cobra.Command, []string) {
		_ = db.Close()
		if app.logger != nil {
			_ = app.logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "deadline for the whole operation")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log initialization details")
	rootCmd.AddCommand(claimsCmd, usersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func connect(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := zap.NewNop()
	if verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()
	if err := db.InitFirestore(ctx, cfg, logger); err != nil {
		return fmt.Errorf("init firebase: %w", err)
	}
	app = env{cfg: cfg, logger: logger, auth: db.GetFirebaseAuthClient()}
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}
