// Command opsdesk is the OpsDesk client: it manages the local session and
// credential lifecycle against the auth service.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/opsdesk/opsdesk/internal/core/ports"
	"github.com/opsdesk/opsdesk/internal/core/service"
	"github.com/opsdesk/opsdesk/internal/infrastructure/authapi"
	"github.com/opsdesk/opsdesk/internal/infrastructure/config"
	redisdb "github.com/opsdesk/opsdesk/internal/infrastructure/db/redis"
	credstore "github.com/opsdesk/opsdesk/internal/infrastructure/store"
	"github.com/opsdesk/opsdesk/pkg/logger"
)

var (
	flagEmail           string
	flagPassword        string
	flagNewPassword     string
	flagCurrentPassword string
)

var rootCmd = &cobra.Command{
	Use:           "opsdesk",
	Short:         "OpsDesk dashboard client",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and persist the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := buildManager(ctx)
		if err != nil {
			return err
		}
		mgr.Hydrate(ctx)

		res := mgr.Login(ctx, flagEmail, flagPassword)
		if !res.Success {
			return fmt.Errorf("login failed: %s", res.Message)
		}

		if res.FirstLoginRequired {
			// The pending reset secret only lives in this process; the
			// mandatory change must complete before we exit.
			if flagNewPassword == "" {
				mgr.Logout(ctx)
				return fmt.Errorf("first login: a new password is required, re-run with --new-password")
			}
			if !mgr.ResetPassword(ctx, flagNewPassword) {
				mgr.Logout(ctx)
				return fmt.Errorf("password reset rejected, session discarded")
			}
			fmt.Println("password updated")
		}

		identity := mgr.Identity()
		fmt.Printf("signed in as %s (%s)\n", identity.Email, identity.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the session and stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := buildManager(ctx)
		if err != nil {
			return err
		}
		mgr.Hydrate(ctx)
		mgr.Logout(ctx)
		fmt.Println("signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := buildManager(ctx)
		if err != nil {
			return err
		}
		res := mgr.Hydrate(ctx)

		if !mgr.IsAuthenticated() {
			fmt.Println("not signed in")
			return nil
		}

		identity := mgr.Identity()
		fmt.Printf("user:  %s <%s>\n", identity.DisplayName, identity.Email)
		fmt.Printf("role:  %s\n", identity.Role)
		fmt.Printf("state: %s\n", mgr.State())
		if identity.LinkedRecordID != "" {
			fmt.Printf("linked record: %s\n", identity.LinkedRecordID)
		}
		if res.Degraded {
			fmt.Println("warning: session not confirmed, auth service unreachable")
		}
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password",
	Short: "Complete the mandatory first-login password change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		mgr, err := buildManager(ctx)
		if err != nil {
			return err
		}
		mgr.Hydrate(ctx)

		res := mgr.Login(ctx, flagEmail, flagCurrentPassword)
		if !res.Success {
			return fmt.Errorf("login failed: %s", res.Message)
		}
		if !res.FirstLoginRequired {
			fmt.Println("no password reset pending")
			return nil
		}
		if !mgr.ResetPassword(ctx, flagNewPassword) {
			return fmt.Errorf("password reset rejected")
		}
		fmt.Println("password updated")
		return nil
	},
}

// buildManager wires the session manager from configuration: HTTP auth
// client plus the configured credential store backend.
func buildManager(ctx context.Context) (*service.SessionManager, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.Env == "development", Output: os.Stderr})

	client := authapi.NewClient(authapi.Config{
		BaseURL: cfg.Auth.BaseURL,
		Timeout: cfg.Auth.Timeout,
	})

	var store ports.CredentialStore
	switch cfg.Store.Backend {
	case "redis":
		rdb, err := redisdb.Connect(ctx, redisdb.Config{Addr: cfg.Store.Redis.Addr, DB: cfg.Store.Redis.DB})
		if err != nil {
			return nil, fmt.Errorf("connect redis store: %w", err)
		}
		store = credstore.NewRedisStore(rdb, cfg.Store.Redis.Prefix)
	default:
		store, err = credstore.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
	}

	opts := service.SessionOptions{StrictValidation: cfg.Auth.StrictValidation}
	return service.NewSessionManager(client, store, opts, log), nil
}

func init() {
	loginCmd.Flags().StringVar(&flagEmail, "email", "", "account email")
	loginCmd.Flags().StringVar(&flagPassword, "password", "", "account password")
	loginCmd.Flags().StringVar(&flagNewPassword, "new-password", "", "replacement password when the account is in first-login state")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	resetPasswordCmd.Flags().StringVar(&flagEmail, "email", "", "account email")
	resetPasswordCmd.Flags().StringVar(&flagCurrentPassword, "current-password", "", "temporary password issued at onboarding")
	resetPasswordCmd.Flags().StringVar(&flagNewPassword, "new-password", "", "replacement password")
	_ = resetPasswordCmd.MarkFlagRequired("email")
	_ = resetPasswordCmd.MarkFlagRequired("current-password")
	_ = resetPasswordCmd.MarkFlagRequired("new-password")

	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd, resetPasswordCmd)
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
