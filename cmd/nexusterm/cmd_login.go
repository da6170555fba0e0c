package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/nexusterm/internal/auth"
)

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with Google to sync chats to Drive",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		setupLogging(cfg, os.Stderr)

		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		mgr := auth.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.DataDir)
		if !mgr.Configured() {
			return fmt.Errorf("google oauth not configured: set google.client_id and google.client_secret")
		}
		if err := mgr.Login(cmd.Context(), os.Stdout); err != nil {
			return fmt.Errorf("login: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Signed in. Chats will sync to Google Drive.")
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the cached Google credential",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		mgr := auth.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.DataDir)
		if err := mgr.SignOut(); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		fmt.Fprintln(os.Stdout, "Signed out.")
		return nil
	},
}
