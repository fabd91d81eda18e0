package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoopmetrics/enrich/internal/auth"
	"github.com/hoopmetrics/enrich/internal/config"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage the persistent browser session and stored credentials",
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show where session state lives",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		fmt.Printf("browser profile: %s\n", cfg.ProfileDir)
		if _, err := os.Stat(cfg.ProfileDir); os.IsNotExist(err) {
			fmt.Println("  (not created yet)")
		}

		creds, err := auth.Load()
		if err != nil {
			return err
		}
		if creds == nil {
			fmt.Println("credentials: none configured")
		} else {
			fmt.Printf("credentials: stored for %s\n", creds.Username)
		}
		return nil
	},
}

var sessionsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the browser profile and stored credentials",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}
		if err := os.RemoveAll(cfg.ProfileDir); err != nil {
			return fmt.Errorf("failed to remove browser profile: %w", err)
		}
		if err := auth.Delete(); err != nil {
			return err
		}
		fmt.Println("session state cleared")
		return nil
	},
}

var loginFlags struct {
	username string
	password string
}

var sessionsLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store platform credentials for browser-mode runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		if loginFlags.username == "" {
			return fmt.Errorf("--username is required")
		}
		err := auth.Save(&auth.Credentials{
			Username: loginFlags.username,
			Password: loginFlags.password,
		})
		if err != nil {
			return err
		}
		fmt.Printf("credentials stored for %s\n", loginFlags.username)
		return nil
	},
}

func init() {
	sessionsLoginCmd.Flags().StringVar(&loginFlags.username, "username", "", "platform username")
	sessionsLoginCmd.Flags().StringVar(&loginFlags.password, "password", "", "platform password")

	sessionsCmd.AddCommand(sessionsShowCmd, sessionsClearCmd, sessionsLoginCmd)
	rootCmd.AddCommand(sessionsCmd)
}
