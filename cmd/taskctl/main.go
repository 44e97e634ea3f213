// Package main implements taskctl, a command line front end for the task manager.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/example/task-manager/client"
	"github.com/spf13/cobra"
)

var (
	configPath     string
	serverOverride string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "taskctl",
	Short:        "Manage your tasks from the terminal",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", filepath.Join(defaultConfigDir(), "config.toml"), "config file")
	rootCmd.PersistentFlags().StringVar(&serverOverride, "server", "", "server URL (overrides the config file)")
}

// openSession loads the config and returns a session. When requireAuth is
// set the stored token is re-validated first.
func openSession(ctx context.Context, requireAuth bool) (*client.Session, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if serverOverride != "" {
		cfg.Server = serverOverride
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	session := client.NewSession(client.NewAPIClient(cfg.Server), client.NewFileTokenStore(cfg.TokenFile))
	if !requireAuth {
		return session, nil
	}

	if err := session.Restore(ctx); err != nil {
		return nil, err
	}
	if session.Gate() != client.ViewAllow {
		return nil, fmt.Errorf("not logged in, run `taskctl login` first")
	}
	return session, nil
}
