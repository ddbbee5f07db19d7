package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/alechenninger/membergate/internal/config"
)

// defaultConfigPath is read when no config file is named and it exists
const defaultConfigPath = "./configs/membergate.yaml"

// NewRootCmd creates the root command for membergate
func NewRootCmd() *cobra.Command {
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "membergate",
		Short: "membergate - governance member identity validation",
		Long: `membergate validates caller identities against governance member records.

A caller is valid when its identity key has a registered member certificate
and a member status of Active. membergate serves that check as:
  1. Envoy ext_authz (gRPC) - for authentication at the perimeter
  2. An HTTP API - for membership lookups and direct validation`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		fmt.Sprintf("config file path (default: %s if present)", defaultConfigPath))

	// Config fields are settable from every subcommand
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(NewServeCmd(&configFile))
	rootCmd.AddCommand(NewCheckCmd(&configFile))

	return rootCmd
}

// loadConfig loads configuration for a command from file, environment and flags
func loadConfig(cmd *cobra.Command, configFile string) (*config.Config, string, error) {
	path := config.ResolvePath(configFile, defaultConfigPath)

	loader, err := config.NewLoaderWithFlags(path, cmd.Flags())
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}

	cfg, err := loader.Get()
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, path, nil
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
