/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package commands implements the storehub CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "storehub",
	Short: "storehub - multi-instance document store server",
	Long: `storehub hosts named in-memory document databases behind one HTTP API.
Each database is built on first use by a registered initializer and persisted
through the configured backend (memory, file, sqlite, badger or dynamodb).

Use "storehub [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/storehub/storehub.yaml)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initializersCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
