/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/suparena/storehub/config"
)

var (
	configForce  bool
	configOutput string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after file, environment (STOREHUB_*) and
default values are merged.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		out, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		cmd.Print(string(out))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if configOutput == "" {
			return fmt.Errorf("--output is required")
		}
		if _, err := os.Stat(configOutput); err == nil && !configForce {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configOutput)
		}
		if err := config.SaveConfig(config.GetDefaultConfig(), configOutput); err != nil {
			return err
		}
		cmd.Printf("Configuration file created at: %s\n", configOutput)
		return nil
	},
}

func init() {
	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", "storehub.yaml", "Path of the file to write")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
