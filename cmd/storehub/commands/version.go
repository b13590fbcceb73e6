/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/suparena/storehub"
)

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := storehub.GetVersionInfo()
		if versionJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		cmd.Printf("storehub %s\n", info.Version)
		cmd.Printf("Git commit: %s\n", info.GitCommit)
		cmd.Printf("Build date: %s\n", info.BuildDate)
		cmd.Printf("Go version: %s (%s)\n", info.GoVersion, info.Platform)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "Print as JSON")
}
