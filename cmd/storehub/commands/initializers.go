/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package commands

import (
	"github.com/spf13/cobra"

	"github.com/suparena/storehub/registry"
)

var initializersCmd = &cobra.Command{
	Use:   "initializers",
	Short: "List registered initializers",
	Long: `List the initializer identities compiled into this binary. The identity
is the "serviceName" of every API request.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		entries := registry.Default().Entries()
		if len(entries) == 0 {
			cmd.Println("No initializers registered")
			return
		}
		for _, e := range entries {
			if e.Doc != "" {
				cmd.Printf("%-20s %s\n", e.Identity, e.Doc)
				continue
			}
			cmd.Println(e.Identity)
		}
	},
}
