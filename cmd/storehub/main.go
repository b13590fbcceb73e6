/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package main

import (
	"fmt"
	"os"

	"github.com/suparena/storehub/cmd/storehub/commands"

	// registers the "users" initializer in the default catalog
	_ "github.com/suparena/storehub/initializers/users"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
