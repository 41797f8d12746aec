package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/pkg/bindings"
)

const (
	ftsDir = "fts"
	dbPath = "fts/ft.db"
)

var errNotInitialized = errors.New("run `ft init` first")

var rootCmd = &cobra.Command{
	Use:          "ft",
	Short:        "ft runs feature files against Go step definitions",
	SilenceUsage: true,
}

// registry holds the step definitions ft run and ft steps work with.
var registry = bindings.NewRegistry()

// Execute runs ft without step definitions, so every step is undefined.
func Execute() {
	ExecuteWith(nil)
}

// ExecuteWith runs ft with the step definitions of reg. Test suites call it
// from their own main package.
func ExecuteWith(reg *bindings.Registry) {
	if reg != nil {
		registry = reg
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func requireInit() error {
	if _, err := os.Stat(ftsDir); os.IsNotExist(err) {
		return errNotInitialized
	}
	return nil
}
