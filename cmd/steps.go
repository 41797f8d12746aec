package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/ui"
	"github.com/chriserin/ftrun/pkg/bindings"
)

var stepsCmd = &cobra.Command{
	Use:   "steps",
	Short: "List the registered step definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunSteps(cmd.OutOrStdout(), registry)
	},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}

func RunSteps(w io.Writer, reg *bindings.Registry) error {
	if !reg.IsBuilt() {
		reg.Build()
	}
	if !reg.IsValid() {
		return fmt.Errorf("step definitions are invalid:\n  %s", strings.Join(reg.ErrorMessages(), "\n  "))
	}

	defs, err := reg.AllStepDefinitions()
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		fmt.Fprintln(w, "no step definitions registered")
		return nil
	}
	for _, d := range defs {
		kinds := make([]string, len(d.Types))
		for i, t := range d.Types {
			kinds[i] = t.String()
		}
		kind := strings.Join(kinds, "|")
		if kind == "" {
			kind = "Step"
		}
		scope := ""
		if d.Scope != nil {
			scope = d.Scope.String()
		}
		ui.StepLine(w, kind, d.Pattern, d.Method.Name(), scope)
	}
	return nil
}
