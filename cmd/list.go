package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/db"
	"github.com/chriserin/ftrun/internal/ui"
)

var (
	statusFlag     string
	noActivityFlag bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded scenarios with their latest outcome",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunList(cmd.Context(), cmd.OutOrStdout(), statusFlag, noActivityFlag)
	},
}

func init() {
	listCmd.Flags().StringVar(&statusFlag, "status", "", "Filter by outcome")
	listCmd.Flags().BoolVar(&noActivityFlag, "no-activity", false, "Show only scenarios without a recorded outcome")
	rootCmd.AddCommand(listCmd)
}

func RunList(ctx context.Context, w io.Writer, statusFilter string, noActivity bool) error {
	if err := requireInit(); err != nil {
		return err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	statuses, err := db.LatestStatuses(ctx, sqlDB)
	if err != nil {
		return err
	}
	for _, s := range statuses {
		if statusFilter != "" && s.Status != statusFilter {
			continue
		}
		if noActivity && s.Status != db.NoActivity {
			continue
		}
		ui.ScenarioLine(w, s)
	}
	return nil
}
