package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/chriserin/ftrun/internal/db"
	"github.com/chriserin/ftrun/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest recorded outcome of every scenario",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunStatusReport(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func RunStatusReport(ctx context.Context, w io.Writer) error {
	if err := requireInit(); err != nil {
		return err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	counts, err := db.StatusCounts(ctx, sqlDB)
	if err != nil {
		return err
	}

	var last *db.Run
	run, err := db.LastRun(ctx, sqlDB)
	switch {
	case err == nil:
		last = &run
	case !errors.Is(err, db.ErrNoRuns):
		return err
	}
	ui.StatusReport(w, counts, last)
	return nil
}
