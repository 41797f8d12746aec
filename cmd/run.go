package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chriserin/ftrun/internal/config"
	"github.com/chriserin/ftrun/internal/db"
	"github.com/chriserin/ftrun/internal/logging"
	"github.com/chriserin/ftrun/internal/ui"
	"github.com/chriserin/ftrun/pkg/bindings"
	"github.com/chriserin/ftrun/pkg/engine"
	"github.com/chriserin/ftrun/pkg/events"
	"github.com/chriserin/ftrun/pkg/observe"
	"github.com/chriserin/ftrun/pkg/runner"
	"github.com/chriserin/ftrun/pkg/tracing"
)

// ErrScenariosFailed is returned by RunRun when the run failed.
var ErrScenariosFailed = errors.New("scenarios failed")

type RunOptions struct {
	ConfigPath  string
	Workers     int
	Trace       bool
	MetricsFile string
	NoRecord    bool
	// Log overrides the logger built from the configuration.
	Log *zap.Logger
}

var runOpts RunOptions

var runCmd = &cobra.Command{
	Use:   "run [feature files...]",
	Short: "Run feature files, fts/*.ft by default",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return RunRun(ctx, cmd.OutOrStdout(), registry, args, runOpts)
	},
}

func init() {
	runCmd.Flags().StringVar(&runOpts.ConfigPath, "config", config.DefaultPath, "configuration file")
	runCmd.Flags().IntVarP(&runOpts.Workers, "workers", "w", 0, "features run in parallel (overrides runtime.workers)")
	runCmd.Flags().BoolVarP(&runOpts.Trace, "trace", "t", false, "print every step as it runs")
	runCmd.Flags().StringVar(&runOpts.MetricsFile, "metrics-file", "", "write Prometheus metrics of the run to this file")
	runCmd.Flags().BoolVar(&runOpts.NoRecord, "no-record", false, "do not store results in fts/ft.db")
	rootCmd.AddCommand(runCmd)
}

func RunRun(ctx context.Context, w io.Writer, reg *bindings.Registry, paths []string, o RunOptions) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return err
	}
	log := o.Log
	if log == nil {
		log = logging.New(cfg.Logging)
		defer logging.Sync(log)
	}

	if len(paths) == 0 {
		paths, err = filepath.Glob(filepath.Join(ftsDir, "*.ft"))
		if err != nil {
			return fmt.Errorf("finding feature files: %w", err)
		}
		sort.Strings(paths)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no feature files found in %s/", ftsDir)
	}

	features, err := runner.LoadFeatures(paths)
	if err != nil {
		return err
	}
	for i := range features {
		if features[i].Info.Language == "" {
			features[i].Info.Language = cfg.Language.Feature
		}
	}

	workers := cfg.Runtime.Workers
	if o.Workers > 0 {
		workers = o.Workers
	}
	var output tracing.Listener
	if o.Trace {
		output = tracing.NewWriterListener(w)
	}

	metricsReg := prometheus.NewRegistry()
	r, err := runner.New(runner.Options{
		Config:   cfg.Engine(projectName()),
		Registry: reg,
		Workers:  workers,
		Output:   output,
		Listeners: []events.Listener{
			observe.NewSpanListener(nil),
			observe.NewMetrics(metricsReg),
		},
		Analytics: engine.LogTransmitter{On: cfg.Analytics.Enabled, Log: log},
		Logger:    log,
	})
	if err != nil {
		return err
	}

	report := r.Run(ctx, features)
	ui.Results(w, report)

	if o.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(o.MetricsFile, metricsReg); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	if !o.NoRecord {
		if err := recordReport(ctx, report); err != nil {
			log.Warn("could not record results", zap.Error(err))
		}
	}

	if report.Failed() {
		return ErrScenariosFailed
	}
	return nil
}

// recordReport stores report in the result database when ft init ran.
func recordReport(ctx context.Context, report *runner.Report) error {
	if err := requireInit(); err != nil {
		return nil
	}
	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer sqlDB.Close()

	run := db.Run{
		ID:       report.RunID,
		Started:  report.Started,
		Duration: report.Duration,
		Failed:   report.Failed(),
	}
	if report.Err != nil {
		run.Error = report.Err.Error()
	}
	for _, res := range report.Results {
		r := db.Result{
			Path:     res.Path,
			Scenario: res.Scenario,
			Line:     res.Line,
			Status:   res.Outcome.String(),
			Duration: res.Duration,
		}
		if res.Err != nil {
			r.Message = res.Err.Error()
		}
		run.Results = append(run.Results, r)
	}
	return db.RecordRun(ctx, sqlDB, run)
}

func projectName() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Base(wd)
}
