package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/torosent/stampede/internal/config"
	"github.com/torosent/stampede/internal/httpaction"
	"github.com/torosent/stampede/internal/logging"
	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/internal/output"
	"github.com/torosent/stampede/internal/report"
	"github.com/torosent/stampede/internal/runner"
	"github.com/torosent/stampede/internal/scenario"
	"github.com/torosent/stampede/internal/scenariofile"
	"github.com/torosent/stampede/internal/threshold"
	"github.com/torosent/stampede/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

var version = "dev"

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "stampede",
		Short:         "Scenario driven HTTP load generator",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		// Without a subcommand, show how to start a run.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(nil, stdout, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	start := &cobra.Command{
		Use:                "start FILE",
		Short:              "Run the scenario described by FILE",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args, stdout, stderr)
		},
	}
	config.RegisterFlags(start)

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(stdout, banner())
		},
	}

	root.AddCommand(start, versionCmd)
	return root
}

func banner() string {
	return "stampede " + version
}

func run(args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.New(stderr, logging.Level(cfg.Verbose), string(cfg.LogFormat))

	file, err := scenariofile.Load(cfg.ScenarioFile)
	if err != nil {
		return err
	}
	blueprint, err := file.Blueprint()
	if err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	collector := metrics.NewCollector()
	sinks := []report.Sink{collector}

	var stream *output.StreamSink
	if cfg.ReportFile != "" {
		f, err := os.Create(cfg.ReportFile)
		if err != nil {
			return fmt.Errorf("report file: %w", err)
		}
		defer f.Close()
		stream = output.NewStreamSink(f)
		sinks = append(sinks, stream)
	}

	sink := report.Multi(sinks...)
	if cfg.LogErrors {
		sink = runner.WithLogging(sink, logger)
	}

	r := runner.New(runner.Options{
		MaxConnections: cfg.MaxConnections,
		RatePerSecond:  cfg.Rate,
		ArrivalModel:   toRunnerArrivalModel(cfg.Arrival.Model),
		Users:          cfg.Users,
		Iterations:     cfg.Iterations,
		Duration:       cfg.Duration,
		Sink:           sink,
		Logger:         logger,
		Tracer:         provider.Tracer(),
		PropagateTrace: provider.ShouldPropagate(),
		Prepare:        rootDefaults(cfg),
	})

	var progress *output.ProgressReporter
	if !cfg.JSONOutput {
		progress = output.NewProgressReporter(collector, progressInterval, stdout)
		progress.Start()
	}

	logger.Debug("run starting", "scenario", cfg.ScenarioFile, "users", cfg.Users, "iterations", cfg.Iterations)
	collector.Start()
	result := r.Run(ctx, blueprint)
	stats := collector.Stats(result.Duration)

	if progress != nil {
		progress.Stop()
		fmt.Fprintln(stdout)
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(stdout, stats); err != nil {
			return err
		}
	} else {
		output.PrintReport(stdout, stats)
	}

	if stream != nil {
		if err := stream.Err(); err != nil {
			return fmt.Errorf("report file: %w", err)
		}
	}

	thresholdOut := stdout
	if cfg.JSONOutput {
		thresholdOut = stderr
	}
	failed := output.PrintThresholdResults(thresholdOut, threshold.NewEvaluator(thresholds).Evaluate(stats))

	if result.Canceled && ctx.Err() != nil {
		return fmt.Errorf("run interrupted")
	}
	if failed > 0 {
		return fmt.Errorf("%d thresholds failed", failed)
	}
	if stats.Failures > 0 {
		return fmt.Errorf("%d exchanges failed", stats.Failures)
	}
	return nil
}

// rootDefaults applies the command line connection and identity settings at
// the root of every run, below anything the scenario configures.
func rootDefaults(cfg *config.Config) func(root *scenario.Context) {
	conn := httpaction.Connection{
		ConnectTimeout:    cfg.ConnectTimeout,
		InactivityTimeout: cfg.InactivityTimeout,
	}
	agent := strings.TrimSpace(cfg.UserAgent)
	return func(root *scenario.Context) {
		httpaction.ConnectionOptions(root, conn)
		if agent != "" {
			httpaction.UserAgent(root, agent)
		}
	}
}

func toRunnerArrivalModel(model config.ArrivalModel) runner.ArrivalModel {
	switch strings.ToLower(string(model)) {
	case string(config.ArrivalModelPoisson):
		return runner.ArrivalModelPoisson
	default:
		return runner.ArrivalModelUniform
	}
}
