package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags registers all run flags on a cobra command.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stampede start FILE",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Load control flags
	flags.IntP("max-connections", "c", DefaultMaxConnections, "Maximum simultaneous HTTP exchanges")
	flags.IntP("rate", "r", 0, "Exchange admissions per second (0 means unlimited)")
	flags.String("arrival-model", string(ArrivalModelUniform), "Arrival model to use when pacing exchanges (uniform or poisson)")
	flags.IntP("users", "u", 1, "Independent concurrent runs of the scenario")
	flags.IntP("iterations", "i", 1, "Sequential runs of the scenario per user")
	flags.DurationP("duration", "d", 0, "Stop the test after this long (e.g. 30s, 1m)")

	// Connection flags
	flags.Duration("connect-timeout", DefaultConnectTimeout, "Default connection timeout")
	flags.Duration("inactivity-timeout", DefaultInactivityTimeout, "Default timeout between received chunks")
	flags.String("user-agent", "", "Default User-Agent header")

	// Output flags
	flags.BoolP("verbose", "v", false, "Log every action start and finish")
	flags.String("log-format", string(LogFormatText), "Log output format (text or json)")
	flags.Bool("log-errors", false, "Log each failed exchange to stderr")
	flags.Bool("json-output", false, "Emit JSON formatted output")
	flags.String("report-file", "", "Write every exchange record as JSON lines to this file")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Performance thresholds (repeatable, e.g., 'http_req_duration:p95 < 500')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint for exchange spans")
	flags.String("tracing-protocol", "grpc", "OTLP protocol (grpc or http)")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", 1.0, "Fraction of exchanges traced (0.0 to 1.0)")
	flags.Bool("tracing-propagate", true, "Inject W3C trace context headers into requests")
	flags.String("tracing-service-name", "", "Service name reported with spans")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("max-connections") {
		if cfg.MaxConnections, err = fs.GetInt("max-connections"); err != nil {
			return err
		}
	}
	if fs.Changed("rate") {
		if cfg.Rate, err = fs.GetInt("rate"); err != nil {
			return err
		}
	}
	if fs.Changed("arrival-model") {
		val, err := fs.GetString("arrival-model")
		if err != nil {
			return err
		}
		cfg.Arrival.Model = ArrivalModel(val)
	}
	if fs.Changed("users") {
		if cfg.Users, err = fs.GetInt("users"); err != nil {
			return err
		}
	}
	if fs.Changed("iterations") {
		if cfg.Iterations, err = fs.GetInt("iterations"); err != nil {
			return err
		}
	}
	if fs.Changed("duration") {
		if cfg.Duration, err = fs.GetDuration("duration"); err != nil {
			return err
		}
	}
	if fs.Changed("connect-timeout") {
		if cfg.ConnectTimeout, err = fs.GetDuration("connect-timeout"); err != nil {
			return err
		}
	}
	if fs.Changed("inactivity-timeout") {
		if cfg.InactivityTimeout, err = fs.GetDuration("inactivity-timeout"); err != nil {
			return err
		}
	}
	if fs.Changed("user-agent") {
		if cfg.UserAgent, err = fs.GetString("user-agent"); err != nil {
			return err
		}
	}
	if fs.Changed("verbose") {
		if cfg.Verbose, err = fs.GetBool("verbose"); err != nil {
			return err
		}
	}
	if fs.Changed("log-format") {
		val, err := fs.GetString("log-format")
		if err != nil {
			return err
		}
		cfg.LogFormat = LogFormat(val)
	}
	if fs.Changed("log-errors") {
		if cfg.LogErrors, err = fs.GetBool("log-errors"); err != nil {
			return err
		}
	}
	if fs.Changed("json-output") {
		if cfg.JSONOutput, err = fs.GetBool("json-output"); err != nil {
			return err
		}
	}
	if fs.Changed("report-file") {
		if cfg.ReportFile, err = fs.GetString("report-file"); err != nil {
			return err
		}
	}
	if fs.Changed("threshold") {
		if cfg.Thresholds, err = fs.GetStringSlice("threshold"); err != nil {
			return err
		}
	}
	return applyTracingFlags(&cfg.Tracing, fs)
}

func applyTracingFlags(tc *TracingConfig, fs *pflag.FlagSet) error {
	var err error
	if fs.Changed("tracing-endpoint") {
		if tc.Endpoint, err = fs.GetString("tracing-endpoint"); err != nil {
			return err
		}
	}
	if fs.Changed("tracing-protocol") {
		if tc.Protocol, err = fs.GetString("tracing-protocol"); err != nil {
			return err
		}
	}
	if fs.Changed("tracing-insecure") {
		if tc.Insecure, err = fs.GetBool("tracing-insecure"); err != nil {
			return err
		}
	}
	if fs.Changed("tracing-sample-rate") {
		if tc.SampleRate, err = fs.GetFloat64("tracing-sample-rate"); err != nil {
			return err
		}
	}
	if fs.Changed("tracing-propagate") {
		val, err := fs.GetBool("tracing-propagate")
		if err != nil {
			return err
		}
		tc.Propagate = &val
	}
	if fs.Changed("tracing-service-name") {
		if tc.ServiceName, err = fs.GetString("tracing-service-name"); err != nil {
			return err
		}
	}
	return nil
}
