package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the runner and reporting settings of one stampede run. The
// workload itself lives in the scenario file.
type Config struct {
	ScenarioFile      string        `mapstructure:"-"`
	MaxConnections    int           `mapstructure:"max_connections"`
	Rate              int           `mapstructure:"rate"`
	Arrival           ArrivalConfig `mapstructure:"arrival"`
	Users             int           `mapstructure:"users"`
	Iterations        int           `mapstructure:"iterations"`
	Duration          time.Duration `mapstructure:"duration"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	InactivityTimeout time.Duration `mapstructure:"inactivity_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
	Verbose           bool          `mapstructure:"verbose"`
	LogFormat         LogFormat     `mapstructure:"log_format"`
	LogErrors         bool          `mapstructure:"log_errors"`
	JSONOutput        bool          `mapstructure:"json_output"`
	ReportFile        string        `mapstructure:"report_file"`
	Thresholds        []string      `mapstructure:"thresholds"`
	Tracing           TracingConfig `mapstructure:"tracing"`
	ConfigFile        string        `mapstructure:"-"`
}

const (
	DefaultMaxConnections    = 10000
	DefaultConnectTimeout    = 30 * time.Second
	DefaultInactivityTimeout = 60 * time.Second
)

type ArrivalModel string

const (
	ArrivalModelUniform ArrivalModel = "uniform"
	ArrivalModelPoisson ArrivalModel = "poisson"
)

type ArrivalConfig struct {
	Model ArrivalModel `mapstructure:"model"`
}

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TracingConfig configures OTLP span export for HTTP exchanges.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   *bool   `mapstructure:"propagate"`
	ServiceName string  `mapstructure:"service_name"`
}

// Enabled reports whether an exporter endpoint is configured, either directly
// or through OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	if strings.TrimSpace(t.Endpoint) != "" {
		return true
	}
	return os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != ""
}

// ShouldPropagate reports whether W3C trace headers are injected into
// outgoing requests. It defaults to true once tracing is enabled.
func (t TracingConfig) ShouldPropagate() bool {
	if t.Propagate != nil {
		return *t.Propagate
	}
	return t.Enabled()
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.ScenarioFile) == "" {
		issues = append(issues, "scenario file is required (usage: stampede start FILE)")
	}

	if c.Rate > 1000 {
		fmt.Fprintf(os.Stderr, "WARNING: High rate limit configured (%d RPS). Ensure you have authorization to test the target system.\n", c.Rate)
	}
	if c.Users > 500 {
		fmt.Fprintf(os.Stderr, "WARNING: High user count configured (%d users). Ensure you have authorization to test the target system.\n", c.Users)
	}

	if c.MaxConnections < 1 {
		issues = append(issues, "max-connections must be >= 1")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Users < 1 {
		issues = append(issues, "users must be >= 1")
	}
	if c.Iterations < 1 {
		issues = append(issues, "iterations must be >= 1")
	}
	if c.Duration < 0 {
		issues = append(issues, "duration must be >= 0")
	}
	if c.ConnectTimeout < 0 {
		issues = append(issues, "connect-timeout must be >= 0")
	}
	if c.InactivityTimeout < 0 {
		issues = append(issues, "inactivity-timeout must be >= 0")
	}

	switch c.Arrival.Model {
	case "", ArrivalModelUniform, ArrivalModelPoisson:
	default:
		issues = append(issues, fmt.Sprintf("arrival model %q is not supported (use uniform or poisson)", c.Arrival.Model))
	}
	switch c.LogFormat {
	case "", LogFormatText, LogFormatJSON:
	default:
		issues = append(issues, fmt.Sprintf("log format %q is not supported (use text or json)", c.LogFormat))
	}

	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		issues = append(issues, "tracing sample rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(c.Tracing.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing protocol %q is not supported (use grpc or http)", c.Tracing.Protocol))
	}

	for i, th := range c.Thresholds {
		if strings.TrimSpace(th) == "" {
			issues = append(issues, fmt.Sprintf("thresholds[%d]: must not be empty", i))
		}
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}
