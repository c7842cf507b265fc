package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses command-line arguments and the optional configuration file to
// produce a Config. The first positional argument names the scenario file.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	// Nothing to run: show usage.
	configPath := flagSet.Lookup("config").Value.String()
	if len(args) == 0 && configPath == "" {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}
	if flagSet.NArg() > 1 {
		return nil, fmt.Errorf("expected a single scenario file, got %d arguments", flagSet.NArg())
	}

	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	settings := cfgViper.AllSettings()

	cfg := &Config{
		MaxConnections:    DefaultMaxConnections,
		Users:             1,
		Iterations:        1,
		ConnectTimeout:    DefaultConnectTimeout,
		InactivityTimeout: DefaultInactivityTimeout,
		LogFormat:         LogFormatText,
		ConfigFile:        configPath,
		Arrival:           ArrivalConfig{Model: ArrivalModelUniform},
		Tracing:           TracingConfig{SampleRate: 1.0},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	if flagSet.NArg() == 1 {
		cfg.ScenarioFile = strings.TrimSpace(flagSet.Arg(0))
	}
	cfg.Arrival.Model = ArrivalModel(strings.ToLower(strings.TrimSpace(string(cfg.Arrival.Model))))
	cfg.LogFormat = LogFormat(strings.ToLower(strings.TrimSpace(string(cfg.LogFormat))))
	cfg.ReportFile = strings.TrimSpace(cfg.ReportFile)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if v, ok := lookupSetting(settings, "scenario", "scenario_file", "scenario-file"); ok {
		str, err := asString(v)
		if err != nil {
			return fmt.Errorf("scenario: %w", err)
		}
		cfg.ScenarioFile = strings.TrimSpace(str)
	}
	if v, ok := lookupSetting(settings, "max_connections", "max-connections", "maxConnections"); ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("max_connections: %w", err)
		}
		cfg.MaxConnections = n
	}
	if v, ok := lookupSetting(settings, "rate"); ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("rate: %w", err)
		}
		cfg.Rate = n
	}
	if v, ok := lookupSetting(settings, "arrival"); ok {
		arrival, err := parseArrival(v)
		if err != nil {
			return fmt.Errorf("arrival: %w", err)
		}
		cfg.Arrival = arrival
	}
	if v, ok := lookupSetting(settings, "arrival_model", "arrival-model", "arrivalModel"); ok {
		str, err := asString(v)
		if err != nil {
			return fmt.Errorf("arrival_model: %w", err)
		}
		cfg.Arrival.Model = ArrivalModel(str)
	}
	if v, ok := lookupSetting(settings, "users"); ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("users: %w", err)
		}
		cfg.Users = n
	}
	if v, ok := lookupSetting(settings, "iterations"); ok {
		n, err := asInt(v)
		if err != nil {
			return fmt.Errorf("iterations: %w", err)
		}
		cfg.Iterations = n
	}
	if v, ok := lookupSetting(settings, "duration"); ok {
		d, err := asDuration(v)
		if err != nil {
			return fmt.Errorf("duration: %w", err)
		}
		cfg.Duration = d
	}
	if v, ok := lookupSetting(settings, "connect_timeout", "connect-timeout", "connectTimeout"); ok {
		d, err := asDuration(v)
		if err != nil {
			return fmt.Errorf("connect_timeout: %w", err)
		}
		cfg.ConnectTimeout = d
	}
	if v, ok := lookupSetting(settings, "inactivity_timeout", "inactivity-timeout", "inactivityTimeout"); ok {
		d, err := asDuration(v)
		if err != nil {
			return fmt.Errorf("inactivity_timeout: %w", err)
		}
		cfg.InactivityTimeout = d
	}
	if v, ok := lookupSetting(settings, "user_agent", "user-agent", "userAgent"); ok {
		str, err := asString(v)
		if err != nil {
			return fmt.Errorf("user_agent: %w", err)
		}
		cfg.UserAgent = str
	}
	if v, ok := lookupSetting(settings, "verbose"); ok {
		b, err := asBool(v)
		if err != nil {
			return fmt.Errorf("verbose: %w", err)
		}
		cfg.Verbose = b
	}
	if v, ok := lookupSetting(settings, "log_format", "log-format", "logFormat"); ok {
		str, err := asString(v)
		if err != nil {
			return fmt.Errorf("log_format: %w", err)
		}
		cfg.LogFormat = LogFormat(str)
	}
	if v, ok := lookupSetting(settings, "log_errors", "log-errors", "logErrors"); ok {
		b, err := asBool(v)
		if err != nil {
			return fmt.Errorf("log_errors: %w", err)
		}
		cfg.LogErrors = b
	}
	if v, ok := lookupSetting(settings, "json_output", "json-output", "jsonOutput"); ok {
		b, err := asBool(v)
		if err != nil {
			return fmt.Errorf("json_output: %w", err)
		}
		cfg.JSONOutput = b
	}
	if v, ok := lookupSetting(settings, "report_file", "report-file", "reportFile"); ok {
		str, err := asString(v)
		if err != nil {
			return fmt.Errorf("report_file: %w", err)
		}
		cfg.ReportFile = str
	}
	if v, ok := lookupSetting(settings, "thresholds"); ok {
		list, err := asStringSlice(v)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = list
	}
	if v, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(v)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}
	return nil
}

func parseArrival(value interface{}) (ArrivalConfig, error) {
	if value == nil {
		return ArrivalConfig{}, nil
	}
	if str, ok := value.(string); ok {
		return ArrivalConfig{Model: ArrivalModel(str)}, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return ArrivalConfig{}, err
	}
	var arrival ArrivalConfig
	if v, ok := lookupSetting(settings, "model"); ok {
		str, err := asString(v)
		if err != nil {
			return ArrivalConfig{}, fmt.Errorf("model: %w", err)
		}
		arrival.Model = ArrivalModel(str)
	}
	return arrival, nil
}

func parseTracing(value interface{}) (TracingConfig, error) {
	if value == nil {
		return TracingConfig{SampleRate: 1.0}, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}
	tc := TracingConfig{SampleRate: 1.0}
	if v, ok := lookupSetting(settings, "endpoint"); ok {
		if tc.Endpoint, err = asString(v); err != nil {
			return TracingConfig{}, fmt.Errorf("endpoint: %w", err)
		}
	}
	if v, ok := lookupSetting(settings, "protocol"); ok {
		if tc.Protocol, err = asString(v); err != nil {
			return TracingConfig{}, fmt.Errorf("protocol: %w", err)
		}
	}
	if v, ok := lookupSetting(settings, "insecure"); ok {
		if tc.Insecure, err = asBool(v); err != nil {
			return TracingConfig{}, fmt.Errorf("insecure: %w", err)
		}
	}
	if v, ok := lookupSetting(settings, "sample_rate", "sample-rate", "sampleRate"); ok {
		if tc.SampleRate, err = asFloat64(v); err != nil {
			return TracingConfig{}, fmt.Errorf("sample_rate: %w", err)
		}
	}
	if v, ok := lookupSetting(settings, "propagate"); ok {
		b, err := asBool(v)
		if err != nil {
			return TracingConfig{}, fmt.Errorf("propagate: %w", err)
		}
		tc.Propagate = &b
	}
	if v, ok := lookupSetting(settings, "service_name", "service-name", "serviceName"); ok {
		if tc.ServiceName, err = asString(v); err != nil {
			return TracingConfig{}, fmt.Errorf("service_name: %w", err)
		}
	}
	return tc, nil
}
