package config

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}

	if _, err := asInt([]int{1}); err == nil {
		t.Errorf("asInt(slice) expected error")
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{"1s", time.Second},
		{"500ms", 500 * time.Millisecond},
		{5, 5 * time.Second},
		{float64(2), 2 * time.Second},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %s, want %s", tt.input, got, tt.want)
		}
	}

	if _, err := asDuration("soon"); err == nil {
		t.Errorf("asDuration(soon) expected error")
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := &Config{}
	settings := map[string]interface{}{
		"max-connections": 12,
		"arrival_model":   "poisson",
		"verbose":         "true",
		"log_format":      "json",
		"thresholds":      []interface{}{"http_requests:count > 1"},
		"tracing": map[interface{}]interface{}{
			"Endpoint":  "localhost:4317",
			"propagate": false,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}
	if cfg.MaxConnections != 12 {
		t.Errorf("MaxConnections = %d, want 12", cfg.MaxConnections)
	}
	if cfg.Arrival.Model != ArrivalModelPoisson {
		t.Errorf("Arrival.Model = %q, want poisson", cfg.Arrival.Model)
	}
	if !cfg.Verbose {
		t.Errorf("Verbose = false, want true")
	}
	if cfg.LogFormat != LogFormatJSON {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if len(cfg.Thresholds) != 1 {
		t.Errorf("Thresholds len = %d, want 1", len(cfg.Thresholds))
	}
	if cfg.Tracing.Endpoint != "localhost:4317" {
		t.Errorf("Tracing.Endpoint = %q", cfg.Tracing.Endpoint)
	}
	if cfg.Tracing.Propagate == nil || *cfg.Tracing.Propagate {
		t.Errorf("Tracing.Propagate should be explicitly false")
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("Tracing.SampleRate = %v, want default 1.0", cfg.Tracing.SampleRate)
	}
}

func TestApplyConfigSettingsInvalid(t *testing.T) {
	tests := map[string]map[string]interface{}{
		"users":    {"users": "many"},
		"duration": {"duration": "forever"},
		"verbose":  {"verbose": "loud"},
		"tracing":  {"tracing": "on"},
	}
	for name, settings := range tests {
		t.Run(name, func(t *testing.T) {
			if err := applyConfigSettings(&Config{}, settings); err == nil {
				t.Fatalf("expected error for %v", settings)
			}
		})
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)
	if err := fs.Parse([]string{"--rate", "7", "--report-file", "out.jsonl", "--tracing-sample-rate", "0.25"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	cfg := &Config{Rate: 1, Users: 3, Tracing: TracingConfig{SampleRate: 1}}
	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}
	if cfg.Rate != 7 {
		t.Errorf("Rate = %d, want 7", cfg.Rate)
	}
	if cfg.Users != 3 {
		t.Errorf("Users = %d, want untouched 3", cfg.Users)
	}
	if cfg.ReportFile != "out.jsonl" {
		t.Errorf("ReportFile = %q", cfg.ReportFile)
	}
	if cfg.Tracing.SampleRate != 0.25 {
		t.Errorf("SampleRate = %v, want 0.25", cfg.Tracing.SampleRate)
	}
	if cfg.Tracing.Propagate != nil {
		t.Errorf("Propagate should stay unset when the flag is not given")
	}
}
