package runner

import (
	"testing"

	"golang.org/x/time/rate"

	"github.com/torosent/stampede/internal/report"
)

func TestOptionsNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    Options
		validate func(*testing.T, Options)
	}{
		{
			name:  "defaults",
			input: Options{},
			validate: func(t *testing.T, o Options) {
				if o.MaxConnections != DefaultMaxConnections {
					t.Errorf("MaxConnections = %d, want %d", o.MaxConnections, DefaultMaxConnections)
				}
				if o.ArrivalModel != ArrivalModelUniform {
					t.Errorf("ArrivalModel = %q, want %q", o.ArrivalModel, ArrivalModelUniform)
				}
				if o.Users != 1 || o.Iterations != 1 {
					t.Errorf("Users/Iterations = %d/%d, want 1/1", o.Users, o.Iterations)
				}
				if o.Sink != report.Discard {
					t.Error("Sink should default to Discard")
				}
				if o.Logger == nil {
					t.Error("Logger should not be nil")
				}
				if o.RandomSeed == 0 {
					t.Error("RandomSeed should be non-zero")
				}
				if o.LimiterFactory == nil {
					t.Error("LimiterFactory should not be nil")
				}
			},
		},
		{
			name: "negative values corrected",
			input: Options{
				MaxConnections: -5,
				RatePerSecond:  -1,
				Users:          -2,
				Iterations:     -3,
			},
			validate: func(t *testing.T, o Options) {
				if o.MaxConnections != DefaultMaxConnections {
					t.Errorf("MaxConnections = %d, want %d", o.MaxConnections, DefaultMaxConnections)
				}
				if o.RatePerSecond != 0 {
					t.Errorf("RatePerSecond = %d, want 0", o.RatePerSecond)
				}
				if o.Users != 1 || o.Iterations != 1 {
					t.Errorf("Users/Iterations = %d/%d, want 1/1", o.Users, o.Iterations)
				}
			},
		},
		{
			name:  "explicit values kept",
			input: Options{MaxConnections: 3, ArrivalModel: ArrivalModelPoisson, RandomSeed: 7},
			validate: func(t *testing.T, o Options) {
				if o.MaxConnections != 3 {
					t.Errorf("MaxConnections = %d, want 3", o.MaxConnections)
				}
				if o.ArrivalModel != ArrivalModelPoisson {
					t.Errorf("ArrivalModel = %q, want %q", o.ArrivalModel, ArrivalModelPoisson)
				}
				if o.RandomSeed != 7 {
					t.Errorf("RandomSeed = %d, want 7", o.RandomSeed)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.input
			opts.normalize()
			tt.validate(t, opts)
		})
	}
}

func TestDefaultLimiterFactory(t *testing.T) {
	opts := Options{}
	opts.normalize()

	if l := opts.LimiterFactory(0); l.Limit() != rate.Inf {
		t.Fatalf("expected unlimited limiter for rps 0, got %v", l.Limit())
	}
	l := opts.LimiterFactory(20)
	if l.Limit() != rate.Limit(20) || l.Burst() != 20 {
		t.Fatalf("expected limit 20 burst 20, got %v/%d", l.Limit(), l.Burst())
	}
}
