package runner_test

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/torosent/stampede/internal/report"
	"github.com/torosent/stampede/internal/runner"
	"github.com/torosent/stampede/internal/scenario"
)

type recordingSink struct {
	primary []report.Record
	seq     map[string][]report.Record
}

func (s *recordingSink) Report(rec report.Record) { s.primary = append(s.primary, rec) }

func (s *recordingSink) ReportSequence(key string, rec report.Record) {
	if s.seq == nil {
		s.seq = map[string][]report.Record{}
	}
	s.seq[key] = append(s.seq[key], rec)
}

// spawnLeaf returns a leaf that sleeps off the loop for d and then finishes.
func spawnLeaf(d time.Duration, inFlight, peak *int64) *scenario.Leaf {
	return scenario.Func("spawn", func(a scenario.Action) {
		a.Context().Runtime().Spawn(func(ctx context.Context, post func(fn func())) func() {
			n := atomic.AddInt64(inFlight, 1)
			for {
				p := atomic.LoadInt64(peak)
				if n <= p || atomic.CompareAndSwapInt64(peak, p, n) {
					break
				}
			}
			time.Sleep(d)
			atomic.AddInt64(inFlight, -1)
			return a.Finish
		})
	})
}

func TestRunnerRunsUsersAndIterations(t *testing.T) {
	var runs int
	bp := scenario.Func("count", func(a scenario.Action) {
		runs++
		a.Finish()
	})

	r := runner.New(runner.Options{Users: 3, Iterations: 4})
	res := r.Run(context.Background(), bp)
	if res.Started != 12 || res.Finished != 12 {
		t.Fatalf("expected 12 runs started and finished, got %d/%d", res.Started, res.Finished)
	}
	if runs != 12 {
		t.Fatalf("expected leaf run 12 times, got %d", runs)
	}
	if res.Canceled {
		t.Fatalf("expected run not canceled")
	}
}

func TestRunnerWaitsForSpawnedWork(t *testing.T) {
	var inFlight, peak int64
	root := scenario.NewGroup("all")
	for i := 0; i < 5; i++ {
		root.Push(spawnLeaf(5*time.Millisecond, &inFlight, &peak))
	}

	res := runner.New(runner.Options{}).Run(context.Background(), root)
	if res.Finished != 1 {
		t.Fatalf("expected root run finished, got %d", res.Finished)
	}
	if atomic.LoadInt64(&inFlight) != 0 {
		t.Fatalf("expected no work in flight after Run returned")
	}
}

func TestRunnerAdmissionControl(t *testing.T) {
	var inFlight, peak int64
	root := scenario.NewGroup("all")
	for i := 0; i < 8; i++ {
		root.Push(spawnLeaf(10*time.Millisecond, &inFlight, &peak))
	}

	res := runner.New(runner.Options{MaxConnections: 2}).Run(context.Background(), root)
	if res.Finished != 1 {
		t.Fatalf("expected root run finished, got %d", res.Finished)
	}
	if got := atomic.LoadInt64(&peak); got > 2 {
		t.Fatalf("expected at most 2 concurrent exchanges, got %d", got)
	}
}

func TestRunnerPacesAdmissions(t *testing.T) {
	var inFlight, peak int64
	root := scenario.NewGroup("all")
	for i := 0; i < 4; i++ {
		root.Push(spawnLeaf(0, &inFlight, &peak))
	}

	r := runner.New(runner.Options{
		RatePerSecond:  100,
		ArrivalModel:   runner.ArrivalModelPoisson,
		PoissonSampler: func() float64 { return 1 },
	})
	start := time.Now()
	res := r.Run(context.Background(), root)
	if res.Finished != 1 {
		t.Fatalf("expected root run finished, got %d", res.Finished)
	}
	if elapsed := time.Since(start); elapsed < 35*time.Millisecond {
		t.Fatalf("expected four 10ms admission slots, run took %s", elapsed)
	}
}

func TestRunnerPostsEventsInOrder(t *testing.T) {
	var got []int
	bp := scenario.Func("events", func(a scenario.Action) {
		a.Context().Runtime().Spawn(func(ctx context.Context, post func(fn func())) func() {
			for i := 0; i < 50; i++ {
				post(func() { got = append(got, i) })
			}
			return func() {
				got = append(got, -1)
				a.Finish()
			}
		})
	})

	runner.New(runner.Options{}).Run(context.Background(), bp)
	if len(got) != 51 {
		t.Fatalf("expected 51 events, got %d", len(got))
	}
	for i := 0; i < 50; i++ {
		if got[i] != i {
			t.Fatalf("expected event %d at position %d, got %d", i, i, got[i])
		}
	}
	if got[50] != -1 {
		t.Fatalf("expected continuation last, got %d", got[50])
	}
}

func TestRunnerHonorsDuration(t *testing.T) {
	bp := scenario.Func("never", func(a scenario.Action) {})
	r := runner.New(runner.Options{Duration: 50 * time.Millisecond})

	start := time.Now()
	res := r.Run(context.Background(), bp)
	elapsed := time.Since(start)
	if elapsed < 50*time.Millisecond || elapsed > 500*time.Millisecond {
		t.Fatalf("duration enforcement off: %s", elapsed)
	}
	if !res.Canceled {
		t.Fatalf("expected run canceled by duration")
	}
	if res.Finished != 0 {
		t.Fatalf("expected unfinished run, got %d finished", res.Finished)
	}
}

func TestRunnerStopsIterationsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs int
	bp := scenario.Func("cancel", func(a scenario.Action) {
		runs++
		if runs == 3 {
			cancel()
		}
		a.Context().Runtime().After(time.Millisecond, a.Finish)
	})

	res := runner.New(runner.Options{Iterations: 100}).Run(ctx, bp)
	if !res.Canceled {
		t.Fatalf("expected canceled run")
	}
	if res.Started != 3 {
		t.Fatalf("expected 3 runs started, got %d", res.Started)
	}
}

func TestRunnerForwardsReports(t *testing.T) {
	sink := &recordingSink{}
	bp := scenario.Func("report", func(a scenario.Action) {
		rt := a.Context().Runtime()
		rt.Report(report.Record{Method: "GET", Success: true})
		rt.ReportSequence(report.SubrequestsKey, report.Record{Method: "GET", Status: 401, Success: true})
		a.Finish()
	})

	runner.New(runner.Options{Sink: sink}).Run(context.Background(), bp)
	if len(sink.primary) != 1 {
		t.Fatalf("expected 1 primary record, got %d", len(sink.primary))
	}
	if len(sink.seq[report.SubrequestsKey]) != 1 {
		t.Fatalf("expected 1 subrequest record, got %d", len(sink.seq[report.SubrequestsKey]))
	}
}

func TestRunnerAttachesRunID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	bp := scenario.Func("logged", func(a scenario.Action) { a.Finish() })

	runner.New(runner.Options{Logger: logger}).Run(context.Background(), bp)
	out := buf.String()
	if !strings.Contains(out, "run_id=") {
		t.Fatalf("expected run_id in log output, got %q", out)
	}
	if !strings.Contains(out, "action started") || !strings.Contains(out, "action=logged") {
		t.Fatalf("expected action start logged, got %q", out)
	}
}

func TestWithLoggingLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	sink := &recordingSink{}
	logged := runner.WithLogging(sink, slog.New(slog.NewTextHandler(&buf, nil)))

	logged.Report(report.Record{Method: "GET", URL: "http://x/", Success: true})
	if buf.Len() != 0 {
		t.Fatalf("expected no log for successful record, got %q", buf.String())
	}
	logged.Report(report.Record{Method: "GET", URL: "http://x/", Error: "connection refused"})
	if !strings.Contains(buf.String(), "connection refused") {
		t.Fatalf("expected failure logged, got %q", buf.String())
	}
	if len(sink.primary) != 2 {
		t.Fatalf("expected records forwarded, got %d", len(sink.primary))
	}
}
