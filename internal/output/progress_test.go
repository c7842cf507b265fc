package output

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/internal/report"
)

// syncBuffer guards a bytes.Buffer written by the reporter goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgressReporterStopWithoutStart(t *testing.T) {
	collector := metrics.NewCollector()
	reporter := NewProgressReporter(collector, 100*time.Millisecond, nil)
	if reporter == nil {
		t.Fatal("Expected non-nil reporter")
	}
	reporter.Stop()
}

func TestProgressReporterFormatting(t *testing.T) {
	collector := metrics.NewCollector()
	collector.Start()
	collector.Report(report.Record{Action: "home", Status: 200, Latency: 50 * time.Millisecond, Success: true})
	collector.ReportSequence(report.SubrequestsKey, report.Record{Status: 401, Success: true})

	var buf syncBuffer
	reporter := NewProgressReporter(collector, 20*time.Millisecond, &buf)
	reporter.Start()
	time.Sleep(100 * time.Millisecond)
	reporter.Stop()

	output := buf.String()
	if !strings.Contains(output, "Requests: 1") {
		t.Errorf("Expected 'Requests: 1' in progress output, got %q", output)
	}
	if !strings.Contains(output, "Top Action: home") {
		t.Errorf("Expected top action in progress output, got %q", output)
	}
	if !strings.Contains(output, "Auth: 1") {
		t.Errorf("Expected subrequest count in progress output, got %q", output)
	}
}
