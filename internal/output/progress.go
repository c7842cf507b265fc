package output

import (
	"fmt"
	"io"
	"sort"
	"sync/atomic"
	"time"

	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/internal/report"
)

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	collector *metrics.Collector
	ticker    *time.Ticker
	done      chan struct{}
	finished  chan struct{}
	writer    io.Writer
	active    int32
	start     time.Time
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(collector *metrics.Collector, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	return &ProgressReporter{
		collector: collector,
		ticker:    time.NewTicker(interval),
		done:      make(chan struct{}),
		finished:  make(chan struct{}),
		writer:    writer,
		start:     time.Now(),
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			elapsed := time.Since(p.start)
			stats := p.collector.Stats(elapsed)
			line := fmt.Sprintf("\rRequests: %d | Successes: %d | Failures: %d | RPS: %.1f",
				stats.Total, stats.Successes, stats.Failures, stats.RequestsPerSec)
			if name, action, ok := topActionSnapshot(stats); ok && stats.Total > 0 {
				share := (float64(action.Total) / float64(stats.Total)) * 100
				line += fmt.Sprintf(" | Top Action: %s (%.0f%%, P95 %.1fms)", name, share, action.P95LatencyMs)
			}
			if n := stats.Sequences[report.SubrequestsKey]; n > 0 {
				line += fmt.Sprintf(" | Auth: %d", n)
			}
			fmt.Fprint(p.writer, line)
		case <-p.done:
			return
		}
	}
}

func topActionSnapshot(stats metrics.Stats) (string, metrics.ActionStats, bool) {
	if len(stats.Actions) == 0 {
		return "", metrics.ActionStats{}, false
	}
	names := make([]string, 0, len(stats.Actions))
	for name := range stats.Actions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		ti, tj := stats.Actions[names[i]].Total, stats.Actions[names[j]].Total
		if ti == tj {
			return names[i] < names[j]
		}
		return ti > tj
	})
	name := names[0]
	return name, stats.Actions[name], true
}
