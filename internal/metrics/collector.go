package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/stampede/internal/report"
)

// PrimaryChannel names the status buckets of records reported through
// Report rather than a sequence.
const PrimaryChannel = "primary"

// Collector aggregates report records. It implements report.Sink and is safe
// to read from other goroutines while the run loop records into it.
type Collector struct {
	mu         sync.Mutex
	overall    *series
	actions    map[string]*series
	authTrips  map[string]int64
	statuses   map[string]map[string]int
	sequences  map[string]int64
	errors     map[string]int64
	bytes      int64
	compressed int64
	start      time.Time
}

// series holds latency and outcome counters for one group of records.
type series struct {
	hist       *hdrhistogram.Histogram
	successes  int64
	failures   int64
	minLatency time.Duration
	maxLatency time.Duration
	sumLatency time.Duration
}

func newSeries() *series {
	// Track latencies from 1µs up to 60s with 3 significant figures.
	return &series{hist: hdrhistogram.New(1, 60_000_000, 3)}
}

func (s *series) record(latency time.Duration, success bool) {
	if latency > 0 {
		us := latency.Microseconds()
		if us < s.hist.LowestTrackableValue() {
			us = s.hist.LowestTrackableValue()
		}
		if us > s.hist.HighestTrackableValue() {
			us = s.hist.HighestTrackableValue()
		}
		_ = s.hist.RecordValue(us)
	}
	s.sumLatency += latency

	if s.minLatency == 0 || latency < s.minLatency {
		s.minLatency = latency
	}
	if latency > s.maxLatency {
		s.maxLatency = latency
	}
	if success {
		s.successes++
	} else {
		s.failures++
	}
}

func (s *series) quantile(q float64) time.Duration {
	if s.hist.TotalCount() == 0 {
		return 0
	}
	return time.Duration(s.hist.ValueAtQuantile(q)) * time.Microsecond
}

// Stats represents aggregated metrics.
type Stats struct {
	Total          int64         `json:"total"`
	Successes      int64         `json:"successes"`
	Failures       int64         `json:"failures"`
	MinLatency     time.Duration `json:"-"`
	MaxLatency     time.Duration `json:"-"`
	MeanLatency    time.Duration `json:"-"`
	P50Latency     time.Duration `json:"-"`
	P90Latency     time.Duration `json:"-"`
	P95Latency     time.Duration `json:"-"`
	P99Latency     time.Duration `json:"-"`
	Duration       time.Duration `json:"-"`
	RequestsPerSec float64       `json:"requests_per_sec"`
	Bytes          int64         `json:"bytes"`
	Compressed     int64         `json:"compressed"`

	// JSON-friendly millisecond fields.
	MinLatencyMs  float64 `json:"min_latency_ms"`
	MaxLatencyMs  float64 `json:"max_latency_ms"`
	MeanLatencyMs float64 `json:"mean_latency_ms"`
	P50LatencyMs  float64 `json:"p50_latency_ms"`
	P90LatencyMs  float64 `json:"p90_latency_ms"`
	P95LatencyMs  float64 `json:"p95_latency_ms"`
	P99LatencyMs  float64 `json:"p99_latency_ms"`
	DurationMs    float64 `json:"duration_ms"`

	StatusBuckets map[string]map[string]int `json:"status_buckets,omitempty"`
	Sequences     map[string]int            `json:"sequences,omitempty"`
	Errors        map[string]int            `json:"errors,omitempty"`
	Actions       map[string]ActionStats    `json:"actions,omitempty"`
}

// ActionStats is the per-action breakdown of primary records. Subrequests
// counts the authentication round trips the action needed.
type ActionStats struct {
	Total          int64   `json:"total"`
	Successes      int64   `json:"successes"`
	Failures       int64   `json:"failures"`
	Subrequests    int64   `json:"subrequests,omitempty"`
	MinLatencyMs   float64 `json:"min_latency_ms"`
	MaxLatencyMs   float64 `json:"max_latency_ms"`
	MeanLatencyMs  float64 `json:"mean_latency_ms"`
	P50LatencyMs   float64 `json:"p50_latency_ms"`
	P90LatencyMs   float64 `json:"p90_latency_ms"`
	P95LatencyMs   float64 `json:"p95_latency_ms"`
	P99LatencyMs   float64 `json:"p99_latency_ms"`
	RequestsPerSec float64 `json:"requests_per_sec"`
}

func NewCollector() *Collector {
	return &Collector{
		overall:   newSeries(),
		actions:   make(map[string]*series),
		authTrips: make(map[string]int64),
		statuses:  make(map[string]map[string]int),
		sequences: make(map[string]int64),
		errors:    make(map[string]int64),
		start:     time.Now(),
	}
}

// Start resets the clock used for Elapsed.
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.start = time.Now()
}

// Elapsed returns the time since the collector was created or started.
func (c *Collector) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Since(c.start)
}

// Report records the primary outcome of an action.
func (c *Collector) Report(rec report.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.overall.record(rec.Latency, rec.Success)
	name := actionName(rec)
	s, ok := c.actions[name]
	if !ok {
		s = newSeries()
		c.actions[name] = s
	}
	s.record(rec.Latency, rec.Success)

	c.bucket(PrimaryChannel, rec)
	c.bytes += int64(rec.Length)
	if rec.Compressed {
		c.compressed++
	}
	if !rec.Success {
		c.errors[ErrorClass(rec.Error)]++
	}
}

// ReportSequence counts a record of a side channel. It does not affect the
// latency figures.
func (c *Collector) ReportSequence(key string, rec report.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sequences[key]++
	if key == report.SubrequestsKey {
		c.authTrips[actionName(rec)]++
	}
	c.bucket(key, rec)
	if !rec.Success {
		c.errors[ErrorClass(rec.Error)]++
	}
}

// actionName keys per-action figures. Unnamed requests are keyed by
// method and URL.
func actionName(rec report.Record) string {
	if rec.Action != "" {
		return rec.Action
	}
	return rec.Method + " " + rec.URL
}

func (c *Collector) bucket(channel string, rec report.Record) {
	code := "error"
	if rec.Status > 0 {
		code = strconv.Itoa(rec.Status)
	}
	codes, ok := c.statuses[channel]
	if !ok {
		codes = make(map[string]int)
		c.statuses[channel] = codes
	}
	codes[code]++
}

// Stats computes and returns current aggregated statistics.
func (c *Collector) Stats(elapsed time.Duration) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	o := c.overall
	total := o.successes + o.failures
	stats := Stats{
		Total:      total,
		Successes:  o.successes,
		Failures:   o.failures,
		MinLatency: o.minLatency,
		MaxLatency: o.maxLatency,
		P50Latency: o.quantile(50),
		P90Latency: o.quantile(90),
		P95Latency: o.quantile(95),
		P99Latency: o.quantile(99),
		Bytes:      c.bytes,
		Compressed: c.compressed,
	}
	if total > 0 {
		stats.MeanLatency = time.Duration(int64(o.sumLatency) / total)
	}

	stats.MinLatencyMs = ms(stats.MinLatency)
	stats.MaxLatencyMs = ms(stats.MaxLatency)
	stats.MeanLatencyMs = ms(stats.MeanLatency)
	stats.P50LatencyMs = ms(stats.P50Latency)
	stats.P90LatencyMs = ms(stats.P90Latency)
	stats.P95LatencyMs = ms(stats.P95Latency)
	stats.P99LatencyMs = ms(stats.P99Latency)

	stats.Duration = elapsed
	stats.DurationMs = ms(elapsed)
	if elapsed > 0 && total > 0 {
		stats.RequestsPerSec = float64(total) / elapsed.Seconds()
	}

	if len(c.statuses) > 0 {
		stats.StatusBuckets = make(map[string]map[string]int, len(c.statuses))
		for channel, codes := range c.statuses {
			copied := make(map[string]int, len(codes))
			for code, n := range codes {
				copied[code] = n
			}
			stats.StatusBuckets[channel] = copied
		}
	}
	if len(c.sequences) > 0 {
		stats.Sequences = make(map[string]int, len(c.sequences))
		for k, v := range c.sequences {
			stats.Sequences[k] = int(v)
		}
	}
	if len(c.errors) > 0 {
		stats.Errors = make(map[string]int, len(c.errors))
		for k, v := range c.errors {
			stats.Errors[k] = int(v)
		}
	}
	if len(c.actions) > 0 || len(c.authTrips) > 0 {
		stats.Actions = make(map[string]ActionStats, len(c.actions))
		for name, s := range c.actions {
			as := ActionStats{
				Total:        s.successes + s.failures,
				Successes:    s.successes,
				Failures:     s.failures,
				Subrequests:  c.authTrips[name],
				MinLatencyMs: ms(s.minLatency),
				MaxLatencyMs: ms(s.maxLatency),
				P50LatencyMs: ms(s.quantile(50)),
				P90LatencyMs: ms(s.quantile(90)),
				P95LatencyMs: ms(s.quantile(95)),
				P99LatencyMs: ms(s.quantile(99)),
			}
			if as.Total > 0 {
				as.MeanLatencyMs = ms(time.Duration(int64(s.sumLatency) / as.Total))
			}
			if elapsed > 0 {
				as.RequestsPerSec = float64(as.Total) / elapsed.Seconds()
			}
			stats.Actions[name] = as
		}
		// A run canceled mid-handshake leaves round trips without a primary record.
		for name, n := range c.authTrips {
			if _, ok := stats.Actions[name]; !ok {
				stats.Actions[name] = ActionStats{Subrequests: n}
			}
		}
	}
	return stats
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
