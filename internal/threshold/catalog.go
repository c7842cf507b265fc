package threshold

import (
	"fmt"
	"sort"
	"strings"

	"github.com/torosent/stampede/internal/metrics"
	"github.com/torosent/stampede/internal/report"
)

type metricDef struct {
	labels     []string
	aggregates []string
	resolve    func(t Threshold, stats metrics.Stats) (float64, error)
}

var (
	counting = []string{"count", "rate"}
	latency  = []string{"p50", "p90", "p95", "p99", "avg", "min", "max"}
)

// catalog lists the metrics a threshold may name. Rates are fractions of the
// selected exchanges, except http_requests:rate which is per second.
var catalog = map[string]metricDef{
	"http_req_duration": {labels: []string{"action"}, aggregates: latency, resolve: duration},
	"http_req_failed":   {labels: []string{"action"}, aggregates: counting, resolve: failed},
	"http_requests":     {labels: []string{"action"}, aggregates: counting, resolve: requests},
	"http_subrequests":  {labels: []string{"action"}, aggregates: counting, resolve: subrequests},
	"http_status":       {labels: []string{"channel", "code"}, aggregates: counting, resolve: status},
	"http_errors":       {labels: []string{"class"}, aggregates: counting, resolve: transportErrors},
}

func metricNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// view is the slice of primary records a threshold selects: the whole run or
// one action.
type view struct {
	total       int64
	failures    int64
	subrequests int64
	perSecond   float64
	latencyMs   map[string]float64
}

func selectView(t Threshold, stats metrics.Stats) (view, error) {
	name, ok := t.Labels["action"]
	if !ok {
		return view{
			total:       stats.Total,
			failures:    stats.Failures,
			subrequests: int64(stats.Sequences[report.SubrequestsKey]),
			perSecond:   stats.RequestsPerSec,
			latencyMs: map[string]float64{
				"p50": stats.P50LatencyMs, "p90": stats.P90LatencyMs,
				"p95": stats.P95LatencyMs, "p99": stats.P99LatencyMs,
				"avg": stats.MeanLatencyMs, "min": stats.MinLatencyMs, "max": stats.MaxLatencyMs,
			},
		}, nil
	}
	as, ok := stats.Actions[name]
	if !ok {
		return view{}, fmt.Errorf("no records for action %q", name)
	}
	return view{
		total:       as.Total,
		failures:    as.Failures,
		subrequests: as.Subrequests,
		perSecond:   as.RequestsPerSec,
		latencyMs: map[string]float64{
			"p50": as.P50LatencyMs, "p90": as.P90LatencyMs,
			"p95": as.P95LatencyMs, "p99": as.P99LatencyMs,
			"avg": as.MeanLatencyMs, "min": as.MinLatencyMs, "max": as.MaxLatencyMs,
		},
	}, nil
}

func duration(t Threshold, stats metrics.Stats) (float64, error) {
	v, err := selectView(t, stats)
	if err != nil {
		return 0, err
	}
	ms, ok := v.latencyMs[t.Aggregate]
	if !ok {
		return 0, fmt.Errorf("unsupported aggregate %q", t.Aggregate)
	}
	return ms, nil
}

func failed(t Threshold, stats metrics.Stats) (float64, error) {
	v, err := selectView(t, stats)
	if err != nil {
		return 0, err
	}
	return counted(t.Aggregate, v.failures, v.total)
}

func requests(t Threshold, stats metrics.Stats) (float64, error) {
	v, err := selectView(t, stats)
	if err != nil {
		return 0, err
	}
	if t.Aggregate == "rate" {
		return v.perSecond, nil
	}
	return counted(t.Aggregate, v.total, v.total)
}

// subrequests measures authentication round trips. The rate is per primary
// exchange, so 1.0 means every request needed a challenge.
func subrequests(t Threshold, stats metrics.Stats) (float64, error) {
	v, err := selectView(t, stats)
	if err != nil {
		return 0, err
	}
	return counted(t.Aggregate, v.subrequests, v.total)
}

// status counts records of one channel (primary by default) whose status
// matches the code label: an exact code, "error", or a class like "5xx".
func status(t Threshold, stats metrics.Stats) (float64, error) {
	channel := t.Labels["channel"]
	if channel == "" {
		channel = metrics.PrimaryChannel
	}
	var matched, all int64
	for code, n := range stats.StatusBuckets[channel] {
		all += int64(n)
		if codeMatches(t.Labels["code"], code) {
			matched += int64(n)
		}
	}
	return counted(t.Aggregate, matched, all)
}

func codeMatches(selector, code string) bool {
	switch {
	case selector == "":
		return true
	case len(selector) == 3 && strings.EqualFold(selector[1:], "xx"):
		return len(code) == 3 && code[0] == selector[0]
	default:
		return strings.EqualFold(selector, code)
	}
}

// transportErrors counts failed exchanges by error class across all
// channels.
func transportErrors(t Threshold, stats metrics.Stats) (float64, error) {
	class := t.Labels["class"]
	var matched int64
	for label, n := range stats.Errors {
		if class == "" || strings.EqualFold(class, label) {
			matched += int64(n)
		}
	}
	exchanges := stats.Total
	for _, n := range stats.Sequences {
		exchanges += int64(n)
	}
	return counted(t.Aggregate, matched, exchanges)
}

func counted(aggregate string, n, of int64) (float64, error) {
	switch aggregate {
	case "count":
		return float64(n), nil
	case "rate":
		if of == 0 {
			return 0, nil
		}
		return float64(n) / float64(of), nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q", aggregate)
	}
}
