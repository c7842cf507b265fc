package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/torosent/stampede/internal/metrics"
)

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, stats metrics.Stats) {
	fmt.Fprintln(w, "\n--- Load Test Results ---")
	fmt.Fprintf(w, "Total Requests:    %d\n", stats.Total)
	fmt.Fprintf(w, "Successful:        %d\n", stats.Successes)
	fmt.Fprintf(w, "Failed:            %d\n", stats.Failures)
	fmt.Fprintf(w, "Duration:          %s\n", stats.Duration)
	fmt.Fprintf(w, "Requests/sec:      %.2f\n", stats.RequestsPerSec)
	fmt.Fprintf(w, "Bytes received:    %d\n", stats.Bytes)
	if stats.Compressed > 0 {
		fmt.Fprintf(w, "Compressed:        %d\n", stats.Compressed)
	}
	fmt.Fprintln(w, "\nLatency (to headers):")
	fmt.Fprintf(w, "  Min:             %s\n", stats.MinLatency)
	fmt.Fprintf(w, "  Max:             %s\n", stats.MaxLatency)
	fmt.Fprintf(w, "  Mean:            %s\n", stats.MeanLatency)
	fmt.Fprintf(w, "  P50:             %s\n", stats.P50Latency)
	fmt.Fprintf(w, "  P90:             %s\n", stats.P90Latency)
	fmt.Fprintf(w, "  P95:             %s\n", stats.P95Latency)
	fmt.Fprintf(w, "  P99:             %s\n", stats.P99Latency)
	if len(stats.StatusBuckets) > 0 {
		fmt.Fprintln(w, "\nStatus Buckets:")
		writeStatusBuckets(w, stats.StatusBuckets, "  ")
	}

	if len(stats.Sequences) > 0 {
		fmt.Fprintln(w, "\nSequences:")
		for _, key := range sortedKeys(stats.Sequences) {
			fmt.Fprintf(w, "  %s: %d\n", key, stats.Sequences[key])
		}
	}

	if len(stats.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, key := range sortedKeys(stats.Errors) {
			fmt.Fprintf(w, "  %s: %d\n", key, stats.Errors[key])
		}
	}

	if len(stats.Actions) > 0 {
		fmt.Fprintln(w, "\nAction Breakdown:")
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
		for _, name := range names {
			action := stats.Actions[name]
			share := 0.0
			if stats.Total > 0 {
				share = (float64(action.Total) / float64(stats.Total)) * 100
			}

			fmt.Fprintf(
				w,
				"  - %s: total=%d (%.1f%%), successes=%d, failures=%d, rps=%.2f, p95=%.1fms, p99=%.1fms\n",
				name,
				action.Total,
				share,
				action.Successes,
				action.Failures,
				action.RequestsPerSec,
				action.P95LatencyMs,
				action.P99LatencyMs,
			)
			if action.Subrequests > 0 {
				fmt.Fprintf(w, "    auth round trips=%d\n", action.Subrequests)
			}
		}
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, stats metrics.Stats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}

func writeStatusBuckets(w io.Writer, buckets map[string]map[string]int, indent string) {
	rows := metrics.FlattenStatusBuckets(buckets)
	if len(rows) == 0 {
		fmt.Fprintf(w, "%sNone\n", indent)
		return
	}
	for _, row := range rows {
		fmt.Fprintf(w, "%s%s %s: %d\n", indent, row.Channel, row.Code, row.Count)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
