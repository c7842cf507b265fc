package metrics

import "sort"

// StatusBucket is the record count for a channel/status pair. Channel is
// PrimaryChannel or a sequence key; Code is the HTTP status or "error".
type StatusBucket struct {
	Channel string
	Code    string
	Count   int
}

// FlattenStatusBuckets converts a nested channel->status map into a sorted slice of StatusBucket rows.
// Rows are sorted by descending count, then by channel/code for stability.
func FlattenStatusBuckets(buckets map[string]map[string]int) []StatusBucket {
	if len(buckets) == 0 {
		return nil
	}
	rows := make([]StatusBucket, 0)
	for channel, codes := range buckets {
		for code, count := range codes {
			rows = append(rows, StatusBucket{Channel: channel, Code: code, Count: count})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			if rows[i].Channel == rows[j].Channel {
				return rows[i].Code < rows[j].Code
			}
			return rows[i].Channel < rows[j].Channel
		}
		return rows[i].Count > rows[j].Count
	})
	return rows
}
