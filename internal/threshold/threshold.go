// Package threshold checks pass/fail assertions against the statistics of a
// finished run. An assertion names a metric, an optional label selector, an
// aggregate and a bound:
//
//	http_req_duration{action=login}:p95 < 300
//	http_status{channel=subrequests,code=401}:count <= 10
//	http_errors{class="Connection refused"}:count == 0
package threshold

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// Threshold is one parsed assertion.
type Threshold struct {
	Metric    string
	Labels    map[string]string
	Aggregate string
	Operator  string
	Value     float64
	Raw       string
}

var expression = regexp.MustCompile(`^([a-z_]+)(?:\{([^}]*)\})?:([a-z0-9]+)\s*(<=|>=|==|!=|<|>)\s*(-?\d+(?:\.\d+)?)$`)

// Parse reads a threshold expression. Metric, labels and aggregate are
// checked against the metric catalog.
func Parse(s string) (Threshold, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Threshold{}, errors.New("empty threshold")
	}
	m := expression.FindStringSubmatch(raw)
	if m == nil {
		return Threshold{}, fmt.Errorf("%q: expected metric{label=value}:aggregate operator number, e.g. 'http_req_duration:p95 < 500'", raw)
	}

	def, ok := catalog[m[1]]
	if !ok {
		return Threshold{}, fmt.Errorf("%q: unknown metric %q (known: %s)", raw, m[1], strings.Join(metricNames(), ", "))
	}
	labels, err := parseLabels(m[2])
	if err != nil {
		return Threshold{}, fmt.Errorf("%q: %w", raw, err)
	}
	for key := range labels {
		if !slices.Contains(def.labels, key) {
			return Threshold{}, fmt.Errorf("%q: %s does not support label %q", raw, m[1], key)
		}
	}
	if !slices.Contains(def.aggregates, m[3]) {
		return Threshold{}, fmt.Errorf("%q: %s supports %s, not %q", raw, m[1], strings.Join(def.aggregates, ", "), m[3])
	}
	value, err := strconv.ParseFloat(m[5], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("%q: %w", raw, err)
	}

	return Threshold{
		Metric:    m[1],
		Labels:    labels,
		Aggregate: m[3],
		Operator:  m[4],
		Value:     value,
		Raw:       raw,
	}, nil
}

// ParseMultiple parses every expression and reports all failures at once.
func ParseMultiple(exprs []string) ([]Threshold, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	out := make([]Threshold, 0, len(exprs))
	var errs []error
	for i, s := range exprs {
		t, err := Parse(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("thresholds[%d]: %w", i, err))
			continue
		}
		out = append(out, t)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// parseLabels reads "key=value,key2=\"quoted value\"".
func parseLabels(body string) (map[string]string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, nil
	}
	labels := make(map[string]string)
	for _, pair := range strings.Split(body, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" {
			return nil, fmt.Errorf("label %q: expected key=value", strings.TrimSpace(pair))
		}
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		}
		if value == "" {
			return nil, fmt.Errorf("label %q: empty value", key)
		}
		if _, dup := labels[key]; dup {
			return nil, fmt.Errorf("label %q: given twice", key)
		}
		labels[key] = value
	}
	return labels, nil
}
