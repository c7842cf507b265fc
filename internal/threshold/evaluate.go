package threshold

import (
	"fmt"
	"math"

	"github.com/torosent/stampede/internal/metrics"
)

// Result is the outcome of one threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator checks a fixed set of thresholds.
type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate returns one result per threshold, in order.
func (e *Evaluator) Evaluate(stats metrics.Stats) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, Check(t, stats))
	}
	return results
}

// Check evaluates t. A threshold that cannot be measured fails.
func Check(t Threshold, stats metrics.Stats) Result {
	actual, err := Measure(t, stats)
	if err != nil {
		return Result{Threshold: t, Message: fmt.Sprintf("✗ %s: %v", t.Raw, err)}
	}
	pass := holds(actual, t.Operator, t.Value)
	mark := "✓"
	if !pass {
		mark = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s (actual %.2f)", mark, t.Raw, actual),
	}
}

// Measure returns the value t compares against its bound.
func Measure(t Threshold, stats metrics.Stats) (float64, error) {
	def, ok := catalog[t.Metric]
	if !ok {
		return 0, fmt.Errorf("unknown metric %q", t.Metric)
	}
	return def.resolve(t, stats)
}

const epsilon = 1e-9

func holds(actual float64, operator string, bound float64) bool {
	equal := math.Abs(actual-bound) < epsilon
	switch operator {
	case "<":
		return actual < bound && !equal
	case "<=":
		return actual < bound || equal
	case ">":
		return actual > bound && !equal
	case ">=":
		return actual > bound || equal
	case "==":
		return equal
	case "!=":
		return !equal
	default:
		return false
	}
}
