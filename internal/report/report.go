// Package report defines the per-exchange outcome record emitted by leaf
// actions and the sink interface the runner exposes to receive them.
package report

import (
	"time"
)

// SubrequestsKey is the sequence key for authentication round trips that are
// not surfaced as the primary outcome of an action.
const SubrequestsKey = "subrequests"

// Chunk describes one streamed body fragment.
type Chunk struct {
	Length  int           `json:"length"`
	Elapsed time.Duration `json:"elapsed"`
}

// Record is the outcome of a single physical HTTP exchange.
type Record struct {
	Action     string        `json:"action,omitempty"`
	Method     string        `json:"method"`
	URL        string        `json:"url"`
	Status     int           `json:"status,omitempty"`
	Latency    time.Duration `json:"latency"`
	Compressed bool          `json:"compressed"`
	Chunks     []Chunk       `json:"chunks,omitempty"`
	Success    bool          `json:"success"`
	Length     int           `json:"length,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// Sink receives report records. Implementations are called from the run loop.
type Sink interface {
	// Report records the primary outcome of an action.
	Report(rec Record)
	// ReportSequence records an outcome belonging to the named side channel.
	ReportSequence(key string, rec Record)
}

type multiSink []Sink

// Multi fans records out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multiSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m multiSink) Report(rec Record) {
	for _, s := range m {
		s.Report(rec)
	}
}

func (m multiSink) ReportSequence(key string, rec Record) {
	for _, s := range m {
		s.ReportSequence(key, rec)
	}
}

// Discard drops every record.
var Discard Sink = discard{}

type discard struct{}

func (discard) Report(Record)                 {}
func (discard) ReportSequence(string, Record) {}
