package output

import (
	"encoding/json"
	"io"

	"github.com/torosent/stampede/internal/report"
)

// streamLine is one JSON line of a report stream.
type streamLine struct {
	Sequence string `json:"sequence,omitempty"`
	report.Record
}

// StreamSink writes every record as a JSON line. It implements report.Sink
// and is only called from the run loop.
type StreamSink struct {
	enc *json.Encoder
	err error
}

func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{enc: json.NewEncoder(w)}
}

func (s *StreamSink) Report(rec report.Record) {
	s.write(streamLine{Record: rec})
}

func (s *StreamSink) ReportSequence(key string, rec report.Record) {
	s.write(streamLine{Sequence: key, Record: rec})
}

func (s *StreamSink) write(line streamLine) {
	if s.err != nil {
		return
	}
	s.err = s.enc.Encode(line)
}

// Err returns the first write error, if any. Later records are dropped after
// a failure.
func (s *StreamSink) Err() error {
	return s.err
}
