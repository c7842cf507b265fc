package runner

import (
	"log/slog"

	"github.com/torosent/stampede/internal/report"
)

type loggingSink struct {
	inner  report.Sink
	logger *slog.Logger
}

// WithLogging wraps a sink to log failed exchanges at warn level.
func WithLogging(sink report.Sink, logger *slog.Logger) report.Sink {
	if logger == nil {
		return sink
	}
	return &loggingSink{inner: sink, logger: logger}
}

func (l *loggingSink) Report(rec report.Record) {
	l.log("", rec)
	l.inner.Report(rec)
}

func (l *loggingSink) ReportSequence(key string, rec report.Record) {
	l.log(key, rec)
	l.inner.ReportSequence(key, rec)
}

func (l *loggingSink) log(key string, rec report.Record) {
	if rec.Success {
		return
	}
	attrs := []any{"action", rec.Action, "method", rec.Method, "url", rec.URL, "err", rec.Error}
	if key != "" {
		attrs = append(attrs, "sequence", key)
	}
	l.logger.Warn("exchange failed", attrs...)
}
