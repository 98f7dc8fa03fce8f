package telemetry

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// csvColumns precede the per-ROI mean columns.
var csvColumns = []string{
	"timestamp", "step_id", "outcome", "failure_stage", "fingerprint",
	"wait_ms", "capture_ms", "features_ms", "predict_ms", "render_ms",
	"capture_attempts", "predict_attempts", "error",
}

// CSVSink appends one row per record to a flat file. The per-ROI mean
// columns are named from the first record written to a new file. When the
// ROI names change, as after a reload, a new header row is written first.
type CSVSink struct {
	mu         sync.Mutex
	f          *os.File
	w          *csv.Writer
	needHeader bool
	// names are the ROI columns of the last header; known is false for an
	// appended file until a record with features is seen.
	names []string
	known bool
}

// NewCSVSink opens path for appending, creating parent directories.
func NewCSVSink(path string) (*CSVSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("telemetry: create dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("telemetry: stat %s: %w", path, err)
	}
	return &CSVSink{f: f, w: csv.NewWriter(f), needHeader: info.Size() == 0}, nil
}

func equalNames(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Write implements Sink.
func (s *CSVSink) Write(r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := r.ROINames()
	switch {
	case s.needHeader, s.known && len(names) > 0 && !equalNames(s.names, names):
		header := append([]string(nil), csvColumns...)
		header = append(header, names...)
		if err := s.w.Write(header); err != nil {
			return fmt.Errorf("telemetry: write header: %w", err)
		}
		s.needHeader = false
		s.names, s.known = names, true
	case !s.known && len(names) > 0:
		s.names, s.known = names, true
	}

	row := make([]string, 0, len(csvColumns)+len(r.features))
	row = append(row,
		r.timestamp.UTC().Format(time.RFC3339Nano),
		r.id,
		string(r.outcome),
		string(r.failureStage),
		r.fingerprint,
	)
	for _, st := range Stages {
		if d, ok := r.durations[st]; ok {
			row = append(row, strconv.FormatFloat(Millis(d), 'f', 3, 64))
		} else {
			row = append(row, "")
		}
	}
	row = append(row,
		strconv.Itoa(r.captureAttempts),
		strconv.Itoa(r.predictAttempts),
		r.err,
	)
	for _, v := range r.features {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}

	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("telemetry: write row: %w", err)
	}
	s.w.Flush()
	return s.w.Error()
}

// Close implements Sink.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

// LogSink writes one structured log line per record.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a log sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "telemetry")}
}

// Write implements Sink.
func (s *LogSink) Write(r Record) error {
	args := []any{
		"step_id", r.id,
		"outcome", r.outcome,
		"total_ms", Millis(r.Total()),
	}
	for _, st := range Stages {
		if d, ok := r.durations[st]; ok {
			args = append(args, string(st)+"_ms", Millis(d))
		}
	}
	if r.fingerprint != "" {
		args = append(args, "fingerprint", r.fingerprint)
	}
	if r.outcome == Success {
		s.logger.Info("step complete", args...)
		return nil
	}
	args = append(args, "failure_stage", r.failureStage, "error", r.err)
	s.logger.Warn("step not successful", args...)
	return nil
}

// Close implements Sink.
func (s *LogSink) Close() error { return nil }
