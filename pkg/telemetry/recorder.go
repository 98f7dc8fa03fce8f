package telemetry

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

// DefaultHistory is the number of records kept in memory.
const DefaultHistory = 1000

// Sink receives every record appended to a Recorder.
type Sink interface {
	Write(r Record) error
	Close() error
}

// Recorder is the append-only telemetry log. It is safe for concurrent use:
// the loop appends while the dashboard reads.
type Recorder struct {
	mu      sync.RWMutex
	history []Record
	limit   int
	total   int
	counts  map[Outcome]int
	sums    map[Stage]time.Duration
	runs    map[Stage]int
	sinks   []Sink
	logger  *slog.Logger
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithHistory bounds the in-memory history. Older records are evicted from
// memory only; sinks keep everything.
func WithHistory(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithSink adds a sink.
func WithSink(s Sink) RecorderOption {
	return func(r *Recorder) { r.sinks = append(r.sinks, s) }
}

// WithLogger sets the logger used for sink failures.
func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// NewRecorder creates a recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{
		limit:  DefaultHistory,
		counts: make(map[Outcome]int),
		sums:   make(map[Stage]time.Duration),
		runs:   make(map[Stage]int),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "telemetry")
	return r
}

// Append stores rec and forwards it to every sink. Sink failures are
// returned joined but never prevent the in-memory append.
func (r *Recorder) Append(rec Record) error {
	r.mu.Lock()
	r.history = append(r.history, rec)
	if len(r.history) > r.limit {
		r.history = r.history[len(r.history)-r.limit:]
	}
	r.total++
	r.counts[rec.outcome]++
	for s, d := range rec.durations {
		r.sums[s] += d
		r.runs[s]++
	}
	sinks := r.sinks
	r.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Write(rec); err != nil {
			r.logger.Warn("telemetry sink write failed", "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Records returns the in-memory history, oldest first.
func (r *Recorder) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Record, len(r.history))
	copy(out, r.history)
	return out
}

// Last returns the most recent record.
func (r *Recorder) Last() (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.history) == 0 {
		return Record{}, false
	}
	return r.history[len(r.history)-1], true
}

// Len returns the number of records appended since creation.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Stats summarizes all records appended since creation.
type Stats struct {
	Total    int                     `json:"total"`
	Outcomes map[Outcome]int         `json:"outcomes"`
	AvgStage map[Stage]time.Duration `json:"avg_stage"`
}

// Stats returns outcome counts and average stage durations.
func (r *Recorder) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := Stats{
		Total:    r.total,
		Outcomes: make(map[Outcome]int, len(r.counts)),
		AvgStage: make(map[Stage]time.Duration, len(r.sums)),
	}
	for k, v := range r.counts {
		st.Outcomes[k] = v
	}
	for s, sum := range r.sums {
		st.AvgStage[s] = sum / time.Duration(r.runs[s])
	}
	return st
}

// Close closes every sink.
func (r *Recorder) Close() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = nil
	r.mu.Unlock()

	var errs []error
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
