// Package telemetry records one immutable entry per capture step and fans
// the entries out to an in-memory history and append-only sinks.
package telemetry

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Stage names one phase of a capture step.
type Stage string

// Stages in execution order.
const (
	StageWait     Stage = "wait"
	StageCapture  Stage = "capture"
	StageFeatures Stage = "features"
	StagePredict  Stage = "predict"
	StageRender   Stage = "render"
)

// Stages lists every stage in execution order.
var Stages = []Stage{StageWait, StageCapture, StageFeatures, StagePredict, StageRender}

// Outcome classifies a finished step.
type Outcome string

const (
	// Success means the spectrum was rendered with no failures.
	Success Outcome = "success"

	// Degraded means a spectrum was produced but rendering fell back to a
	// plain status message.
	Degraded Outcome = "degraded"

	// Failed means a stage before rendering failed and the remaining stages
	// were skipped.
	Failed Outcome = "failed"
)

// Record is the telemetry for one step. It cannot be changed after Build;
// accessors return copies.
type Record struct {
	id              string
	timestamp       time.Time
	durations       map[Stage]time.Duration
	outcome         Outcome
	failureStage    Stage
	err             string
	roiNames        []string
	features        []float64
	fingerprint     string
	captureAttempts int
	predictAttempts int
}

// ID returns the unique step ID.
func (r Record) ID() string { return r.id }

// Timestamp returns when the step started.
func (r Record) Timestamp() time.Time { return r.timestamp }

// Outcome returns the step classification.
func (r Record) Outcome() Outcome { return r.outcome }

// FailureStage returns the stage that failed or degraded, or "".
func (r Record) FailureStage() Stage { return r.failureStage }

// Err returns the failure message, or "".
func (r Record) Err() string { return r.err }

// Fingerprint returns the prediction fingerprint, or "" if none was produced.
func (r Record) Fingerprint() string { return r.fingerprint }

// CaptureAttempts returns how many times the camera was invoked.
func (r Record) CaptureAttempts() int { return r.captureAttempts }

// PredictAttempts returns how many times the model was invoked.
func (r Record) PredictAttempts() int { return r.predictAttempts }

// Duration returns the recorded duration of stage s and whether it ran.
func (r Record) Duration(s Stage) (time.Duration, bool) {
	d, ok := r.durations[s]
	return d, ok
}

// Durations returns a copy of the stage durations.
func (r Record) Durations() map[Stage]time.Duration {
	out := make(map[Stage]time.Duration, len(r.durations))
	for k, v := range r.durations {
		out[k] = v
	}
	return out
}

// Features returns a copy of the raw ROI means.
func (r Record) Features() []float64 {
	out := make([]float64, len(r.features))
	copy(out, r.features)
	return out
}

// ROINames returns a copy of the ROI names matching Features.
func (r Record) ROINames() []string {
	out := make([]string, len(r.roiNames))
	copy(out, r.roiNames)
	return out
}

// Total returns the sum of all stage durations.
func (r Record) Total() time.Duration {
	var total time.Duration
	for _, d := range r.durations {
		total += d
	}
	return total
}

type recordJSON struct {
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	Outcome         Outcome            `json:"outcome"`
	FailureStage    Stage              `json:"failure_stage,omitempty"`
	Error           string             `json:"error,omitempty"`
	StageMs         map[Stage]float64  `json:"stage_ms"`
	Features        map[string]float64 `json:"features,omitempty"`
	Fingerprint     string             `json:"fingerprint,omitempty"`
	CaptureAttempts int                `json:"capture_attempts"`
	PredictAttempts int                `json:"predict_attempts"`
}

// MarshalJSON implements json.Marshaler.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		ID:              r.id,
		Timestamp:       r.timestamp,
		Outcome:         r.outcome,
		FailureStage:    r.failureStage,
		Error:           r.err,
		StageMs:         make(map[Stage]float64, len(r.durations)),
		Fingerprint:     r.fingerprint,
		CaptureAttempts: r.captureAttempts,
		PredictAttempts: r.predictAttempts,
	}
	for s, d := range r.durations {
		out.StageMs[s] = Millis(d)
	}
	if len(r.features) > 0 {
		out.Features = make(map[string]float64, len(r.features))
		for i, v := range r.features {
			name := "f" + strconv.Itoa(i)
			if i < len(r.roiNames) {
				name = r.roiNames[i]
			}
			out.Features[name] = v
		}
	}
	return json.Marshal(out)
}

// Millis converts a duration to fractional milliseconds.
func Millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Builder accumulates a Record during a step.
type Builder struct {
	r        Record
	failed   bool
	degraded bool
}

// NewBuilder starts a record stamped with now.
func NewBuilder(now time.Time) *Builder {
	return &Builder{r: Record{
		id:        uuid.NewString(),
		timestamp: now,
		durations: make(map[Stage]time.Duration, len(Stages)),
	}}
}

// Timestamp returns the time the record was started.
func (b *Builder) Timestamp() time.Time {
	return b.r.timestamp
}

// Stage records the duration of s.
func (b *Builder) Stage(s Stage, d time.Duration) *Builder {
	b.r.durations[s] = d
	return b
}

// Features records the ROI means and their names.
func (b *Builder) Features(names []string, values []float64) *Builder {
	b.r.roiNames = append([]string(nil), names...)
	b.r.features = append([]float64(nil), values...)
	return b
}

// Fingerprint records the prediction fingerprint.
func (b *Builder) Fingerprint(fp string) *Builder {
	b.r.fingerprint = fp
	return b
}

// Attempts records camera and model invocation counts.
func (b *Builder) Attempts(capture, predict int) *Builder {
	if capture > 0 {
		b.r.captureAttempts = capture
	}
	if predict > 0 {
		b.r.predictAttempts = predict
	}
	return b
}

// Fail marks the step failed at stage s. The first failure wins.
func (b *Builder) Fail(s Stage, err error) *Builder {
	if b.failed {
		return b
	}
	b.failed = true
	b.r.failureStage = s
	if err != nil {
		b.r.err = err.Error()
	}
	return b
}

// Degrade marks the step degraded at stage s unless it already failed.
func (b *Builder) Degrade(s Stage, err error) *Builder {
	if b.failed || b.degraded {
		return b
	}
	b.degraded = true
	b.r.failureStage = s
	if err != nil {
		b.r.err = err.Error()
	}
	return b
}

// Build returns the finished, immutable record.
func (b *Builder) Build() Record {
	r := b.r
	switch {
	case b.failed:
		r.outcome = Failed
	case b.degraded:
		r.outcome = Degraded
	default:
		r.outcome = Success
	}
	r.durations = make(map[Stage]time.Duration, len(b.r.durations))
	for k, v := range b.r.durations {
		r.durations[k] = v
	}
	r.roiNames = append([]string(nil), b.r.roiNames...)
	r.features = append([]float64(nil), b.r.features...)
	return r
}
