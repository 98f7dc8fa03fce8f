// Package remote calls a model served by an HTTP sidecar, for boards where
// the network runs in a separate process.
//
// The sidecar exposes:
//
//	GET  /v1/model    -> {"input_dim": 32, "output_dim": 255}
//	POST /v1/predict  {"features": [...]} -> {"wavelengths": [...], "intensities": [...]}
package remote

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/teslashibe/go-spectro/internal/httpc"
	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/model"
	"github.com/teslashibe/go-spectro/pkg/spectrum"
)

// Config configures the sidecar client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

type infoResponse struct {
	InputDim  int `json:"input_dim"`
	OutputDim int `json:"output_dim"`
}

type predictRequest struct {
	Features []float64 `json:"features"`
}

// Model is a model.Model delegating to the sidecar.
type Model struct {
	base   string
	client *http.Client

	mu     sync.RWMutex
	info   infoResponse
	loaded bool
}

// New creates a client. A zero Timeout uses httpc.DefaultTimeout.
func New(cfg Config) *Model {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = httpc.DefaultTimeout
	}
	return &Model{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		client: httpc.NewClient(timeout),
	}
}

// Load fetches the model description; an unreachable sidecar is a load
// failure.
func (m *Model) Load(ctx context.Context) error {
	var info infoResponse
	if err := httpc.DoJSON(ctx, m.client, http.MethodGet, m.base+"/v1/model", nil, &info); err != nil {
		return &model.LoadError{Path: m.base, Err: err}
	}
	if info.InputDim <= 0 {
		return &model.LoadError{Path: m.base, Err: errors.New("sidecar reported no input dimension")}
	}
	m.mu.Lock()
	m.info = info
	m.loaded = true
	m.mu.Unlock()
	return nil
}

// Predict implements model.Model.
func (m *Model) Predict(ctx context.Context, v features.Vector) (*spectrum.Prediction, error) {
	m.mu.RLock()
	loaded, info := m.loaded, m.info
	m.mu.RUnlock()
	if !loaded {
		return nil, model.ErrNotLoaded
	}
	if len(v) != info.InputDim {
		return nil, model.DimensionError(info.InputDim, len(v))
	}

	var p spectrum.Prediction
	err := httpc.DoJSON(ctx, m.client, http.MethodPost, m.base+"/v1/predict", predictRequest{Features: v}, &p)
	if err != nil {
		return nil, &model.InferenceError{Err: err}
	}
	if len(p.Wavelengths) == 0 && len(p.Intensities) > 0 {
		p.Wavelengths = spectrum.Linspace(model.WavelengthStart, model.WavelengthStop, len(p.Intensities))
	}
	return &p, nil
}

// Info implements model.Describer.
func (m *Model) Info() model.Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return model.Info{Kind: "remote", Source: m.base, InputDim: m.info.InputDim, OutputDim: m.info.OutputDim}
}
