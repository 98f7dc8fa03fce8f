package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/teslashibe/go-spectro/pkg/features"
	"github.com/teslashibe/go-spectro/pkg/model"
)

func sidecar(t *testing.T, predictStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/model", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"input_dim": 2, "output_dim": 3})
	})
	mux.HandleFunc("/v1/predict", func(w http.ResponseWriter, r *http.Request) {
		if predictStatus != http.StatusOK {
			http.Error(w, "boom", predictStatus)
			return
		}
		var req predictRequest
		json.NewDecoder(r.Body).Decode(&req)
		sum := req.Features[0] + req.Features[1]
		json.NewEncoder(w).Encode(map[string][]float64{"intensities": {sum, sum * 2, sum * 3}})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemote_Predict(t *testing.T) {
	srv := sidecar(t, http.StatusOK)
	m := New(Config{BaseURL: srv.URL + "/"})
	ctx := context.Background()

	if _, err := m.Predict(ctx, features.Vector{1, 2}); !errors.Is(err, model.ErrNotLoaded) {
		t.Fatalf("before load: got %v, want ErrNotLoaded", err)
	}
	if err := m.Load(ctx); err != nil {
		t.Fatal(err)
	}
	p, err := m.Predict(ctx, features.Vector{1, 2})
	if err != nil {
		t.Fatal(err)
	}
	if p.Intensities[2] != 9 || p.Wavelengths[0] != 400 || p.Wavelengths[2] != 1000 {
		t.Errorf("prediction: got %+v", p)
	}
	if _, err := m.Predict(ctx, features.Vector{1}); !errors.Is(err, model.ErrDimension) {
		t.Errorf("short vector: got %v, want ErrDimension", err)
	}
}

func TestRemote_Errors(t *testing.T) {
	srv := sidecar(t, http.StatusInternalServerError)
	m := New(Config{BaseURL: srv.URL})
	if err := m.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	var ie *model.InferenceError
	if _, err := m.Predict(context.Background(), features.Vector{1, 2}); !errors.As(err, &ie) {
		t.Errorf("got %v, want *model.InferenceError", err)
	}

	down := New(Config{BaseURL: "http://127.0.0.1:1"})
	var le *model.LoadError
	if err := down.Load(context.Background()); !errors.As(err, &le) {
		t.Errorf("unreachable sidecar: got %v, want *model.LoadError", err)
	}
}
