package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDoJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type: got %q", r.Header.Get("Content-Type"))
		}
		var in map[string]int
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(map[string]int{"doubled": in["n"] * 2})
	}))
	defer srv.Close()

	var out struct{ Doubled int }
	err := DoJSON(context.Background(), nil, http.MethodPost, srv.URL, map[string]int{"n": 21}, &out)
	if err != nil {
		t.Fatalf("DoJSON: %v", err)
	}
	if out.Doubled != 42 {
		t.Errorf("Doubled: got %d, want 42", out.Doubled)
	}
}

func TestDoJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model busy", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := DoJSON(context.Background(), NewClient(DefaultTimeout), http.MethodGet, srv.URL, nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("got %v, want *StatusError", err)
	}
	if !se.IsServerError() || se.Body != "model busy" {
		t.Errorf("StatusError: got %+v", se)
	}
}
