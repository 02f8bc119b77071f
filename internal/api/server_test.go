package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgallion1/datasetgen/internal/extract"
	"github.com/dgallion1/datasetgen/internal/pipeline"
)

func do(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := NewServer(nil, nil, "", "secret", nil)
	rec := do(t, s, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestRunSnapshot(t *testing.T) {
	state := pipeline.NewRunState("run-1")
	state.SetDocuments(4)
	state.SetPhase(pipeline.PhasePage, "guide.pdf", 2)
	state.AddPage(false, 2, 2, 0, 0)

	s := NewServer(state, nil, "", "", nil)
	rec := do(t, s, "/api/run", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snap pipeline.RunSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.ID != "run-1" || snap.Phase != pipeline.PhasePage || snap.Document != "guide.pdf" {
		t.Errorf("unexpected snapshot %+v", snap)
	}
	if snap.Progress.Documents != 4 || snap.Progress.Records != 2 {
		t.Errorf("unexpected progress %+v", snap.Progress)
	}
}

func TestRunSnapshot_Unavailable(t *testing.T) {
	s := NewServer(nil, nil, "", "", nil)
	if rec := do(t, s, "/api/run", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestLLMStats(t *testing.T) {
	stats := extract.NewLLMStats(time.Hour)
	stats.Observe(100*time.Millisecond, nil)
	stats.Observe(300*time.Millisecond, nil)

	s := NewServer(nil, stats, "gemini-2.0-flash", "", nil)
	rec := do(t, s, "/api/stats/llm", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Model string                `json:"model"`
		Stats extract.StatsSnapshot `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Model != "gemini-2.0-flash" || body.Stats.Count != 2 {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestAuth(t *testing.T) {
	s := NewServer(pipeline.NewRunState(""), nil, "", "secret", nil)
	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "nope", http.StatusUnauthorized},
		{"valid", "secret", http.StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(t, s, "/api/run", tc.token); rec.Code != tc.want {
				t.Errorf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}
