package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	Handler(w, req)

	resp := w.Result()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	body := w.Body.String()
	expected := `{"status":"ok"}`
	if body != expected {
		t.Errorf("expected body %s, got %s", expected, body)
	}
}

type fakeLastRunSource struct {
	snapshot map[string]time.Time
	err      error
}

func (s *fakeLastRunSource) Snapshot(ctx context.Context) (map[string]time.Time, error) {
	return s.snapshot, s.err
}

func TestSchedulerHandler(t *testing.T) {
	ts := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)
	handler := SchedulerHandler(&fakeLastRunSource{snapshot: map[string]time.Time{
		"posts:publish_due": ts,
	}})

	req := httptest.NewRequest(http.MethodGet, "/health/scheduler", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var body struct {
		Status   string            `json:"status"`
		LastRuns map[string]string `json:"last_runs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("expected status ok, got %q", body.Status)
	}
	if got := body.LastRuns["posts:publish_due"]; got != "2025-06-03T12:00:00Z" {
		t.Errorf("unexpected last run %q", got)
	}
}

func TestSchedulerHandlerUnavailable(t *testing.T) {
	handler := SchedulerHandler(&fakeLastRunSource{err: errors.New("redis down")})

	req := httptest.NewRequest(http.MethodGet, "/health/scheduler", nil)
	w := httptest.NewRecorder()
	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}
