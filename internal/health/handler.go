// Package health exposes liveness and scheduler status over HTTP.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// Handler reports process liveness.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// LastRunSource reports when each periodic sweep last completed.
type LastRunSource interface {
	Snapshot(ctx context.Context) (map[string]time.Time, error)
}

// SchedulerHandler reports the last completion time of every periodic sweep,
// so a stalled clock is visible without reading logs.
func SchedulerHandler(source LastRunSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		snapshot, err := source.Snapshot(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}

		lastRuns := make(map[string]string, len(snapshot))
		for task, ts := range snapshot {
			lastRuns[task] = ts.UTC().Format(time.RFC3339)
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":    "ok",
			"last_runs": lastRuns,
		})
	}
}
