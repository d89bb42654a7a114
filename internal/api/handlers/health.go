package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SchemaVersioner is implemented by stores with versioned migrations.
type SchemaVersioner interface {
	SchemaVersion(ctx context.Context) (version uint, dirty bool, err error)
}

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Storage   string                 `json:"storage"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	LatencyMs int64                  `json:"latency_ms,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthChecker reports readiness of the store the API depends on.
type HealthChecker struct {
	store     Pinger
	storage   string
	version   string
	gitCommit string
}

func NewHealthChecker(store Pinger, storage, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		store:     store,
		storage:   storage,
		version:   version,
		gitCommit: gitCommit,
	}
}

// Readyz returns 200 when every check passes and 503 otherwise.
func (h *HealthChecker) Readyz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "shutting_down"})
			return
		default:
		}

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database": h.checkDatabase(ctx),
		}
		if versioner, ok := h.store.(SchemaVersioner); ok {
			checks["migrations"] = checkMigrations(ctx, versioner)
		}

		overallStatus := "healthy"
		statusCode := http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				overallStatus = "unhealthy"
				statusCode = http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, statusCode, HealthCheck{
			Status:    overallStatus,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Storage:   h.storage,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	}
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.store == nil {
		return CheckResult{Status: "fail", Message: "Store not initialized"}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.store.Ping(dbCtx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "Store ping failed"
		if errors.Is(err, context.DeadlineExceeded) {
			message = "Store ping timed out after 2 seconds"
		}
		// Raw driver errors can carry hostnames; they stay in the server logs.
		return CheckResult{Status: "fail", Message: message, LatencyMs: latency}
	}
	return CheckResult{Status: "pass", Message: "Store reachable", LatencyMs: latency}
}

func checkMigrations(ctx context.Context, versioner SchemaVersioner) CheckResult {
	version, dirty, err := versioner.SchemaVersion(ctx)
	if err != nil {
		return CheckResult{Status: "fail", Message: "Unable to read schema version"}
	}
	details := map[string]interface{}{"version": version}
	if dirty {
		return CheckResult{Status: "fail", Message: "Schema is dirty; a migration failed part way", Details: details}
	}
	if version == 0 {
		return CheckResult{Status: "fail", Message: "No migrations applied", Details: details}
	}
	return CheckResult{Status: "pass", Message: "Schema up to date", Details: details}
}

// Healthz is a liveness probe that never touches the store.
func Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}
