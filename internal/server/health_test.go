package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/jittakal/ticketbuffer/internal/pipeline"
	"github.com/jittakal/ticketbuffer/pkg/ticket"
)

// mockHealthChecker implements HealthChecker for testing
type mockHealthChecker struct {
	liveness  bool
	readiness bool
	healthy   bool
	status    map[string]string
}

func (m *mockHealthChecker) Liveness() bool {
	return m.liveness
}

func (m *mockHealthChecker) Readiness(ctx context.Context) bool {
	return m.readiness
}

func (m *mockHealthChecker) IsHealthy() bool {
	return m.healthy
}

func (m *mockHealthChecker) GetStatus() map[string]string {
	return m.status
}

func TestLivenessHandler(t *testing.T) {
	tests := []struct {
		name       string
		liveness   bool
		wantCode   int
		wantStatus string
	}{
		{"alive", true, http.StatusOK, "alive"},
		{"not alive", false, http.StatusServiceUnavailable, "not alive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockHealthChecker{liveness: tt.liveness}

			handler := LivenessHandler(checker, zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
			if response.Timestamp == "" {
				t.Error("timestamp should be set")
			}
		})
	}
}

func TestReadinessHandler(t *testing.T) {
	tests := []struct {
		name       string
		readiness  bool
		healthy    bool
		wantCode   int
		wantStatus string
	}{
		{"ready", true, true, http.StatusOK, "ready"},
		{"not started", false, true, http.StatusServiceUnavailable, "not ready"},
		{"aborted", true, false, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &mockHealthChecker{
				readiness: tt.readiness,
				healthy:   tt.healthy,
				status:    map[string]string{"phase": "running", "buffered": "4"},
			}

			handler := ReadinessHandler(checker, zap.NewNop())
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", w.Code, tt.wantCode)
			}

			var response HealthResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("status = %s, want %s", response.Status, tt.wantStatus)
			}
			if response.Checks["phase"] != "running" || response.Checks["buffered"] != "4" {
				t.Errorf("checks = %v", response.Checks)
			}
		})
	}
}

func TestReadinessHandler_StalledProducer(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	stalled := func(producerID string, seq int) ticket.Ticket {
		// Runs inside the queue's critical section.
		once.Do(func() {
			close(entered)
			<-release
		})
		return ticket.New(seq, "id", "t", producerID)
	}

	p, err := pipeline.New(
		pipeline.Config{Capacity: 1, MaxProduced: 1, Producers: 1, Consumers: []pipeline.ConsumerSpec{{ID: "1"}}},
		pipeline.WithFactory(stalled),
	)
	if err != nil {
		t.Fatalf("pipeline.New() error = %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := p.Run(context.Background())
		errc <- err
	}()
	t.Cleanup(func() {
		close(release)
		<-errc
	})
	<-entered

	handler := ReadinessHandler(p, zap.NewNop())
	w := httptest.NewRecorder()
	served := make(chan struct{})
	go func() {
		defer close(served)
		handler(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	}()

	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("readiness handler blocked behind a stalled producer")
	}

	if w.Code != http.StatusOK {
		t.Errorf("status code = %d, want %d", w.Code, http.StatusOK)
	}
	var response HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Checks["phase"] != pipeline.PhaseRunning {
		t.Errorf("phase = %q, want %q", response.Checks["phase"], pipeline.PhaseRunning)
	}
	if response.Checks["drained"] != "false" {
		t.Errorf("drained = %q, want false", response.Checks["drained"])
	}
}
