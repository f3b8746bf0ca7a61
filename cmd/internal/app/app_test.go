package app

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

// newMemoryApp wires a full in-memory app with one seeded contributor.
func newMemoryApp(t *testing.T) (*App, string) {
	t.Helper()

	devID := uuid.NewString()
	cfg := LoadConfig()
	cfg.DevContributorID = devID

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := New(cfg, log)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a, devID
}

func TestApp_MemoryModeServesContributorAPI(t *testing.T) {
	a, devID := newMemoryApp(t)

	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.registry, a.api)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rr.Code)
	}

	// Without ReadinessRequireDB the in-memory app is ready.
	req = httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("readyz: %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/contributor/sessions", nil)
	req.Header.Set("X-Contributor-Id", devID)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("session create: %d: %s", rr.Code, rr.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "datagate_grants_created_total") {
		t.Fatalf("expected grant metrics in exposition")
	}
}

func TestApp_ReadinessRequiresDB(t *testing.T) {
	a, _ := newMemoryApp(t)
	a.cfg.ReadinessRequireDB = true

	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.registry, a.api)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without db, got %d", rr.Code)
	}
}
