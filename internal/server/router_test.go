package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-erpdocs/internal/config"
	"github.com/diewo77/go-erpdocs/internal/db"
	"github.com/diewo77/go-erpdocs/internal/rpc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	return newTestHandlerWith(t, prometheus.NewRegistry())
}

func newTestHandlerWith(t *testing.T, reg *prometheus.Registry) http.Handler {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	if err != nil {
		t.Fatalf("db open: %v", err)
	}
	kinds, err := config.LoadKinds("")
	if err != nil {
		t.Fatalf("kinds: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn, kinds.Kinds()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	log, _ := test.NewNullLogger()
	return New(conn, kinds, Options{Log: log, Registry: reg})
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t)
	for _, path := range []string{"/health", "/healthz"} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"ok"`) {
			t.Errorf("%s body = %s", path, w.Body.String())
		}
	}
}

func TestRPCRouteAndMetrics(t *testing.T) {
	h := newTestHandler(t)

	body := `{"key":"units","type":"LIST"}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body)))
	if w.Code != http.StatusOK {
		t.Fatalf("POST /rpc = %d", w.Code)
	}
	var resp rpc.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success || len(resp.Data) == 0 {
		t.Errorf("response = %+v", resp)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), `erpdocs_rpc_requests_total{outcome="ok",type="LIST"} 1`) {
		t.Errorf("metrics missing rpc counter:\n%s", w.Body.String())
	}
}

func TestNew_WithoutRegistryCanBuildTwice(t *testing.T) {
	first := newTestHandlerWith(t, nil)
	second := newTestHandlerWith(t, nil)

	w := httptest.NewRecorder()
	first.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(`{"key":"units","type":"LIST"}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("POST /rpc = %d", w.Code)
	}

	counter := `erpdocs_rpc_requests_total{outcome="ok",type="LIST"} 1`
	w = httptest.NewRecorder()
	first.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(w.Body.String(), counter) {
		t.Errorf("first handler metrics missing rpc counter:\n%s", w.Body.String())
	}
	w = httptest.NewRecorder()
	second.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), counter) {
		t.Errorf("second handler shares metrics: %d\n%s", w.Code, w.Body.String())
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)
	r := httptest.NewRequest(http.MethodOptions, "/rpc", nil)
	r.Header.Set("Origin", "http://example.test")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestWithRecover(t *testing.T) {
	log, hook := test.NewNullLogger()
	h := withRecover(log, http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", w.Code)
	}
	if len(hook.Entries) != 1 {
		t.Errorf("log entries = %d", len(hook.Entries))
	}
}
