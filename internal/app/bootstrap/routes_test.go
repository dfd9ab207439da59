package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EVE-University/unistudent/internal/testutil"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T, adminToken string) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	deps := DBDeps{MongoClient: db.Client(), MongoDatabase: db}

	cfg := validConfig()
	cfg.AdminToken = adminToken

	s, err := buildServices(cfg, deps, zap.NewNop())
	if err != nil {
		t.Fatalf("buildServices failed: %v", err)
	}
	return newRouter(s, cfg, deps, zap.NewNop())
}

func serve(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(t, "")

	rec := serve(h, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t, "")

	rec := serve(h, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("expected Go runtime metrics in /metrics output")
	}
}

func TestRouter_AdminDisabledWithoutToken(t *testing.T) {
	h := newTestRouter(t, "")

	if rec := serve(h, "GET", "/admin/runs", "anything"); rec.Code != http.StatusNotFound {
		t.Errorf("admin: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
	if rec := serve(h, "GET", "/status", "anything"); rec.Code != http.StatusNotFound {
		t.Errorf("status: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestRouter_AdminWithToken(t *testing.T) {
	h := newTestRouter(t, "s3cret")

	if rec := serve(h, "GET", "/admin/runs", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d without token, got %d", http.StatusUnauthorized, rec.Code)
	}

	rec := serve(h, "GET", "/admin/runs", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected empty run list, got %q", rec.Body.String())
	}

	rec = serve(h, "GET", "/status", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"owners":[]`) {
		t.Errorf("expected empty owner list, got %q", rec.Body.String())
	}
}

func TestRouter_AdminSyncWithNoOwners(t *testing.T) {
	h := newTestRouter(t, "s3cret")

	rec := serve(h, "POST", "/admin/sync", "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"owners":0`) {
		t.Errorf("expected a report with zero owners, got %q", rec.Body.String())
	}
}
