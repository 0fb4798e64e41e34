package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"SigBoard/internal/auth"
	"SigBoard/internal/domain/models"
	"SigBoard/internal/proxy"
	"SigBoard/internal/stream"
	"SigBoard/internal/usecase"
	"SigBoard/internal/view"
	"SigBoard/pkg/logger"
	"SigBoard/pkg/metrics"
)

var testMetrics = metrics.New()

const sessionCookie = "sigboard-auth=authenticated"

type stubSource struct {
	snapshot    models.Snapshot
	fetchCalls  atomic.Int64
	addCalls    atomic.Int64
	lastAdded   atomic.Value
	exportBytes []byte
}

func (s *stubSource) FetchData(context.Context) (models.Snapshot, error) {
	s.fetchCalls.Add(1)
	return s.snapshot, nil
}

func (s *stubSource) AddPair(_ context.Context, symbol string) error {
	s.addCalls.Add(1)
	s.lastAdded.Store(symbol)
	return nil
}

func (s *stubSource) RemovePairs(_ context.Context, _ []string) error { return nil }

func (s *stubSource) UploadPairs(_ context.Context, _ string, _ []byte) error { return nil }

func (s *stubSource) ExportPairs(context.Context) ([]byte, error) {
	return s.exportBytes, nil
}

func newTestServer(t *testing.T, source *stubSource) *echo.Echo {
	t.Helper()

	log := logger.Nop()
	guard := auth.NewGuard()
	authHandler := auth.NewHandler(guard, "secret123", 24*time.Hour, log, testMetrics)
	forwarder := proxy.NewForwarder("http://127.0.0.1:1", time.Second, log, testMetrics)
	poller := usecase.NewSnapshotPoller(source, 15*time.Second, log, testMetrics)
	hub := stream.NewHub(log, testMetrics)

	e := echo.New()
	NewDashboardHandler(log, guard, authHandler, forwarder, poller, hub).RegisterRoutes(e)
	poller.Refresh(context.Background())
	return e
}

func snapshotOf(symbols ...string) models.Snapshot {
	entries := make(map[string]models.MarketEntry, len(symbols))
	for i, s := range symbols {
		entries[s] = models.MarketEntry{
			Signal: models.SignalBuy,
			Score:  float64(i) / 10,
			Price:  float64(100 + i),
		}
	}
	return models.Snapshot{Entries: entries, FetchedAt: time.Now().UTC()}
}

func TestHealthIsPublic(t *testing.T) {
	e := newTestServer(t, &stubSource{snapshot: snapshotOf()})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestGatedRoutesRejectWithoutSession(t *testing.T) {
	source := &stubSource{snapshot: snapshotOf("BTCUSDT")}
	e := newTestServer(t, source)
	before := source.addCalls.Load()

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/api/view"},
		{http.MethodPost, "/api/pairs/add"},
		{http.MethodPost, "/api/pairs/remove"},
		{http.MethodGet, "/api/pairs/export"},
		{http.MethodGet, "/api/proxy/data"},
	} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", tc.method, tc.path, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Errorf("%s %s body not JSON: %v", tc.method, tc.path, err)
		} else if body["error"] != "Not authenticated" {
			t.Errorf("%s %s error = %q", tc.method, tc.path, body["error"])
		}
	}

	if source.addCalls.Load() != before {
		t.Fatal("backend reached without a session")
	}
}

func TestViewWithSession(t *testing.T) {
	e := newTestServer(t, &stubSource{snapshot: snapshotOf("BTCUSDT", "ETHUSDT")})

	req := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	req.Header.Set("Cookie", sessionCookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var res struct {
		Data struct {
			view.Page
			Status     string `json:"status"`
			LastUpdate string `json:"last_update"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Data.Status != "connected" {
		t.Fatalf("status = %q, want connected", res.Data.Status)
	}
	if res.Data.Total != 2 || len(res.Data.Rows) != 2 {
		t.Fatalf("total = %d, rows = %d", res.Data.Total, len(res.Data.Rows))
	}
	if res.Data.LastUpdate == "" {
		t.Fatal("last_update missing")
	}
}

func TestViewRejectsBadSort(t *testing.T) {
	e := newTestServer(t, &stubSource{snapshot: snapshotOf("BTCUSDT")})

	req := httptest.NewRequest(http.MethodGet, "/api/view?sort=bogus", nil)
	req.Header.Set("Cookie", sessionCookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestAddSymbolValidatesBeforeBackend(t *testing.T) {
	source := &stubSource{snapshot: snapshotOf()}
	e := newTestServer(t, source)
	before := source.addCalls.Load()

	req := httptest.NewRequest(http.MethodPost, "/api/pairs/add", strings.NewReader(`{}`))
	req.Header.Set("Cookie", sessionCookie)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if source.addCalls.Load() != before {
		t.Fatal("backend called for invalid request")
	}
}

func TestAddSymbolForwardsToBackend(t *testing.T) {
	source := &stubSource{snapshot: snapshotOf("BTCUSDT")}
	e := newTestServer(t, source)

	req := httptest.NewRequest(http.MethodPost, "/api/pairs/add", strings.NewReader(`{"symbol":"ethusdt"}`))
	req.Header.Set("Cookie", sessionCookie)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if source.addCalls.Load() != 1 {
		t.Fatalf("add calls = %d, want 1", source.addCalls.Load())
	}
	if got := source.lastAdded.Load(); got != "ETHUSDT" {
		t.Fatalf("added symbol = %v, want normalized ETHUSDT", got)
	}
}

func TestUploadPairsRequiresFile(t *testing.T) {
	e := newTestServer(t, &stubSource{snapshot: snapshotOf()})

	req := httptest.NewRequest(http.MethodPost, "/api/pairs/upload", strings.NewReader(""))
	req.Header.Set("Cookie", sessionCookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadPairsAcceptsMultipart(t *testing.T) {
	e := newTestServer(t, &stubSource{snapshot: snapshotOf()})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "pairs.txt")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("BTCUSDT\nETHUSDT\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/pairs/upload", &buf)
	req.Header.Set("Cookie", sessionCookie)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestExportPairsIsAnAttachment(t *testing.T) {
	e := newTestServer(t, &stubSource{
		snapshot:    snapshotOf(),
		exportBytes: []byte("symbol\nBTCUSDT\n"),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/pairs/export", nil)
	req.Header.Set("Cookie", sessionCookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "trading_pairs.csv") {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if rec.Body.String() != "symbol\nBTCUSDT\n" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestLoginThenViewFlow(t *testing.T) {
	e := newTestServer(t, &stubSource{snapshot: snapshotOf("BTCUSDT")})

	login := httptest.NewRequest(http.MethodPost, "/api/auth", strings.NewReader(`{"password":"secret123"}`))
	login.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	loginRec := httptest.NewRecorder()
	e.ServeHTTP(loginRec, login)
	if loginRec.Code != http.StatusOK {
		t.Fatalf("login status = %d", loginRec.Code)
	}

	cookies := loginRec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}

	viewReq := httptest.NewRequest(http.MethodGet, "/api/view", nil)
	for _, c := range cookies {
		viewReq.AddCookie(c)
	}
	viewRec := httptest.NewRecorder()
	e.ServeHTTP(viewRec, viewReq)
	if viewRec.Code != http.StatusOK {
		t.Fatalf("view after login status = %d", viewRec.Code)
	}
}
