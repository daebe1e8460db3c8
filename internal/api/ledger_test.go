package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fitledger/fitledger/internal/app/history"
	"github.com/fitledger/fitledger/internal/app/ledger"
	"github.com/fitledger/fitledger/internal/calendar"
	"github.com/fitledger/fitledger/internal/infra/sqlite"
)

// ─── Ledger API Tests ───────────────────────────────────────────────────────

func setupServer(t *testing.T, cfg ledger.Config, today string) *Server {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	day := calendar.MustParse(today)
	cfg.Now = func() calendar.Date { return day }
	return NewServer(ledger.New(cfg, db, history.New(db)))
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var resp map[string]interface{}
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return w, resp
}

func ledgerField(t *testing.T, resp map[string]interface{}, key string) interface{} {
	t.Helper()
	view, ok := resp["ledger"].(map[string]interface{})
	if !ok {
		t.Fatalf("response has no ledger object: %v", resp)
	}
	return view[key]
}

func TestAPI_Health(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	w, resp := doJSON(t, s.Handler(), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
}

func TestAPI_OpenReconcilesOnLoad(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	h := s.Handler()

	w, resp := doJSON(t, h, http.MethodGet, "/api/ledger", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := ledgerField(t, resp, "balance"); got != float64(10) {
		t.Errorf("balance = %v, want 10 (first open credits day 1)", got)
	}
	if got := ledgerField(t, resp, "applied_this_open"); got != float64(10) {
		t.Errorf("applied_this_open = %v, want 10", got)
	}
	if got := ledgerField(t, resp, "last_reconciled"); got != "2024-01-01" {
		t.Errorf("last_reconciled = %v, want 2024-01-01", got)
	}

	// Second load the same day applies nothing more.
	_, resp2 := doJSON(t, h, http.MethodGet, "/api/ledger", "")
	if got := ledgerField(t, resp2, "balance"); got != float64(10) {
		t.Errorf("second-load balance = %v, want 10", got)
	}
	if got := ledgerField(t, resp2, "applied_this_open"); got != float64(0) {
		t.Errorf("second-load applied_this_open = %v, want 0", got)
	}
}

func TestAPI_Adjust(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	h := s.Handler()
	doJSON(t, h, http.MethodGet, "/api/ledger", "") // balance 10

	w, resp := doJSON(t, h, http.MethodPost, "/api/ledger/adjust", `{"amount": 10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, resp)
	}
	if got := ledgerField(t, resp, "balance"); got != float64(20) {
		t.Errorf("balance = %v, want 20", got)
	}
	if got := ledgerField(t, resp, "rewards_balance"); got != "5" {
		t.Errorf("rewards_balance = %v, want \"5\"", got)
	}
}

func TestAPI_Adjust_GuardReturnsConflict(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	h := s.Handler()
	doJSON(t, h, http.MethodGet, "/api/ledger", "") // balance 10

	w, _ := doJSON(t, h, http.MethodPost, "/api/ledger/adjust", `{"amount": -999}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 for a guarded over-spend, got %d", w.Code)
	}

	// Balance unchanged.
	_, resp := doJSON(t, h, http.MethodGet, "/api/ledger", "")
	if got := ledgerField(t, resp, "balance"); got != float64(10) {
		t.Errorf("balance = %v, want unchanged 10", got)
	}
}

func TestAPI_Adjust_BadBody(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	h := s.Handler()

	for _, body := range []string{"", "{}", `{"amount": "ten"}`, "not json"} {
		w, _ := doJSON(t, h, http.MethodPost, "/api/ledger/adjust", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, w.Code)
		}
	}
}

func TestAPI_ConvertRewards(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	h := s.Handler()
	doJSON(t, h, http.MethodGet, "/api/ledger", "")
	doJSON(t, h, http.MethodPost, "/api/ledger/adjust", `{"amount": 10}`) // rewards 5

	w, resp := doJSON(t, h, http.MethodPost, "/api/ledger/rewards/convert", `{"amount": 2.5}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, resp)
	}
	if got := ledgerField(t, resp, "rewards_balance"); got != "2.5" {
		t.Errorf("rewards_balance = %v, want \"2.5\"", got)
	}
}

func TestAPI_SetRate(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	h := s.Handler()
	doJSON(t, h, http.MethodGet, "/api/ledger", "")

	w, resp := doJSON(t, h, http.MethodPut, "/api/ledger/rate", `{"rate": 100}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", w.Code, resp)
	}
	if got := ledgerField(t, resp, "daily_rate"); got != float64(100) {
		t.Errorf("daily_rate = %v, want 100", got)
	}

	w2, _ := doJSON(t, h, http.MethodPut, "/api/ledger/rate", `{"rate": -1}`)
	if w2.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a negative rate, got %d", w2.Code)
	}
}

func TestAPI_History(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	h := s.Handler()
	doJSON(t, h, http.MethodGet, "/api/ledger", "")                      // balance 10
	doJSON(t, h, http.MethodPost, "/api/ledger/adjust", `{"amount": -1}`) // one rep
	doJSON(t, h, http.MethodPost, "/api/ledger/adjust", `{"amount": -1}`) // another

	w, resp := doJSON(t, h, http.MethodGet, "/api/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	activity, ok := resp["activity"].([]interface{})
	if !ok || len(activity) != 1 {
		t.Fatalf("activity = %v, want one entry", resp["activity"])
	}
	entry := activity[0].(map[string]interface{})
	if entry["date"] != "2024-01-01" || entry["reps"] != float64(2) {
		t.Errorf("entry = %v, want 2024-01-01 with 2 reps", entry)
	}

	w2, sum := doJSON(t, h, http.MethodGet, "/api/history/summary", "")
	if w2.Code != http.StatusOK {
		t.Fatalf("summary expected 200, got %d", w2.Code)
	}
	if sum["total_reps"] != float64(2) || sum["active_days"] != float64(1) {
		t.Errorf("summary = %v, want 2 reps across 1 day", sum)
	}
}

func TestAPI_History_Empty(t *testing.T) {
	s := setupServer(t, ledger.DefaultConfig(), "2024-01-01")
	w, resp := doJSON(t, s.Handler(), http.MethodGet, "/api/history", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if activity, ok := resp["activity"].([]interface{}); !ok || len(activity) != 0 {
		t.Errorf("activity = %v, want an empty array (not null)", resp["activity"])
	}

	w2, _ := doJSON(t, s.Handler(), http.MethodGet, "/api/history/summary", "")
	if w2.Code != http.StatusNotFound {
		t.Errorf("summary before any reps: expected 404, got %d", w2.Code)
	}
}
