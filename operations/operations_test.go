package operations

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"reelops/live"
	"reelops/middleware"
	"reelops/models"
	"reelops/report"
	"reelops/store"
)

type failingStore struct {
	store.OperationStore
}

func (failingStore) Append(context.Context, []models.OperationRecord) error {
	return errors.New("disk full")
}

func (failingStore) List(context.Context) ([]models.OperationRecord, error) {
	return nil, errors.New("disk gone")
}

func (failingStore) Clear(context.Context) error { return errors.New("read-only") }

type recordingNotifier struct {
	mu     sync.Mutex
	events []live.Event
}

func (n *recordingNotifier) Publish(ev live.Event) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

var fixedNow = time.Date(2024, 5, 1, 3, 30, 15, 0, time.UTC)

func newTestHandler(t *testing.T, s store.OperationStore) (*Handler, *recordingNotifier) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	n := &recordingNotifier{}
	h := NewHandler(s, loc, report.NewSigner("secret"), n)
	h.Now = func() time.Time { return fixedNow }
	return h, n
}

func asRole(r *http.Request, role models.Role) *http.Request {
	return r.WithContext(middleware.WithSession(r.Context(), models.Session{Role: role}))
}

func save(h *Handler, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/save", strings.NewReader(body))
	h.Save(rec, asRole(r, models.RoleTechnician), nil)
	return rec
}

func TestSaveStampsInConfiguredZone(t *testing.T) {
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "ops.csv"))
	h, n := newTestHandler(t, s)

	rec := save(h, `{"buttonStates":[{"name":"Projector 1","status":"ON"},{"name":"Projector 2","status":"OFF"}],"timeslot":"AM","technicianName":"Asha"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}

	records, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	for _, r := range records {
		// 03:30:15 UTC is 09:00:15 IST
		if r.Date != "01/05/2024" || r.Time != "09:00:15" || r.Timeslot != "AM" || r.TechnicianName != "Asha" {
			t.Fatalf("unexpected record %+v", r)
		}
	}

	if len(n.events) != 1 || n.events[0].Action != "save" || n.events[0].Records != 2 || n.events[0].By != models.RoleTechnician {
		t.Fatalf("unexpected events %+v", n.events)
	}
}

func TestSaveStoreFailure(t *testing.T) {
	h, n := newTestHandler(t, failingStore{})
	rec := save(h, `{"buttonStates":[{"name":"P","status":"ON"}],"timeslot":"AM","technicianName":"A"}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["success"] != false || !strings.Contains(body["error"].(string), "disk full") {
		t.Fatalf("unexpected body %v", body)
	}
	if len(n.events) != 0 {
		t.Fatal("failed save must not notify")
	}
}

func TestSaveBadBody(t *testing.T) {
	h, _ := newTestHandler(t, store.NewCSVStore(filepath.Join(t.TempDir(), "ops.csv")))
	if rec := save(h, `{"buttonStates": "nope"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestDownload(t *testing.T) {
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "ops.csv"))
	h, _ := newTestHandler(t, s)

	download := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/download", nil), nil)
		return rec
	}

	if rec := download(); rec.Code != http.StatusNotFound || !strings.Contains(rec.Body.String(), "No data available") {
		t.Fatalf("empty log: %d %s", rec.Code, rec.Body.String())
	}

	save(h, `{"buttonStates":[{"name":"Sound, Main","status":"ON"}],"timeslot":"PM","technicianName":"Ravi"}`)
	rec := download()
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != "attachment; filename=reel_operations.csv" {
		t.Fatalf("content disposition %q", cd)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := [][]string{
		{"Date", "Time", "Timeslot", "Technician Name", "Button Name", "Status"},
		{"01/05/2024", "09:00:15", "PM", "Ravi", "Sound, Main", "ON"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows %v", rows)
	}
	for i := range want {
		if strings.Join(rows[i], "|") != strings.Join(want[i], "|") {
			t.Fatalf("row %d = %v, want %v", i, rows[i], want[i])
		}
	}
}

func TestDownloadStoreFailure(t *testing.T) {
	h, _ := newTestHandler(t, failingStore{})
	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/download", nil), nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestDownloadPDFAndVerify(t *testing.T) {
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "ops.csv"))
	h, _ := newTestHandler(t, s)
	save(h, `{"buttonStates":[{"name":"P1","status":"ON"}],"timeslot":"AM","technicianName":"A"}`)

	rec := httptest.NewRecorder()
	h.DownloadPDF(rec, httptest.NewRequest(http.MethodGet, "/api/download/pdf", nil), nil)
	if rec.Code != http.StatusOK || !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Fatalf("pdf: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type %q", ct)
	}

	verify := func(payload string) map[string]any {
		body, _ := json.Marshal(map[string]string{"payload": payload})
		rec := httptest.NewRecorder()
		h.VerifyReport(rec, httptest.NewRequest(http.MethodPost, "/api/report/verify", bytes.NewReader(body)), nil)
		var out map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &out)
		return out
	}
	good := h.Signer.Payload(1, fixedNow, []byte("x"))
	if out := verify(good); out["valid"] != true {
		t.Fatalf("good payload: %v", out)
	}
	if out := verify(good + "x"); out["valid"] != false {
		t.Fatalf("tampered payload: %v", out)
	}
}

func TestDelete(t *testing.T) {
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "ops.csv"))
	h, n := newTestHandler(t, s)
	save(h, `{"buttonStates":[{"name":"P1","status":"ON"}],"timeslot":"AM","technicianName":"A"}`)

	rec := httptest.NewRecorder()
	h.Delete(rec, asRole(httptest.NewRequest(http.MethodPost, "/api/delete", nil), models.RoleAdmin), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if got, _ := s.List(context.Background()); len(got) != 0 {
		t.Fatalf("log not cleared: %d records", len(got))
	}
	last := n.events[len(n.events)-1]
	if last.Action != "delete" || last.By != models.RoleAdmin {
		t.Fatalf("unexpected event %+v", last)
	}

	h, _ = newTestHandler(t, failingStore{})
	rec = httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodPost, "/api/delete", nil), nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("failing delete: status %d", rec.Code)
	}
}

func TestLoadRecordsEmptyLog(t *testing.T) {
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "ops.csv"))
	h, _ := newTestHandler(t, s)

	if _, err := h.loadRecords(context.Background()); !errors.Is(err, models.ErrNoData) {
		t.Fatalf("empty log: got %v, want ErrNoData", err)
	}
	if _, err := newHandlerWith(t, failingStore{}).loadRecords(context.Background()); err == nil || errors.Is(err, models.ErrNoData) {
		t.Fatalf("store failure must not look like an empty log: %v", err)
	}

	save(h, `{"buttonStates":[{"name":"P1","status":"ON"}],"timeslot":"AM","technicianName":"A"}`)
	records, err := h.loadRecords(context.Background())
	if err != nil || len(records) != 1 {
		t.Fatalf("got %d records, err %v", len(records), err)
	}
}

func newHandlerWith(t *testing.T, s store.OperationStore) *Handler {
	t.Helper()
	h, _ := newTestHandler(t, s)
	return h
}
