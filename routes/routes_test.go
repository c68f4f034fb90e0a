package routes

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"reelops/auth"
	"reelops/globals"
	"reelops/live"
	"reelops/middleware"
	"reelops/operations"
	"reelops/ratelim"
	"reelops/report"
	"reelops/sessions"
	"reelops/store"
)

const origin = "https://ops.example.com"

type testServer struct {
	*httptest.Server
	hub *live.Hub
}

func setupServer(t *testing.T, loginPerMinute int) *testServer {
	t.Helper()
	sessionStore := sessions.NewMemoryStore(time.Hour)
	opStore := store.NewCSVStore(filepath.Join(t.TempDir(), "operations.csv"))

	hub := live.NewHub()
	go hub.Run()
	t.Cleanup(hub.Stop)

	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	d := &Deps{
		Auth:       auth.NewHandler(auth.NewAuthenticator("admin-pass", "tech-pass"), sessionStore, auth.CookiePolicy{Secure: true, SameSite: http.SameSiteNoneMode}),
		Operations: operations.NewHandler(opStore, loc, report.NewSigner("secret"), hub),
		Guard:      middleware.NewGuard(sessionStore),
		Hub:        hub,
		Upgrader:   live.NewUpgrader([]string{origin}),
	}
	srv := httptest.NewServer(NewRouter(d, ratelim.NewRateLimiter(loginPerMinute), []string{origin}))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(globals.SessionHeaderName, token)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (s *testServer) login(t *testing.T, userType, password string) string {
	t.Helper()
	resp, body := s.do(t, http.MethodPost, "/api/login", "", `{"userType":"`+userType+`","password":"`+password+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: %d %s", userType, resp.StatusCode, body)
	}
	token := resp.Header.Get(globals.SessionHeaderName)
	if token == "" {
		t.Fatal("login did not return a session id")
	}
	return token
}

const saveBody = `{"buttonStates":[{"name":"Projector","status":"ON"},{"name":"Sound","status":"OFF"},{"name":"Lights","status":"ON"}],"timeslot":"Morning","technicianName":"Asha"}`

func TestOperationLogLifecycle(t *testing.T) {
	s := setupServer(t, 0)

	if resp, _ := s.do(t, http.MethodPost, "/api/save", "", saveBody); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("save without session: %d", resp.StatusCode)
	}
	if resp, _ := s.do(t, http.MethodGet, "/api/download", "", ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("download without session: %d", resp.StatusCode)
	}
	if resp, _ := s.do(t, http.MethodPost, "/api/delete", "", ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("delete without session: %d", resp.StatusCode)
	}

	tech := s.login(t, "Technician", "tech-pass")

	if resp, body := s.do(t, http.MethodGet, "/api/download", tech, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("download of empty log: %d %s", resp.StatusCode, body)
	}

	resp, body := s.do(t, http.MethodPost, "/api/save", tech, saveBody)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save: %d %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, http.MethodGet, "/api/download", tech, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("download: %d", resp.StatusCode)
	}
	rows, err := csv.NewReader(strings.NewReader(string(body))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(rows))
	}
	for _, row := range rows[1:] {
		if row[0] != rows[1][0] || row[1] != rows[1][1] || row[2] != "Morning" || row[3] != "Asha" {
			t.Fatalf("batch rows disagree: %v", rows)
		}
	}

	if resp, _ := s.do(t, http.MethodPost, "/api/delete", tech, ""); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("technician delete: %d", resp.StatusCode)
	}

	admin := s.login(t, "Admin", "admin-pass")
	if resp, body := s.do(t, http.MethodPost, "/api/delete", admin, ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("admin delete: %d %s", resp.StatusCode, body)
	}
	if resp, _ := s.do(t, http.MethodGet, "/api/download", tech, ""); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("download after delete: %d", resp.StatusCode)
	}
}

func TestLoginCheckAuthLogout(t *testing.T) {
	s := setupServer(t, 0)

	if resp, _ := s.do(t, http.MethodPost, "/api/login", "", `{"userType":"Admin","password":"tech-pass"}`); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong password: %d", resp.StatusCode)
	}
	if resp, _ := s.do(t, http.MethodPost, "/api/login", "", `{"userType":"Manager","password":"admin-pass"}`); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown role: %d", resp.StatusCode)
	}

	token := s.login(t, "Admin", "admin-pass")
	resp, body := s.do(t, http.MethodGet, "/api/check-auth", token, "")
	var out map[string]any
	_ = json.Unmarshal(body, &out)
	if resp.StatusCode != http.StatusOK || out["authenticated"] != true || out["userType"] != "Admin" {
		t.Fatalf("check-auth: %d %v", resp.StatusCode, out)
	}

	for i := 0; i < 2; i++ {
		if resp, _ := s.do(t, http.MethodPost, "/api/logout", token, ""); resp.StatusCode != http.StatusOK {
			t.Fatalf("logout: %d", resp.StatusCode)
		}
	}
	if resp, _ := s.do(t, http.MethodGet, "/api/check-auth", token, ""); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("check-auth after logout: %d", resp.StatusCode)
	}
}

func TestLoginRateLimit(t *testing.T) {
	s := setupServer(t, 1)
	s.login(t, "Technician", "tech-pass")
	resp, _ := s.do(t, http.MethodPost, "/api/login", "", `{"userType":"Technician","password":"tech-pass"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second login: %d", resp.StatusCode)
	}
}

func TestHealthAndHeaders(t *testing.T) {
	s := setupServer(t, 0)
	resp, body := s.do(t, http.MethodGet, "/health", "", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("health: %d %s", resp.StatusCode, body)
	}
	if resp.Header.Get("X-Frame-Options") != "DENY" {
		t.Fatal("security headers missing")
	}
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t, 0)
	req, _ := http.NewRequest(http.MethodOptions, s.URL+"/api/save", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", strings.ToLower(globals.SessionHeaderName))
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != origin {
		t.Fatalf("allow origin %q", got)
	}
	if resp.Header.Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("credentials not allowed")
	}

	req, _ = http.NewRequest(http.MethodOptions, s.URL+"/api/save", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err = s.Client().Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("foreign origin allowed: %q", got)
	}
}

func TestLiveFeed(t *testing.T) {
	s := setupServer(t, 0)
	wsURL := "ws" + strings.TrimPrefix(s.URL, "http") + "/api/live"

	if _, resp, err := websocket.DefaultDialer.Dial(wsURL, nil); err == nil || resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("anonymous dial should be refused with 401, got %v", err)
	}

	token := s.login(t, "Technician", "tech-pass")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{globals.SessionHeaderName: {token}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.hub.Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if resp, _ := s.do(t, http.MethodPost, "/api/save", token, saveBody); resp.StatusCode != http.StatusOK {
		t.Fatalf("save: %d", resp.StatusCode)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ev live.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	if ev.Action != "save" || ev.Records != 3 || ev.TechnicianName != "Asha" {
		t.Fatalf("unexpected event %+v", ev)
	}
}
