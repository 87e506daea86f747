package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupHandlers wires the handler globals onto fresh in-memory state
func setupHandlers(t *testing.T, upstreamURL string) {
	t.Helper()
	initCSRFSecret("test-secret")
	composer = newTestComposer(t, upstreamURL)
	feedWatcher = NewFeedWatcher("http://example.com", feedBroadcaster)
}

func sessionCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == sessionCookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestComposeStateHandlerMintsSession(t *testing.T) {
	setupHandlers(t, "")

	req := httptest.NewRequest(http.MethodGet, "/compose/state", nil)
	rec := httptest.NewRecorder()
	composeStateHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	cookie := sessionCookieFrom(t, rec)
	if cookie.Value == "" {
		t.Fatal("empty session id")
	}

	var resp ComposeStateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp.CSRFToken == "" {
		t.Error("no CSRF token issued")
	}
	if resp.State == nil {
		t.Error("nil state")
	}
	if resp.SubmitEnabled {
		t.Error("submit enabled on empty state")
	}
}

func TestComposeInputHandlerClassifies(t *testing.T) {
	setupHandlers(t, "")
	videoTitleCache.Set("dQw4w9WgXcQ", "A Video")

	form := url.Values{
		"text": {"https://youtu.be/dQw4w9WgXcQ"},
		"page": {"page1"},
	}
	req := httptest.NewRequest(http.MethodPost, "/compose/input", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess1"})
	rec := httptest.NewRecorder()
	composeInputHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result InputResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if result.Classification != "youtube" {
		t.Errorf("classification = %q", result.Classification)
	}
	if result.State.Panel.Title != "A Video" {
		t.Errorf("panel title = %q", result.State.Panel.Title)
	}
	if !feedWatcher.IsPaused() {
		t.Error("feed not paused while composing")
	}
}

func TestComposeInputHandlerRejectsGet(t *testing.T) {
	setupHandlers(t, "")

	req := httptest.NewRequest(http.MethodGet, "/compose/input", nil)
	rec := httptest.NewRecorder()
	composeInputHandler(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestComposeSubmitHandlerRequiresCSRF(t *testing.T) {
	setupHandlers(t, "")

	form := url.Values{
		"page":        {"page1"},
		CSRFFieldName: {"bogus"},
	}
	req := httptest.NewRequest(http.MethodPost, "/compose/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess1"})
	rec := httptest.NewRecorder()
	composeSubmitHandler(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestComposeSubmitHandlerRequiresLogin(t *testing.T) {
	setupHandlers(t, "")

	form := url.Values{
		"page":        {"page1"},
		CSRFFieldName: {generateCSRFToken("sess1")},
	}
	req := httptest.NewRequest(http.MethodPost, "/compose/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess1"})
	rec := httptest.NewRecorder()
	composeSubmitHandler(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestLoginThenSubmitFlow(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()
	setupHandlers(t, upstream.URL)

	// Log in
	form := url.Values{"handle": {"alice"}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess1"})
	rec := httptest.NewRecorder()
	loginHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}

	// Type something valid
	form = url.Values{"text": {"hello world"}, "page": {"page1"}}
	req = httptest.NewRequest(http.MethodPost, "/compose/input", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess1"})
	rec = httptest.NewRecorder()
	composeInputHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("input status = %d", rec.Code)
	}

	// Submit as JSON client
	form = url.Values{
		"page":        {"page1"},
		"tab":         {"all"},
		CSRFFieldName: {generateCSRFToken("sess1")},
	}
	req = httptest.NewRequest(http.MethodPost, "/compose/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess1"})
	rec = httptest.NewRecorder()
	composeSubmitHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result SubmitResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if !result.Submitted {
		t.Error("submission not reported as submitted")
	}
	if feedWatcher.IsPaused() {
		t.Error("feed still paused after submit")
	}
}

func TestMentionsHandlerShortTerm(t *testing.T) {
	setupHandlers(t, "")

	req := httptest.NewRequest(http.MethodGet, "/compose/mentions?term=ab", nil)
	rec := httptest.NewRecorder()
	composeMentionsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("body = %q, want empty list for short term", body)
	}
}

func TestComposeDraftHandlerRoundTrip(t *testing.T) {
	setupHandlers(t, "")

	form := url.Values{"page": {"page1"}, "text": {"saved for later"}}
	req := httptest.NewRequest(http.MethodPost, "/compose/draft", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	composeDraftHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/compose/draft?page=page1", nil)
	rec = httptest.NewRecorder()
	composeDraftHandler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("load status = %d", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if resp["draft"] != "saved for later" {
		t.Errorf("draft = %q", resp["draft"])
	}
}

func TestTabsConfigDefaults(t *testing.T) {
	tabs := getDefaultTabsConfig()
	if !tabs.IsValidTab("all") {
		t.Error("default tab set missing all")
	}
	if tabs.IsValidTab("bogus") {
		t.Error("unknown tab accepted")
	}
	if tabs.DefaultTab() != "all" {
		t.Errorf("default tab = %q", tabs.DefaultTab())
	}
}

func TestReloadTabsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabs.json")
	content := `{"default":"connect","tabs":[{"id":"connect","label":"Connect"}]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("TABS_CONFIG", path)
	if err := ReloadTabsConfig(); err != nil {
		t.Fatalf("ReloadTabsConfig: %v", err)
	}

	tabs := GetTabsConfig()
	if tabs.DefaultTab() != "connect" {
		t.Errorf("default tab = %q, want connect", tabs.DefaultTab())
	}
	if tabs.IsValidTab("all") {
		t.Error("reloaded config still carries the old tab set")
	}

	// Back to the embedded defaults so later tests see a clean slate
	os.Unsetenv("TABS_CONFIG")
	if err := ReloadTabsConfig(); err != nil {
		t.Fatalf("ReloadTabsConfig: %v", err)
	}
	if !GetTabsConfig().IsValidTab("all") {
		t.Fatal("defaults not restored")
	}
}
