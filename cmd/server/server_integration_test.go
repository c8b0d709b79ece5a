package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rohitkumar-vc/lifequest-backend/internal/config"
	"github.com/rohitkumar-vc/lifequest-backend/internal/httpmw"
	"github.com/rohitkumar-vc/lifequest-backend/internal/sched"
	"github.com/rohitkumar-vc/lifequest-backend/internal/serverapp"
)

const testWebhookSecret = "test-webhook-secret"

func TestServer_ProtectedRoutesRequireAuth(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/api/users/me", "/api/habits", "/api/todos", "/api/dailies", "/api/analytics/recent"} {
		res := app.request(http.MethodGet, path, nil, "")
		if res.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s, got %d", path, res.Code)
		}
	}
}

func TestServer_HealthExposesRequestID(t *testing.T) {
	app := newTestApp(t)

	res := app.request(http.MethodGet, "/healthz", nil, "")
	if res.Code != http.StatusOK {
		t.Fatalf("healthz expected 200, got %d body=%s", res.Code, res.Body.String())
	}
	if rid := res.Header().Get("X-Request-Id"); rid == "" {
		t.Fatalf("healthz missing X-Request-Id header")
	}
}

func TestServer_RegisterLoginAndMe(t *testing.T) {
	app := newTestApp(t)

	regRes := app.json(http.MethodPost, "/api/auth/register", map[string]any{
		"username": "integration",
		"email":    "integration@example.com",
		"password": "correct-horse-battery",
	})
	if regRes.Code != http.StatusCreated {
		t.Fatalf("register expected 201, got %d body=%s", regRes.Code, regRes.Body.String())
	}

	loginRes := app.json(http.MethodPost, "/api/auth/login", map[string]any{
		"username": "integration",
		"password": "correct-horse-battery",
	})
	if loginRes.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d body=%s", loginRes.Code, loginRes.Body.String())
	}
	login := decodeBodyMap(t, loginRes)
	token, _ := login["access_token"].(string)
	if token == "" {
		t.Fatalf("login response missing access_token, body=%s", loginRes.Body.String())
	}
	app.token = token

	meRes := app.request(http.MethodGet, "/api/users/me", nil, "")
	if meRes.Code != http.StatusOK {
		t.Fatalf("me expected 200, got %d body=%s", meRes.Code, meRes.Body.String())
	}
	me := decodeBodyMap(t, meRes)
	st := asMap(t, me["stats"])
	if got := st["hp"].(float64); got != 100 {
		t.Fatalf("fresh user hp = %v, want 100", got)
	}
	if got := st["level"].(float64); got != 1 {
		t.Fatalf("fresh user level = %v, want 1", got)
	}
	if got := st["gold"].(float64); got != 0 {
		t.Fatalf("fresh user gold = %v, want 0", got)
	}

	badLogin := app.json(http.MethodPost, "/api/auth/login", map[string]any{
		"username": "integration",
		"password": "wrong",
	})
	if badLogin.Code != http.StatusUnauthorized {
		t.Fatalf("bad login expected 401, got %d", badLogin.Code)
	}
}

func TestServer_HabitTriggerAndUndoRoundTrip(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "habits@example.com")

	createRes := app.json(http.MethodPost, "/api/habits", map[string]any{
		"title":      "Morning run",
		"type":       "positive",
		"difficulty": "easy",
	})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create habit expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	habitID := asString(t, decodeBodyMap(t, createRes)["id"])

	trigRes := app.json(http.MethodPost, "/api/habits/"+habitID+"/trigger", map[string]any{
		"intent": "success",
	})
	if trigRes.Code != http.StatusOK {
		t.Fatalf("trigger expected 200, got %d body=%s", trigRes.Code, trigRes.Body.String())
	}
	trig := decodeBodyMap(t, trigRes)
	if streak := asMap(t, trig["habit"])["current_streak"].(float64); streak != 1 {
		t.Fatalf("streak after trigger = %v, want 1", streak)
	}
	goldAfter := asMap(t, asMap(t, trig["user"])["stats"])["gold"].(float64)
	if goldAfter <= 0 {
		t.Fatalf("expected gold gain after trigger, got %v", goldAfter)
	}

	undoRes := app.json(http.MethodPost, "/api/habits/"+habitID+"/undo", nil)
	if undoRes.Code != http.StatusOK {
		t.Fatalf("undo expected 200, got %d body=%s", undoRes.Code, undoRes.Body.String())
	}
	undo := decodeBodyMap(t, undoRes)
	if streak := asMap(t, undo["habit"])["current_streak"].(float64); streak != 0 {
		t.Fatalf("streak after undo = %v, want 0", streak)
	}
	if gold := asMap(t, asMap(t, undo["user"])["stats"])["gold"].(float64); gold != 0 {
		t.Fatalf("gold after undo = %v, want 0", gold)
	}

	again := app.json(http.MethodPost, "/api/habits/"+habitID+"/undo", nil)
	if again.Code != http.StatusConflict {
		t.Fatalf("second undo expected 409, got %d body=%s", again.Code, again.Body.String())
	}

	recentRes := app.request(http.MethodGet, "/api/analytics/recent", nil, "")
	if recentRes.Code != http.StatusOK {
		t.Fatalf("analytics recent expected 200, got %d", recentRes.Code)
	}
	var entries []map[string]any
	if err := json.Unmarshal(recentRes.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode recent: %v body=%s", err, recentRes.Body.String())
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 activity entries (trigger + undo), got %d", len(entries))
	}
}

func TestServer_TodoDeadlineWebhook(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "todos@example.com")

	deadline := time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339)
	createRes := app.json(http.MethodPost, "/api/todos", map[string]any{
		"title":      "Ship the report",
		"difficulty": "easy",
		"deadline":   deadline,
	})
	if createRes.Code != http.StatusCreated {
		t.Fatalf("create todo expected 201, got %d body=%s", createRes.Code, createRes.Body.String())
	}
	created := decodeBodyMap(t, createRes)
	todoID := asString(t, asMap(t, created["todo"])["id"])
	if state := asString(t, asMap(t, created["todo"])["state"]); state != "active_loaned" {
		t.Fatalf("todo state = %s, want active_loaned", state)
	}
	if gold := asMap(t, asMap(t, created["user"])["stats"])["gold"].(float64); gold != 10 {
		t.Fatalf("gold after loan = %v, want 10", gold)
	}

	// The webhook rejects calls without the shared secret.
	noSecret := app.request(http.MethodPost, "/api/todos/"+todoID+"/check-validity", nil, "")
	if noSecret.Code != http.StatusUnauthorized {
		t.Fatalf("webhook without secret expected 401, got %d", noSecret.Code)
	}

	hookRes := app.webhook(t, todoID)
	if hookRes.Code != http.StatusOK {
		t.Fatalf("webhook expected 200, got %d body=%s", hookRes.Code, hookRes.Body.String())
	}
	if result := asString(t, decodeBodyMap(t, hookRes)["result"]); result != "processed" {
		t.Fatalf("webhook result = %s, want processed", result)
	}

	// Redelivery of the same fire event is a no-op.
	dup := app.webhook(t, todoID)
	if result := asString(t, decodeBodyMap(t, dup)["result"]); result != "already_processed" {
		t.Fatalf("duplicate webhook result = %s, want already_processed", result)
	}

	meRes := app.request(http.MethodGet, "/api/users/me", nil, "")
	me := decodeBodyMap(t, meRes)
	if gold := asMap(t, me["stats"])["gold"].(float64); gold != 0 {
		t.Fatalf("gold after overdue penalty = %v, want 0 (clamped)", gold)
	}

	completeRes := app.json(http.MethodPost, "/api/todos/"+todoID+"/complete", nil)
	if completeRes.Code != http.StatusConflict {
		t.Fatalf("completing an overdue todo expected 409, got %d body=%s", completeRes.Code, completeRes.Body.String())
	}
}

func TestServer_ShopItemManagementIsAdminOnly(t *testing.T) {
	app := newTestApp(t)
	app.signup(t, "shopper@example.com")

	res := app.json(http.MethodPost, "/api/shop/items", map[string]any{
		"name":        "Health potion",
		"cost":        25,
		"effect_type": "hp_restore",
	})
	if res.Code != http.StatusForbidden {
		t.Fatalf("non-admin item create expected 403, got %d body=%s", res.Code, res.Body.String())
	}

	listRes := app.request(http.MethodGet, "/api/shop/items", nil, "")
	if listRes.Code != http.StatusOK {
		t.Fatalf("shop list expected 200, got %d", listRes.Code)
	}
}

type testApp struct {
	handler http.Handler
	token   string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:      "integration-test-secret",
		AccessTokenTTL: time.Hour,
		WebhookSecret:  testWebhookSecret,
		BaseURL:        "http://localhost:8080",
		TimeZone:       "UTC",
	}

	app, err := serverapp.New(serverapp.Options{
		Config:    cfg,
		Balance:   config.Default(),
		Scheduler: sched.NewMemory(),
		Logger:    log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("serverapp.New: %v", err)
	}

	handler := httpmw.Chain(app.Handler,
		httpmw.WithRequestID,
		httpmw.WithRecover(log.New(io.Discard, "", 0)),
	)
	return &testApp{handler: handler}
}

func (a *testApp) signup(t *testing.T, email string) {
	t.Helper()
	username := "user-" + email
	regRes := a.json(http.MethodPost, "/api/auth/register", map[string]any{
		"username": username,
		"email":    email,
		"password": "correct-horse-battery",
	})
	if regRes.Code != http.StatusCreated {
		t.Fatalf("register expected 201, got %d body=%s", regRes.Code, regRes.Body.String())
	}
	loginRes := a.json(http.MethodPost, "/api/auth/login", map[string]any{
		"username": username,
		"password": "correct-horse-battery",
	})
	if loginRes.Code != http.StatusOK {
		t.Fatalf("login expected 200, got %d body=%s", loginRes.Code, loginRes.Body.String())
	}
	token, _ := decodeBodyMap(t, loginRes)["access_token"].(string)
	if token == "" {
		t.Fatalf("login response missing access_token")
	}
	a.token = token
}

func (a *testApp) webhook(t *testing.T, todoID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/todos/"+todoID+"/check-validity", nil)
	req.Header.Set("Authorization", "Bearer "+testWebhookSecret)
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) json(method, path string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	return a.request(method, path, r, "application/json")
}

func (a *testApp) request(method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBodyMap(t *testing.T, res *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &m); err != nil {
		t.Fatalf("decode body: %v body=%s", err, res.Body.String())
	}
	return m
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected object, got %T (%v)", v, v)
	}
	return m
}

func asString(t *testing.T, v any) string {
	t.Helper()
	s, ok := v.(string)
	if !ok {
		t.Fatalf("expected string, got %T (%v)", v, v)
	}
	return s
}
