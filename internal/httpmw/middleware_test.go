package httpmw

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWithRequestID(t *testing.T) {
	var seen string
	h := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if seen == "" {
		t.Fatalf("no request id in context")
	}
	if got := rr.Header().Get("X-Request-Id"); got != seen {
		t.Fatalf("echoed id = %q, want %q", got, seen)
	}

	// A caller-provided ID is kept as-is.
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "upstream-42")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if seen != "upstream-42" || rr.Header().Get("X-Request-Id") != "upstream-42" {
		t.Fatalf("caller id not honored: context %q, header %q", seen, rr.Header().Get("X-Request-Id"))
	}
}

func TestWithRecoverTurnsPanicIntoJSON500(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	h := WithRecover(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not json: %v", err)
	}
	if body["error"] != "internal server error" {
		t.Fatalf("body = %v", body)
	}
	if !strings.Contains(buf.String(), `"msg":"panic_recovered"`) || !strings.Contains(buf.String(), "boom") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestWithAccessLogRecordsStatusAndBytes(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	h := WithAccessLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "ok")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/habits", nil))

	var line struct {
		Msg    string `json:"msg"`
		Status int    `json:"status"`
		Bytes  int    `json:"bytes"`
		Path   string `json:"path"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not json: %v (%s)", err, buf.String())
	}
	if line.Msg != "http_request" || line.Status != 201 || line.Bytes != 2 || line.Path != "/api/habits" {
		t.Fatalf("line = %+v", line)
	}
}

func TestAccessLogDefaultsImplicitStatusTo200(t *testing.T) {
	var buf bytes.Buffer
	h := WithAccessLog(log.New(&buf, "", 0))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if !strings.Contains(buf.String(), `"status":200`) {
		t.Fatalf("line = %s", buf.String())
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.9:4312"
	if got := clientIP(r); got != "10.0.0.9" {
		t.Fatalf("ip = %q, want socket host", got)
	}
	r.Header.Set("X-Real-Ip", "203.0.113.7")
	if got := clientIP(r); got != "203.0.113.7" {
		t.Fatalf("ip = %q, want x-real-ip", got)
	}
	r.Header.Set("X-Forwarded-For", "198.51.100.2, 10.0.0.1")
	if got := clientIP(r); got != "198.51.100.2" {
		t.Fatalf("ip = %q, want first forwarded hop", got)
	}
}
