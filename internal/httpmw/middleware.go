// Package httpmw holds the outer middleware for the API server: request ID
// propagation, panic recovery, and a JSON-line access log. Every response is
// JSON, so the recovery path does not special-case content types.
package httpmw

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestIDKey contextKey = "lifequest.request_id"

// Chain wraps h in the given middlewares, outermost first.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	if h == nil {
		h = http.NotFoundHandler()
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithRequestID tags the request with an ID, honoring one sent by the caller
// so IDs survive proxies, and echoes it on the response.
func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", rid)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, rid)))
	})
}

// WithRecover turns a handler panic into a logged 500 instead of a dropped
// connection.
func WithRecover(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				writeLog(logger, logRecord{
					Level:     "error",
					Msg:       "panic_recovered",
					RequestID: RequestIDFromContext(r.Context()),
					Method:    r.Method,
					Path:      r.URL.Path,
					Err:       fmt.Sprint(rec),
					Stack:     string(debug.Stack()),
				})
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"internal server error"}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// WithAccessLog emits one JSON line per request after the handler returns.
func WithAccessLog(logger *log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &recorder{ResponseWriter: w}
			start := time.Now()
			next.ServeHTTP(rec, r)

			writeLog(logger, logRecord{
				Level:      "info",
				Msg:        "http_request",
				RequestID:  RequestIDFromContext(r.Context()),
				Method:     r.Method,
				Path:       r.URL.Path,
				Status:     rec.statusOr200(),
				Bytes:      rec.bytes,
				DurationMS: time.Since(start).Milliseconds(),
				RemoteIP:   clientIP(r),
			})
		})
	}
}

// recorder captures the status and body size written by the inner handler.
// A zero status means WriteHeader was never called and net/http sent 200.
type recorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *recorder) WriteHeader(status int) {
	if rec.status == 0 {
		rec.status = status
	}
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *recorder) Write(p []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}

func (rec *recorder) statusOr200() int {
	if rec.status == 0 {
		return http.StatusOK
	}
	return rec.status
}

// logRecord is one access or error line. Typed fields keep the key set
// stable so the lines stay grep- and jq-friendly.
type logRecord struct {
	Ts         string `json:"ts"`
	Level      string `json:"level"`
	Msg        string `json:"msg"`
	RequestID  string `json:"request_id,omitempty"`
	Method     string `json:"method,omitempty"`
	Path       string `json:"path,omitempty"`
	Status     int    `json:"status,omitempty"`
	Bytes      int    `json:"bytes,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	RemoteIP   string `json:"remote_ip,omitempty"`
	Err        string `json:"err,omitempty"`
	Stack      string `json:"stack,omitempty"`
}

func writeLog(logger *log.Logger, rec logRecord) {
	if logger == nil {
		logger = log.Default()
	}
	rec.Ts = time.Now().UTC().Format(time.RFC3339Nano)
	b, err := json.Marshal(rec)
	if err != nil {
		logger.Printf(`{"level":"error","msg":"log_marshal_failed","err":%q}`, err.Error())
		return
	}
	logger.Print(string(b))
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-Ip, then the
// socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if xrip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); xrip != "" {
		return xrip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
