package server

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"cmms/internal/auth"
	"cmms/internal/store"
)

func TestGzipMiddleware(t *testing.T) {
	handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Hello World"))
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Error("Expected Content-Encoding: gzip")
	}

	// Verify body is gzipped
	gr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatalf("Failed to create gzip reader: %v", err)
	}
	defer gr.Close()

	body, err := io.ReadAll(gr)
	if err != nil {
		t.Fatalf("Failed to read gzip body: %v", err)
	}

	if string(body) != "Hello World" {
		t.Errorf("Expected 'Hello World', got '%s'", string(body))
	}
}

func TestGzipMiddleware_ErrorResponse(t *testing.T) {
	// Simulate http.Error behavior: WriteHeader then Write
	handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}

	if w.Header().Get("Content-Encoding") != "gzip" {
		t.Error("Expected Content-Encoding: gzip even for error responses")
	}
}

func TestGzipMiddleware_ErrorResponse_RealServer(t *testing.T) {
	handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))

	srv := httptest.NewServer(handler)
	defer srv.Close()

	req, _ := http.NewRequest("GET", srv.URL, nil)
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Error("Expected Content-Encoding: gzip")
	}
}

func TestGzipMiddleware_NoGzipAccept(t *testing.T) {
	handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello World"))
	}))

	req := httptest.NewRequest("GET", "/", nil)
	// No Accept-Encoding header
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") == "gzip" {
		t.Error("Expected no Content-Encoding: gzip")
	}

	if w.Body.String() != "Hello World" {
		t.Errorf("Expected 'Hello World', got '%s'", w.Body.String())
	}
}

func TestGzipMiddleware_SkipsWebSocketUpgrade(t *testing.T) {
	handler := GzipMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := w.(GzipResponseWriter); ok {
			t.Error("upgrade request must not be wrapped")
		}
	}))

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Upgrade", "websocket")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "" {
		t.Error("Expected no Content-Encoding on upgrade")
	}
}

func TestSecurityHeaders(t *testing.T) {
	handler := SecurityHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/assets", nil))

	for _, h := range []string{"X-Frame-Options", "X-Content-Type-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
	if w.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must only be sent over TLS")
	}
}

func TestLoggingMiddleware_Preflight(t *testing.T) {
	called := false
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/api/v1/assets", nil))

	if called {
		t.Error("preflight must not reach the handler")
	}
	if w.Code != http.StatusOK || w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("got %d %v", w.Code, w.Header())
	}
}

func TestLoggingMiddleware_KeepsStatus(t *testing.T) {
	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/assets", nil))
	if w.Code != http.StatusTeapot {
		t.Errorf("got %d want %d", w.Code, http.StatusTeapot)
	}
}

func setupKeyStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	auth.HashCost = bcrypt.MinCost
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	key, err := auth.GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	hash, err := auth.HashAPIKey(key)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateAPIKey(context.Background(), "ci", auth.LookupPrefix(key), hash, "admin"); err != nil {
		t.Fatal(err)
	}
	return s, key
}

func TestRequireAPIKey(t *testing.T) {
	s, key := setupKeyStore(t)
	v := &auth.Validator{Store: s}

	var gotUser string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, _ = r.Context().Value(CtxUsername).(string)
		w.WriteHeader(http.StatusOK)
	})
	closed := RequireAPIKey(v, func(context.Context) bool { return false })(inner)
	open := RequireAPIKey(v, func(context.Context) bool { return true })(inner)

	tests := []struct {
		name    string
		handler http.Handler
		path    string
		auth    string
		want    int
	}{
		{"valid key", closed, "/api/v1/assets", "Bearer " + key, http.StatusOK},
		{"bad key", closed, "/api/v1/assets", "Bearer cmms_deadbeefdeadbeef", http.StatusUnauthorized},
		{"bad key while open", open, "/api/v1/assets", "Bearer cmms_deadbeefdeadbeef", http.StatusUnauthorized},
		{"no key", closed, "/api/v1/assets", "", http.StatusUnauthorized},
		{"no key while open", open, "/api/v1/assets", "", http.StatusOK},
		{"health", closed, "/api/v1/health", "", http.StatusOK},
		{"websocket", closed, "/ws", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("got %d want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}

	req := httptest.NewRequest("GET", "/api/v1/assets", nil)
	req.Header.Set("Authorization", "Bearer "+key)
	closed.ServeHTTP(httptest.NewRecorder(), req)
	if gotUser != "apikey:"+auth.LookupPrefix(key) {
		t.Errorf("username: got %q", gotUser)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := NewRateLimiter()
	handler := RateLimitMiddleware(rl, 3, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(path, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		req.RemoteAddr = ip + ":5555"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 3; i++ {
		if w := do("/api/v1/assets", "10.0.0.1"); w.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i+1, w.Code)
		}
	}
	w := do("/api/v1/assets", "10.0.0.1")
	if w.Code != http.StatusTooManyRequests || w.Header().Get("Retry-After") == "" {
		t.Errorf("got %d, Retry-After %q", w.Code, w.Header().Get("Retry-After"))
	}
	if w := do("/api/v1/assets", "10.0.0.2"); w.Code != http.StatusOK {
		t.Errorf("other client: got %d", w.Code)
	}

	if w := do("/api/v1/exports/maintenance-plan", "10.0.0.3"); w.Code != http.StatusOK {
		t.Errorf("first export: got %d", w.Code)
	}
	if w := do("/api/v1/exports/maintenance-plan", "10.0.0.3"); w.Code != http.StatusTooManyRequests {
		t.Errorf("second export: got %d", w.Code)
	}
	if w := do("/ws", "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("non-api path limited: got %d", w.Code)
	}

	rl.Reset()
	if w := do("/api/v1/assets", "10.0.0.1"); w.Code != http.StatusOK {
		t.Errorf("after reset: got %d", w.Code)
	}
}

func TestRateLimitMiddlewareKeysByHost(t *testing.T) {
	handler := RateLimitMiddleware(NewRateLimiter(), 2, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		name string
		addr func(i int) string
	}{
		{"ipv4", func(i int) string { return fmt.Sprintf("10.0.0.9:%d", 40000+i) }},
		{"ipv6", func(i int) string { return fmt.Sprintf("[2001:db8::1]:%d", 40000+i) }},
		{"bare ipv6", func(i int) string { return "2001:db8::2" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limited := 0
			for i := 0; i < 10; i++ {
				req := httptest.NewRequest("GET", "/api/v1/assets", nil)
				req.RemoteAddr = tt.addr(i)
				w := httptest.NewRecorder()
				handler.ServeHTTP(w, req)
				if w.Code == http.StatusTooManyRequests {
					limited++
				} else if i >= 2 {
					t.Errorf("request %d from %s: got %d", i+1, req.RemoteAddr, w.Code)
				}
			}
			if limited != 8 {
				t.Errorf("Expected 8 limited requests, got %d", limited)
			}
		})
	}
}
