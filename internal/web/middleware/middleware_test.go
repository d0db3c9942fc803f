package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/sheetdb/internal/config"
	"github.com/JonMunkholm/sheetdb/internal/core"
)

func echoRemoteAddr() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.RemoteAddr))
	})
}

func TestTrustedRealIP(t *testing.T) {
	handler := TrustedRealIP([]string{"10.0.0.0/8", "192.168.1.5", "not-a-cidr"})(echoRemoteAddr())

	tests := []struct {
		name    string
		remote  string
		headers map[string]string
		want    string
	}{
		{"untrusted ignores headers", "203.0.113.7:5000", map[string]string{"X-Real-IP": "1.2.3.4"}, "203.0.113.7"},
		{"trusted cidr uses X-Real-IP", "10.1.2.3:5000", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"trusted single ip", "192.168.1.5:80", map[string]string{"X-Real-IP": "198.51.100.9"}, "198.51.100.9"},
		{"first forwarded hop", "10.0.0.1:5000", map[string]string{"X-Forwarded-For": "198.51.100.1, 10.0.0.2"}, "198.51.100.1"},
		{"invalid header keeps remote", "10.0.0.1:5000", map[string]string{"X-Real-IP": "garbage"}, "10.0.0.1"},
		{"no headers", "10.0.0.1:5000", nil, "10.0.0.1"},
		{"ipv6 remote", "[2001:db8::1]:443", nil, "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIKeyAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name     string
		cfg      config.SecurityConfig
		header   string
		value    string
		wantCode int
		wantErr  string
	}{
		{"disabled", config.SecurityConfig{}, "", "", http.StatusOK, ""},
		{"missing", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k"}}, "", "", http.StatusUnauthorized, "AUTH_MISSING_KEY"},
		{"invalid", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k"}}, "X-API-Key", "x", http.StatusForbidden, "AUTH_INVALID_KEY"},
		{"valid header", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"a", "k"}}, "X-API-Key", "k", http.StatusOK, ""},
		{"valid bearer", config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k"}}, "Authorization", "Bearer k", http.StatusOK, ""},
		{"no keys configured", config.SecurityConfig{RequireAPIKey: true}, "X-API-Key", "k", http.StatusForbidden, "AUTH_INVALID_KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/collections", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			APIKeyAuth(tt.cfg)(ok).ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantErr == "" {
				return
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["code"] != tt.wantErr {
				t.Errorf("code = %q, want %q", body["code"], tt.wantErr)
			}
		})
	}
}

func TestRequestMetadata(t *testing.T) {
	var got core.RequestMetadata
	handler := chimw.RequestID(RequestMetadata(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = core.RequestMetadataFromContext(r.Context())
	})))

	req := httptest.NewRequest(http.MethodPost, "/api/consultas", nil)
	req.RemoteAddr = "198.51.100.4"
	req.Header.Set("User-Agent", "curl/8.0")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got.IPAddress != "198.51.100.4" {
		t.Errorf("IPAddress = %q", got.IPAddress)
	}
	if got.UserAgent != "curl/8.0" {
		t.Errorf("UserAgent = %q", got.UserAgent)
	}
	if got.RequestID == "" {
		t.Error("RequestID should be set")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream"))
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/productos", nil))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line: %v (%s)", err, buf.String())
	}
	if line["level"] != "WARN" {
		t.Errorf("level = %v, want WARN", line["level"])
	}
	if line["status"] != float64(http.StatusBadGateway) {
		t.Errorf("status = %v", line["status"])
	}
	if line["bytes"] != float64(len("upstream")) {
		t.Errorf("bytes = %v", line["bytes"])
	}
	if line["path"] != "/api/productos" {
		t.Errorf("path = %v", line["path"])
	}
}
