package api

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vocdoni/zkvote-node/log"
)

func TestLoggingMiddleware(t *testing.T) {
	// Create a simple handler that echoes the body
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	})

	// Wrap with logging middleware
	wrappedHandler := loggingMiddleware(100)(handler)

	tests := []struct {
		name string
		path string
		body string
	}{
		{name: "JSON object", path: "/test", body: `{"key": "value"}`},
		{name: "JSON array", path: "/test", body: `[1, 2, 3]`},
		{name: "JSON with whitespace", path: "/test", body: `  {"key": "value"}`},
		{name: "Binary data", path: "/test", body: "\x00\x01\x02\x03\x04"},
		{name: "Plain text", path: "/test", body: "Hello, World!"},
		{name: "Empty body", path: "/test", body: ""},
		{name: "Identifier body", path: CommitmentsEndpoint, body: `{"identifier": "12345"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", tt.path, bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			wrappedHandler.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Errorf("Expected status %d, got %d", http.StatusOK, rec.Code)
			}
			// Check body was preserved
			respBody, _ := io.ReadAll(rec.Body)
			if string(respBody) != tt.body {
				t.Errorf("Body was modified: expected %q, got %q", tt.body, string(respBody))
			}
		})
	}
}

func TestLoggingMiddlewareExclusions(t *testing.T) {
	log.Init(log.LogLevelDebug, "stderr", nil)
	config := DefaultLoggingConfig()

	tests := []struct {
		path       string
		shouldSkip bool
	}{
		{path: PingEndpoint, shouldSkip: true},
		{path: InfoEndpoint, shouldSkip: true},
		{path: "/elections/default/votes", shouldSkip: false},
		{path: ElectionsEndpoint, shouldSkip: false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", tt.path, nil)
		if got := config.shouldSkipLogging(req); got != tt.shouldSkip {
			t.Errorf("%s: expected skip %v, got %v", tt.path, tt.shouldSkip, got)
		}
	}
}

func TestCarriesIdentifier(t *testing.T) {
	tests := map[string]bool{
		CommitmentsEndpoint:                 true,
		"/elections/default/proofs":         true,
		"/elections/default/voters":         true,
		"/elections/default/votes":          false,
		"/elections/default/voters/1/voted": false,
		ElectionsEndpoint:                   false,
	}
	for path, expected := range tests {
		if got := carriesIdentifier(path); got != expected {
			t.Errorf("%s: expected %v, got %v", path, expected, got)
		}
	}
}
