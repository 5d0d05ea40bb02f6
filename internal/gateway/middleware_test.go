package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func TestLoggingMiddleware_RecordsStatus(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	rr := serve(loggingMiddleware(inner, testLog()), httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})
	h := requestIDMiddleware(inner)

	rr := serve(h, httptest.NewRequest("GET", "/x", nil))
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, rr.Header().Get("X-Request-ID"), seen)

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "custom-id-123")
	rr = serve(h, req)
	assert.Equal(t, "custom-id-123", rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "custom-id-123", seen)
}

func TestCORSMiddleware(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    string
	}{
		{"wildcard", []string{"*"}, "http://localhost:3000", "http://localhost:3000"},
		{"listed", []string{"http://shop.example"}, "http://shop.example", "http://shop.example"},
		{"not listed", []string{"http://shop.example"}, "http://evil.example", ""},
		{"none configured", nil, "http://localhost:3000", ""},
		{"no origin header", []string{"*"}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/x", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := serve(corsMiddleware(okHandler, tt.allowed), req)
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	req := httptest.NewRequest("OPTIONS", "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := serve(corsMiddleware(okHandler, []string{"*"}), req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestRecoverMiddleware(t *testing.T) {
	boom := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	rr := serve(recoverMiddleware(boom, testLog()), httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestWithMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://test.example")
	rr := serve(withMiddleware(okHandler, testLog(), []string{"*"}), req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	assert.Equal(t, "http://test.example", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestIsOriginAllowed(t *testing.T) {
	assert.True(t, isOriginAllowed("http://a", []string{"*"}))
	assert.True(t, isOriginAllowed("http://a", []string{"http://b", "http://a"}))
	assert.False(t, isOriginAllowed("http://a", []string{"http://b"}))
	assert.False(t, isOriginAllowed("http://a", nil))
}
