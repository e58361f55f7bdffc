package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantOrigin string
		wantCode   int
	}{
		{name: "listed origin", allowed: []string{"https://ads.test"}, origin: "https://ads.test", method: http.MethodGet, wantOrigin: "https://ads.test", wantCode: http.StatusOK},
		{name: "unlisted origin", allowed: []string{"https://ads.test"}, origin: "https://evil.test", method: http.MethodGet, wantOrigin: "", wantCode: http.StatusOK},
		{name: "wildcard", allowed: []string{"*"}, origin: "https://any.test", method: http.MethodGet, wantOrigin: "*", wantCode: http.StatusOK},
		{name: "preflight", allowed: []string{"*"}, origin: "https://any.test", method: http.MethodOptions, wantOrigin: "*", wantCode: http.StatusNoContent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/prompts", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			CORS(tc.allowed)(next).ServeHTTP(rec, req)

			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("allow origin = %q, want %q", got, tc.wantOrigin)
			}
			if tc.wantOrigin != "" && rec.Header().Get("Access-Control-Allow-Headers") != corsAllowHeaders {
				t.Fatalf("allow headers = %q", rec.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get("X-Request-ID") != "abc-123" {
		t.Fatalf("propagated id = %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "bad id\n")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "" || seen == "bad id\n" {
		t.Fatalf("invalid id not replaced: %q", seen)
	}
}
