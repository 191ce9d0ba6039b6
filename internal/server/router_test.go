package server

import (
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docchat-gateway/internal/bridge"
	"docchat-gateway/internal/metrics"

	json "github.com/goccy/go-json"
)

func TestRouterAssignsRequestID(t *testing.T) {
	h, _ := newTestHandler(&forwarderStub{res: bridge.Result{StatusCode: http.StatusOK, Payload: json.RawMessage(`{}`)}}, &storeStub{})
	router := NewRouter(h, metrics.NewHTTPCollector("test"))

	req := httptest.NewRequest(http.MethodPost, "/refresh", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatalf("expected generated request id")
	}

	req = httptest.NewRequest(http.MethodPost, "/refresh", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Fatalf("expected incoming request id to be kept, got %q", got)
	}
}

func TestRouterHealthAndMetrics(t *testing.T) {
	h, _ := newTestHandler(&forwarderStub{}, &storeStub{})
	router := NewRouter(h, metrics.NewHTTPCollector("test"))

	// 405 한 번 → 카운터와 Prometheus 양쪽에 기록되어야 한다
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chatbot", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rr.Body.String(), "http_requests_rejected_method_total=1") {
		t.Fatalf("unexpected metrics body %q", rr.Body.String())
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics/prometheus", nil))
	body := rr.Body.String()
	if !strings.Contains(body, "test_gateway_http_requests_total") ||
		!strings.Contains(body, `route="chatbot"`) ||
		!strings.Contains(body, `status="405"`) {
		t.Fatalf("unexpected prometheus output:\n%s", body)
	}
}

func TestRouterCompressesLargeResponses(t *testing.T) {
	big := `{"answer":"` + strings.Repeat("lorem ipsum ", 1000) + `"}`
	h, _ := newTestHandler(&forwarderStub{res: bridge.Result{StatusCode: http.StatusOK, Payload: json.RawMessage(big)}}, &storeStub{})
	router := NewRouter(h, metrics.NewHTTPCollector("test"))

	req := httptest.NewRequest(http.MethodPost, "/chatbot", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Accept-Encoding", "gzip")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip response, headers: %v", rr.Header())
	}
	zr, err := gzip.NewReader(rr.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	data, err := io.ReadAll(zr)
	if err != nil {
		t.Fatalf("read gzip body: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := out["processing_time_seconds"]; !ok {
		t.Fatalf("processing_time_seconds missing")
	}
}

func TestClientIP(t *testing.T) {
	cases := []struct {
		name   string
		xff    string
		azure  string
		remote string
		want   string
	}{
		{"first public xff", "10.0.0.1, 203.0.113.7", "", "10.0.0.2:1234", "203.0.113.7"},
		{"azure header", "", "198.51.100.4", "10.0.0.2:1234", "198.51.100.4"},
		{"private remote fallback", "", "", "10.0.0.2:1234", "10.0.0.2"},
		{"azure header wins over xff", "203.0.113.7", "198.51.100.4", "10.0.0.2:1234", "198.51.100.4"},
		{"private azure header falls through to xff", "203.0.113.7", "10.1.1.1", "127.0.0.1:80", "203.0.113.7"},
		{"public remote ignores headers", "203.0.113.7", "198.51.100.4", "192.0.2.10:5555", "192.0.2.10"},
		{"only private headers", "10.0.0.1, 172.16.0.1", "", "10.0.0.2:1234", "10.0.0.2"},
		{"garbage", "nope", "", "nope", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tc.remote
			if tc.xff != "" {
				req.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.azure != "" {
				req.Header.Set("X-Azure-ClientIP", tc.azure)
			}
			if got := clientIP(req); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}
