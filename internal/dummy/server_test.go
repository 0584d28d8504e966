package dummy

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func do(t *testing.T, srv *httptest.Server, method, path string, body []byte, hdr map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestObjectLifecycle(t *testing.T) {
	g := NewGateway(ServerConfig{RequireBucket: true})
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	payload := []byte("0123456789")

	if resp, _ := do(t, srv, http.MethodPut, "/b/k", payload, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("put before bucket: %d", resp.StatusCode)
	}
	for i := 0; i < 2; i++ {
		if resp, _ := do(t, srv, http.MethodPut, "/b", nil, nil); resp.StatusCode != http.StatusOK {
			t.Fatalf("create bucket: %d", resp.StatusCode)
		}
	}
	if resp, _ := do(t, srv, http.MethodPut, "/b/k", payload, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("put: %d", resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/b/k", nil, nil)
	if resp.StatusCode != http.StatusOK || !bytes.Equal(body, payload) {
		t.Fatalf("get: %d %q", resp.StatusCode, body)
	}

	resp, body = do(t, srv, http.MethodGet, "/b/k", nil, map[string]string{"Range": "bytes=0-3"})
	if resp.StatusCode != http.StatusPartialContent || string(body) != "0123" {
		t.Fatalf("range get: %d %q", resp.StatusCode, body)
	}
	if cr := resp.Header.Get("Content-Range"); cr != "bytes 0-3/10" {
		t.Fatalf("content-range %q", cr)
	}

	resp, _ = do(t, srv, http.MethodGet, "/b/k", nil, map[string]string{"Range": "bytes=20-30"})
	if resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("bad range: %d", resp.StatusCode)
	}

	if resp, _ := do(t, srv, http.MethodDelete, "/b/k", nil, nil); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: %d", resp.StatusCode)
	}
	if resp, _ := do(t, srv, http.MethodGet, "/b/k", nil, nil); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: %d", resp.StatusCode)
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		hdr         string
		n           int
		first, last int
		ok          bool
	}{
		{"bytes=0-3", 10, 0, 3, true},
		{"bytes=0-16383", 100, 0, 99, true},
		{"bytes=5-", 10, 5, 9, true},
		{"bytes=-4", 10, 6, 9, true},
		{"bytes=10-12", 10, 0, 0, false},
		{"bytes=4-2", 10, 0, 0, false},
		{"bytes=0-1,3-4", 10, 0, 0, false},
		{"items=0-1", 10, 0, 0, false},
	}
	for _, tt := range tests {
		first, last, ok := parseRange(tt.hdr, tt.n)
		if ok != tt.ok || (ok && (first != tt.first || last != tt.last)) {
			t.Errorf("parseRange(%q, %d) = %d, %d, %v", tt.hdr, tt.n, first, last, ok)
		}
	}
}

func TestErrorInjectionAndMetrics(t *testing.T) {
	g := NewGateway(ServerConfig{ErrorRate: 1})
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	if resp, _ := do(t, srv, http.MethodGet, "/b/k", nil, nil); resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("want injected 500, got %d", resp.StatusCode)
	}

	resp, body := do(t, srv, http.MethodGet, "/metrics", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics: %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), `dummy_gateway_requests_total{code="500",method="GET"} 1`) {
		t.Fatalf("metrics missing request counter:\n%s", body)
	}
}
