package transport

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gwbench/internal/dummy"

	"github.com/pkg/errors"
)

func TestParseEndpoint(t *testing.T) {
	for _, ok := range []string{"http://localhost:9000", "https://gw.example.com/base/"} {
		if _, err := ParseEndpoint(ok); err != nil {
			t.Errorf("%s: %v", ok, err)
		}
	}
	for _, bad := range []string{"ftp://x", "localhost:9000", "http://", "s3://bucket"} {
		if _, err := ParseEndpoint(bad); !errors.Is(err, ErrUnsupportedScheme) {
			t.Errorf("%s: got %v", bad, err)
		}
	}
}

func TestObjectVerbsAgainstDummy(t *testing.T) {
	g := dummy.NewGateway(dummy.ServerConfig{RequireBucket: true})
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	d, err := NewHTTPDialer(Options{Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	c, err := d.Dial(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if err := CreateBucket(ctx, c, "bkt"); err != nil {
		t.Fatalf("create bucket: %v", err)
	}
	payload := bytes.Repeat([]byte{7}, 1000)
	resp, err := PutObject(ctx, c, "bkt", "obj-000000", payload)
	if err != nil || resp.Status != http.StatusOK {
		t.Fatalf("put: %v %d", err, resp.Status)
	}

	resp, err = GetObject(ctx, c, "bkt", "obj-000000", 100)
	if err != nil || resp.Status != http.StatusPartialContent || len(resp.Body) != 100 {
		t.Fatalf("ranged get: %v %d %d", err, resp.Status, len(resp.Body))
	}
	resp, err = GetObject(ctx, c, "bkt", "obj-000000", 0)
	if err != nil || resp.Status != http.StatusOK || !bytes.Equal(resp.Body, payload) {
		t.Fatalf("full get: %v %d", err, resp.Status)
	}

	resp, err = DeleteObject(ctx, c, "bkt", "obj-000000")
	if err != nil || resp.Status != http.StatusNoContent {
		t.Fatalf("delete: %v %d", err, resp.Status)
	}

	metrics, err := FetchMetrics(ctx, c)
	if err != nil || !strings.Contains(string(metrics), "dummy_gateway_requests_total") {
		t.Fatalf("metrics: %v", err)
	}
	if err := Probe(ctx, c); err != nil {
		t.Fatalf("probe: %v", err)
	}
}

func TestConnReusesOneConnection(t *testing.T) {
	var conns int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	srv.Config.ConnState = func(_ net.Conn, s http.ConnState) {
		if s == http.StateNew {
			atomic.AddInt32(&conns, 1)
		}
	}
	srv.Start()
	defer srv.Close()

	d, err := NewHTTPDialer(Options{Endpoint: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	c, err := d.Dial(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	for i := 0; i < 20; i++ {
		if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/x"}); err != nil {
			t.Fatal(err)
		}
	}
	if n := atomic.LoadInt32(&conns); n != 1 {
		t.Fatalf("server saw %d connections, want 1", n)
	}
}

func TestHTTP2OverTLS(t *testing.T) {
	var proto atomic.Value
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		proto.Store(r.Proto)
		w.WriteHeader(http.StatusOK)
	}))
	srv.EnableHTTP2 = true
	srv.StartTLS()
	defer srv.Close()

	d, err := NewHTTPDialer(Options{Endpoint: srv.URL, Insecure: true, HTTP2: true})
	if err != nil {
		t.Fatal(err)
	}
	c, err := d.Dial(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	resp, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"})
	if err != nil || resp.Status != http.StatusOK {
		t.Fatalf("%v %d", err, resp.Status)
	}
	if p, _ := proto.Load().(string); p != "HTTP/2.0" {
		t.Fatalf("proto %q, want HTTP/2.0", p)
	}
}

func TestRequestTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	d, _ := NewHTTPDialer(Options{Endpoint: srv.URL, RequestTimeout: 20 * time.Millisecond})
	c, err := d.Dial(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/"}); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestSignedRequestsCarryAuthorization(t *testing.T) {
	var auth, hash string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		hash = r.Header.Get("X-Amz-Content-Sha256")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d, _ := NewHTTPDialer(Options{Endpoint: srv.URL, Signer: NewSigner("AKID", "SECRET", "")})
	c, err := d.Dial(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if _, err := PutObject(context.Background(), c, "b", "k", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(auth, "AWS4-HMAC-SHA256 Credential=AKID/") || !strings.Contains(auth, "/us-east-1/s3/aws4_request") {
		t.Fatalf("authorization %q", auth)
	}
	// sha256("hello")
	if hash != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Fatalf("payload hash %q", hash)
	}
}

func TestDialRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	d, _ := NewHTTPDialer(Options{Endpoint: url, ConnectTimeout: 200 * time.Millisecond})
	if _, err := d.Dial(context.Background()); err == nil {
		t.Fatal("expected dial error")
	}
}
