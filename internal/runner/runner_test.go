package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"gwbench/internal/dummy"
	"gwbench/internal/stats"
	"gwbench/internal/transport"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
)

// slowConn answers every request with 200 and a fixed body after a delay.
type slowConn struct {
	delay  time.Duration
	body   []byte
	closed int32
}

func (c *slowConn) Do(ctx context.Context, req transport.Request) (transport.Response, error) {
	time.Sleep(c.delay)
	return transport.Response{Status: http.StatusOK, Body: c.body}, nil
}

func (c *slowConn) Close() error {
	atomic.AddInt32(&c.closed, 1)
	return nil
}

type connDialer struct {
	mu    sync.Mutex
	conns []*slowConn
	delay time.Duration
}

func (d *connDialer) Dial(context.Context) (transport.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &slowConn{delay: d.delay, body: make([]byte, 100)}
	d.conns = append(d.conns, c)
	return c, nil
}

func TestLoadAgainstSlowConn(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoint = "http://unused"
	cfg.Objects = 1
	cfg.Threads = 1
	cfg.Duration = time.Second
	cfg.SkipPreload = true

	d := &connDialer{delay: 10 * time.Millisecond}
	r := NewRunner(cfg, d, nil)
	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if res.Count < 70 || res.Count > 101 {
		t.Errorf("requests %d, want about 100", res.Count)
	}
	if res.Errors != 0 {
		t.Errorf("errors %d", res.Errors)
	}
	if res.BytesRead != res.Count*100 {
		t.Errorf("bytes %d for %d requests", res.BytesRead, res.Count)
	}

	s := stats.Summarize(res, cfg.Duration)
	if s.P50 < 10 || s.P50 > 15 {
		t.Errorf("p50 %.2fms, want about 10", s.P50)
	}
	if len(d.conns) != 1 || atomic.LoadInt32(&d.conns[0].closed) != 1 {
		t.Errorf("want exactly one connection, closed once")
	}
}

func TestLoadOneConnectionPerWorker(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Endpoint = "http://unused"
	cfg.Threads = 8
	cfg.Duration = 100 * time.Millisecond
	cfg.SkipPreload = true

	d := &connDialer{delay: time.Millisecond}
	r := NewRunner(cfg, d, nil)
	res, err := r.Load(context.Background(), ExistingKeys(cfg.Objects))
	if err != nil {
		t.Fatal(err)
	}
	if len(d.conns) != 8 {
		t.Fatalf("dialed %d connections, want 8", len(d.conns))
	}
	for i, c := range d.conns {
		if atomic.LoadInt32(&c.closed) != 1 {
			t.Errorf("connection %d closed %d times", i, c.closed)
		}
	}
	if int64(len(res.Latencies)) != res.Count {
		t.Errorf("latencies %d, count %d", len(res.Latencies), res.Count)
	}

	snap := r.Snapshot()
	if int64(snap.Reads) != res.Count {
		t.Errorf("snapshot reads %d, result count %d", snap.Reads, res.Count)
	}
}

func TestLoadDialFailureIsFatal(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	conn := transport.NewMockConn(mockCtrl)
	conn.EXPECT().Close().Return(nil)
	dialer := transport.NewMockDialer(mockCtrl)
	gomock.InOrder(
		dialer.EXPECT().Dial(gomock.Any()).Return(conn, nil),
		dialer.EXPECT().Dial(gomock.Any()).Return(nil, errors.New("connection refused")),
	)

	cfg := DefaultConfig()
	cfg.Threads = 2
	r := NewRunner(cfg, dialer, nil)
	if _, err := r.Load(context.Background(), ExistingKeys(1)); err == nil {
		t.Fatal("expected error")
	}
}

func TestSetupBucketFailure(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	defer mockCtrl.Finish()

	conn := transport.NewMockConn(mockCtrl)
	conn.EXPECT().Do(gomock.Any(), gomock.Any()).Return(transport.Response{Status: http.StatusForbidden}, nil)
	conn.EXPECT().Close().Return(nil)
	dialer := transport.NewMockDialer(mockCtrl)
	dialer.EXPECT().Dial(gomock.Any()).Return(conn, nil)

	cfg := DefaultConfig()
	cfg.CreateBucket = true
	_, err := NewRunner(cfg, dialer, nil).Run(context.Background())
	if !errors.Is(err, ErrBucketCreate) {
		t.Fatalf("got %v, want ErrBucketCreate", err)
	}
}

func TestRunAgainstDummyGateway(t *testing.T) {
	g := dummy.NewGateway(dummy.ServerConfig{RequireBucket: true})
	srv := httptest.NewServer(g.Handler())
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Endpoint = srv.URL
	cfg.CreateBucket = true
	cfg.Objects = 10
	cfg.ObjectBytes = 4096
	cfg.RangeBytes = 1024
	cfg.Threads = 3
	cfg.Duration = 300 * time.Millisecond
	cfg.WriteRatio = 0.5
	cfg.RecordSamples = true
	cfg.WaitReady = time.Second

	d, err := transport.NewHTTPDialer(transport.Options{Endpoint: cfg.Endpoint})
	if err != nil {
		t.Fatal(err)
	}
	updates := make(StatsUpdateChan, 100)
	r := NewRunner(cfg, d, updates)

	res, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.Count == 0 || res.Errors != 0 {
		t.Fatalf("count=%d errors=%d", res.Count, res.Errors)
	}
	if res.BytesRead != res.Count*1024 {
		t.Fatalf("ranged reads returned %d bytes for %d requests", res.BytesRead, res.Count)
	}
	if res.Writes == 0 {
		t.Fatalf("expected some writes with write ratio 0.5")
	}
	if got := g.Len(cfg.Bucket); got != cfg.Objects+int(res.Writes) {
		t.Fatalf("gateway holds %d objects, want %d", got, cfg.Objects+int(res.Writes))
	}
	if int64(len(res.Samples)) != res.Count+res.Writes {
		t.Fatalf("samples %d", len(res.Samples))
	}

	select {
	case s := <-updates:
		if s.Duration != cfg.Duration {
			t.Fatalf("snapshot duration %v", s.Duration)
		}
	default:
		t.Fatal("no stats update was sent")
	}
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threads = 2
	cfg.Duration = 500 * time.Millisecond
	cfg.RateLimit = 40

	d := &connDialer{}
	res, err := NewRunner(cfg, d, nil).Load(context.Background(), ExistingKeys(1))
	if err != nil {
		t.Fatal(err)
	}
	// 20 reads/s per worker for half a second, plus the initial burst
	if res.Count > 30 {
		t.Fatalf("rate limit not applied: %d reads", res.Count)
	}
}
