// Package dummy is a small in-memory object gateway for trying the load
// generator without a real deployment.
package dummy

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

type ServerConfig struct {
	Port int
	// Latency is added to every object request, plus up to Jitter on top.
	Latency time.Duration
	Jitter  time.Duration
	// ErrorRate is the share of object requests answered with 500.
	ErrorRate float64
	// RequireBucket rejects object puts into unknown buckets.
	RequireBucket bool
}

// Gateway keeps buckets and objects in memory.
type Gateway struct {
	cfg ServerConfig

	mu      sync.RWMutex
	buckets map[string]map[string][]byte

	rngMu sync.Mutex
	rng   *rand.Rand

	registry *prometheus.Registry
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	bytesOut prometheus.Counter
	bytesIn  prometheus.Counter
}

func NewGateway(cfg ServerConfig) *Gateway {
	g := &Gateway{
		cfg:      cfg,
		buckets:  map[string]map[string][]byte{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dummy_gateway_requests_total",
			Help: "Requests served, by method and status code.",
		}, []string{"method", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dummy_gateway_request_seconds",
			Help:    "Request handling time.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		bytesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dummy_gateway_bytes_sent_total",
			Help: "Object bytes returned to clients.",
		}),
		bytesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dummy_gateway_bytes_received_total",
			Help: "Object bytes stored by clients.",
		}),
	}
	g.registry.MustRegister(g.requests, g.latency, g.bytesOut, g.bytesIn)
	return g
}

// Handler serves the object API and /metrics.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/", g.serveObject)
	return mux
}

// Object returns a stored object, for tests.
func (g *Gateway) Object(bucket, key string) ([]byte, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	b, ok := g.buckets[bucket]
	if !ok {
		return nil, false
	}
	data, ok := b[key]
	return data, ok
}

// Len returns the number of objects in bucket.
func (g *Gateway) Len(bucket string) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.buckets[bucket])
}

func (g *Gateway) serveObject(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
	defer func() {
		g.requests.WithLabelValues(r.Method, strconv.Itoa(rec.code)).Inc()
		g.latency.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	}()

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		rec.WriteHeader(http.StatusOK)
		return
	}
	bucket, key, hasKey := strings.Cut(path, "/")

	if hasKey && key != "" {
		g.delay()
		if g.fail() {
			http.Error(rec, "injected failure", http.StatusInternalServerError)
			return
		}
	}

	switch {
	case !hasKey || key == "":
		g.serveBucket(rec, r, bucket)
	case r.Method == http.MethodPut:
		g.putObject(rec, r, bucket, key)
	case r.Method == http.MethodGet || r.Method == http.MethodHead:
		g.getObject(rec, r, bucket, key)
	case r.Method == http.MethodDelete:
		g.deleteObject(rec, bucket, key)
	default:
		rec.Header().Set("Allow", "GET, HEAD, PUT, DELETE")
		rec.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) serveBucket(w http.ResponseWriter, r *http.Request, bucket string) {
	switch r.Method {
	case http.MethodPut:
		g.mu.Lock()
		if _, ok := g.buckets[bucket]; !ok {
			g.buckets[bucket] = map[string][]byte{}
		}
		g.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	case http.MethodHead, http.MethodGet:
		g.mu.RLock()
		_, ok := g.buckets[bucket]
		g.mu.RUnlock()
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (g *Gateway) putObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	b, ok := g.buckets[bucket]
	if !ok {
		if g.cfg.RequireBucket {
			g.mu.Unlock()
			http.Error(w, "NoSuchBucket", http.StatusNotFound)
			return
		}
		b = map[string][]byte{}
		g.buckets[bucket] = b
	}
	b[key] = data
	g.mu.Unlock()

	g.bytesIn.Add(float64(len(data)))
	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) getObject(w http.ResponseWriter, r *http.Request, bucket, key string) {
	data, ok := g.Object(bucket, key)
	if !ok {
		http.Error(w, "NoSuchKey", http.StatusNotFound)
		return
	}

	status := http.StatusOK
	body := data
	if hdr := r.Header.Get("Range"); hdr != "" {
		first, last, ok := parseRange(hdr, len(data))
		if !ok {
			w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", len(data)))
			w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
			return
		}
		body = data[first : last+1]
		status = http.StatusPartialContent
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", first, last, len(data)))
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Accept-Ranges", "bytes")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	n, _ := w.Write(body)
	g.bytesOut.Add(float64(n))
}

func (g *Gateway) deleteObject(w http.ResponseWriter, bucket, key string) {
	g.mu.Lock()
	if b, ok := g.buckets[bucket]; ok {
		delete(b, key)
	}
	g.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (g *Gateway) delay() {
	d := g.cfg.Latency
	if g.cfg.Jitter > 0 {
		g.rngMu.Lock()
		d += time.Duration(g.rng.Int63n(int64(g.cfg.Jitter)))
		g.rngMu.Unlock()
	}
	if d > 0 {
		time.Sleep(d)
	}
}

func (g *Gateway) fail() bool {
	if g.cfg.ErrorRate <= 0 {
		return false
	}
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	return g.rng.Float64() < g.cfg.ErrorRate
}

// parseRange handles a single "bytes=" range against an object of size n and
// returns inclusive bounds.
func parseRange(hdr string, n int) (first, last int, ok bool) {
	hdr, found := strings.CutPrefix(hdr, "bytes=")
	if !found || strings.Contains(hdr, ",") {
		return 0, 0, false
	}
	a, b, found := strings.Cut(hdr, "-")
	if !found {
		return 0, 0, false
	}

	if a == "" {
		// suffix range: last b bytes
		k, err := strconv.Atoi(b)
		if err != nil || k <= 0 || n == 0 {
			return 0, 0, false
		}
		if k > n {
			k = n
		}
		return n - k, n - 1, true
	}

	first, err := strconv.Atoi(a)
	if err != nil || first < 0 || first >= n {
		return 0, 0, false
	}
	last = n - 1
	if b != "" {
		last, err = strconv.Atoi(b)
		if err != nil || last < first {
			return 0, 0, false
		}
		if last > n-1 {
			last = n - 1
		}
	}
	return first, last, true
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

// Start serves a fresh Gateway on cfg.Port in the background.
func Start(cfg ServerConfig) (*http.Server, *Gateway) {
	g := NewGateway(cfg)
	addr := fmt.Sprintf(":%d", cfg.Port)

	server := &http.Server{
		Addr:    addr,
		Handler: g.Handler(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("dummy gateway failed: %v", err)
		}
	}()
	log.Infof("dummy gateway listening on http://localhost%s", addr)
	return server, g
}
