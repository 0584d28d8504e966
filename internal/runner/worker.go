package runner

import (
	"context"
	"math/rand"
	"time"

	"gwbench/internal/stats"
	"gwbench/internal/transport"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// worker issues reads, and sometimes writes, on its own connection until the
// deadline. All bookkeeping stays in local until the single final merge.
type worker struct {
	id      int
	cfg     Config
	conn    transport.Conn
	keys    []string
	rng     *rand.Rand
	limiter *rate.Limiter
	live    *stats.Live

	local   stats.Result
	writes  int
	payload []byte
}

func newWorker(id int, cfg Config, conn transport.Conn, keys []string, live *stats.Live) *worker {
	seed := cfg.Seed + int64(id)
	if cfg.Seed == 0 {
		seed = time.Now().UnixNano() + int64(id)
	}
	w := &worker{
		id:   id,
		cfg:  cfg,
		conn: conn,
		keys: keys,
		rng:  rand.New(rand.NewSource(seed)),
		live: live,
	}
	if cfg.RateLimit > 0 {
		// each worker takes an even share so no limiter is shared
		w.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit/float64(cfg.Threads)), 1)
	}
	if cfg.WriteRatio > 0 {
		w.payload = make([]byte, cfg.ObjectBytes)
	}
	return w
}

// run loops until deadline, closes the connection and merges once into agg.
func (w *worker) run(ctx context.Context, deadline time.Time, agg *stats.Aggregator) {
	log.Debugf("worker %d started", w.id)

	limitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	for time.Now().Before(deadline) && ctx.Err() == nil {
		if w.limiter != nil {
			if err := w.limiter.Wait(limitCtx); err != nil {
				break
			}
		}
		key := w.pickKey()
		w.read(ctx, key)
		if w.cfg.WriteRatio > 0 && w.rng.Float64() < w.cfg.WriteRatio {
			w.write(ctx, key)
		}
	}

	if err := w.conn.Close(); err != nil {
		log.Debugf("worker %d close: %v", w.id, err)
	}
	agg.Merge(w.local)
	log.Debugf("worker %d done: %d reads, %d errors", w.id, w.local.Count, w.local.Errors)
}

func (w *worker) pickKey() string {
	if hot := w.cfg.HotsetSize; hot > 0 && w.rng.Float64() < w.cfg.HotsetTraffic {
		if hot > len(w.keys) {
			hot = len(w.keys)
		}
		return w.keys[w.rng.Intn(hot)]
	}
	return w.keys[w.rng.Intn(len(w.keys))]
}

func (w *worker) read(ctx context.Context, key string) {
	start := time.Now()
	resp, err := transport.GetObject(ctx, w.conn, w.cfg.Bucket, key, w.cfg.RangeBytes)
	elapsed := time.Since(start)

	ok := err == nil && transport.IsReadSuccess(resp.Status)
	n := 0
	if ok {
		n = len(resp.Body)
	}
	w.local.RecordRead(float64(elapsed)/float64(time.Millisecond), ok, n)
	w.live.AddRead(ok, n, elapsed)
	w.sample(stats.OpRead, key, start, elapsed, resp.Status, n, err)
}

func (w *worker) write(ctx context.Context, readKey string) {
	w.writes++
	key := WriteKey(readKey, w.id, w.writes)
	w.rng.Read(w.payload)

	start := time.Now()
	resp, err := transport.PutObject(ctx, w.conn, w.cfg.Bucket, key, w.payload)
	elapsed := time.Since(start)

	ok := err == nil && transport.IsSuccess(resp.Status)
	w.local.RecordWrite(ok)
	w.live.AddWrite(ok)
	w.sample(stats.OpWrite, key, start, elapsed, resp.Status, len(w.payload), err)
}

func (w *worker) sample(op stats.Op, key string, start time.Time, elapsed time.Duration, status, n int, err error) {
	if !w.cfg.RecordSamples {
		return
	}
	s := stats.Sample{
		Op:          op,
		Key:         key,
		Status:      status,
		LatencyMs:   float64(elapsed) / float64(time.Millisecond),
		Bytes:       n,
		Worker:      w.id,
		StartUnixMs: start.UnixMilli(),
	}
	if err != nil {
		s.Err = err.Error()
	}
	w.local.Samples = append(w.local.Samples, s)
}
