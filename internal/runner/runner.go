package runner

import (
	"context"
	"sync"
	"time"

	"gwbench/internal/stats"
	"gwbench/internal/transport"

	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// StatsSnapshot is sent over the channel
type StatsSnapshot struct {
	Elapsed  time.Duration
	Duration time.Duration

	Reads  uint64
	Errors uint64
	Bytes  uint64
	Writes uint64

	QPS  float64
	MBps float64

	// Pre-calculated percentiles for the UI (cheap copy)
	P50Ms float64
	P90Ms float64
	P99Ms float64
	MaxMs float64
}

// Progress returns the elapsed share of the run in [0,1].
func (s StatsSnapshot) Progress() float64 {
	if s.Duration <= 0 {
		return 1
	}
	p := float64(s.Elapsed) / float64(s.Duration)
	if p > 1 {
		return 1
	}
	return p
}

// StatsUpdateChan is the channel type
type StatsUpdateChan chan StatsSnapshot

type Runner struct {
	Cfg    Config
	Dialer transport.Dialer

	// Progress, if set, follows the preload.
	Progress ProgressFunc

	// Event Channel
	Updates StatsUpdateChan

	mu    sync.Mutex
	lives []*stats.Live
	start time.Time
}

func NewRunner(cfg Config, dialer transport.Dialer, updates StatsUpdateChan) *Runner {
	if updates == nil {
		// Avoid nil panics if not provided
		updates = make(StatsUpdateChan, 10)
	}
	return &Runner{
		Cfg:     cfg,
		Dialer:  dialer,
		Updates: updates,
	}
}

// Run prepares the object population and then drives the timed load.
func (r *Runner) Run(ctx context.Context) (stats.Result, error) {
	keys, err := r.Setup(ctx)
	if err != nil {
		return stats.Result{}, err
	}
	return r.Load(ctx, keys)
}

// Setup waits for the endpoint if asked to, creates the bucket and preloads
// the objects on one connection. It returns the read pool.
func (r *Runner) Setup(ctx context.Context) ([]string, error) {
	if r.Cfg.WaitReady > 0 {
		if err := r.waitReady(ctx); err != nil {
			return nil, err
		}
	}

	if r.Cfg.SkipPreload && !r.Cfg.CreateBucket {
		return ExistingKeys(r.Cfg.Objects), nil
	}

	conn, err := r.Dialer.Dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "setup connection")
	}
	defer conn.Close()

	if r.Cfg.CreateBucket {
		if err := EnsureBucket(ctx, conn, r.Cfg.Bucket); err != nil {
			return nil, err
		}
	}
	if r.Cfg.SkipPreload {
		return ExistingKeys(r.Cfg.Objects), nil
	}
	return Preload(ctx, conn, r.Cfg, r.Progress)
}

func (r *Runner) waitReady(ctx context.Context) error {
	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = r.Cfg.WaitReady
	attempt := 0
	op := func() error {
		attempt++
		conn, err := r.Dialer.Dial(ctx)
		if err != nil {
			log.Infof("endpoint not ready (attempt %d): %v", attempt, err)
			return err
		}
		defer conn.Close()
		if err := transport.Probe(ctx, conn); err != nil {
			log.Infof("endpoint not ready (attempt %d): %v", attempt, err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return errors.Wrapf(err, "endpoint not ready after %s", r.Cfg.WaitReady)
	}
	return nil
}

// Load dials one connection per worker, then runs all workers until the
// deadline and returns the merged result. It returns only after every
// worker has merged.
func (r *Runner) Load(ctx context.Context, keys []string) (stats.Result, error) {
	if len(keys) == 0 {
		return stats.Result{}, errors.Wrap(ErrInvalidConfig, "empty object pool")
	}

	conns := make([]transport.Conn, 0, r.Cfg.Threads)
	for i := 0; i < r.Cfg.Threads; i++ {
		c, err := r.Dialer.Dial(ctx)
		if err != nil {
			for _, open := range conns {
				open.Close()
			}
			return stats.Result{}, errors.Wrapf(err, "connect worker %d", i)
		}
		conns = append(conns, c)
	}

	lives := make([]*stats.Live, r.Cfg.Threads)
	for i := range lives {
		lives[i] = stats.NewLive()
	}

	agg := stats.NewAggregator()
	start := time.Now()
	deadline := start.Add(r.Cfg.Duration)

	r.mu.Lock()
	r.lives = lives
	r.start = start
	r.mu.Unlock()

	tickCtx, stopTicks := context.WithCancel(ctx)
	r.StartTickLoop(tickCtx, 200*time.Millisecond)

	var wg sync.WaitGroup
	for i, c := range conns {
		w := newWorker(i, r.Cfg, c, keys, lives[i])
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run(ctx, deadline, agg)
		}()
	}
	wg.Wait()

	stopTicks()
	r.sendUpdate()
	log.Infof("load finished after %s", time.Since(start).Round(time.Millisecond))
	return agg.Result(), nil
}

// StartTickLoop starts a goroutine that pushes stats updates
func (r *Runner) StartTickLoop(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sendUpdate()
			}
		}
	}()
}

// Snapshot reads every worker's live counters. Before Load starts it is zero.
func (r *Runner) Snapshot() StatsSnapshot {
	r.mu.Lock()
	lives, start := r.lives, r.start
	r.mu.Unlock()

	s := StatsSnapshot{Duration: r.Cfg.Duration}
	if lives == nil {
		return s
	}
	t := stats.SumLive(lives)
	s.Elapsed = time.Since(start)
	s.Reads, s.Errors, s.Bytes, s.Writes = t.Reads, t.Errors, t.Bytes, t.Writes
	if sec := s.Elapsed.Seconds(); sec > 0 {
		s.QPS = float64(t.Reads) / sec
		s.MBps = float64(t.Bytes) / (1024 * 1024) / sec
	}
	s.P50Ms = t.Latency.QuantileMs(50)
	s.P90Ms = t.Latency.QuantileMs(90)
	s.P99Ms = t.Latency.QuantileMs(99)
	s.MaxMs = t.Latency.MaxMs()
	return s
}

func (r *Runner) sendUpdate() {
	s := r.Snapshot()

	// Non-blocking send
	select {
	case r.Updates <- s:
	default:
		// Drop update if channel full, UI acts as backpressure
	}
}
