package runner

import (
	"fmt"
	"time"

	"gwbench/internal/transport"

	"github.com/pkg/errors"
)

var (
	// ErrInvalidEndpoint means the endpoint is not an http:// or https:// URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrInvalidConfig covers every other rejected setting.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrBucketCreate means the gateway refused the bucket create.
	ErrBucketCreate = errors.New("bucket create failed")
	// ErrPreload means an object put failed during preload.
	ErrPreload = errors.New("preload failed")
)

// Config is fixed before the run and never mutated afterwards.
type Config struct {
	Endpoint     string
	Bucket       string
	CreateBucket bool
	Objects      int
	ObjectBytes  int
	RangeBytes   int
	Duration     time.Duration
	Threads      int
	WriteRatio   float64
	Random       bool
	Insecure     bool

	// Seed fixes each worker's RNG to Seed+workerID. Zero seeds from the clock.
	Seed int64
	// With probability HotsetTraffic a read picks among the first HotsetSize keys.
	HotsetSize    int
	HotsetTraffic float64
	SkipPreload   bool
	// RateLimit caps reads per second across all workers. Zero is unlimited.
	RateLimit float64
	// WaitReady bounds how long to probe the endpoint before setup.
	WaitReady time.Duration
	// RecordSamples keeps one stats.Sample per request for exports.
	RecordSamples bool
}

func DefaultConfig() Config {
	return Config{
		Bucket:        "prompt-cache",
		Objects:       100,
		ObjectBytes:   65536,
		RangeBytes:    16384,
		Duration:      30 * time.Second,
		Threads:       4,
		HotsetTraffic: 0.9,
	}
}

// Validate checks the configuration before any request is made.
func (c Config) Validate() error {
	if _, err := transport.ParseEndpoint(c.Endpoint); err != nil {
		return errors.Wrap(ErrInvalidEndpoint, err.Error())
	}
	switch {
	case c.Bucket == "":
		return errors.Wrap(ErrInvalidConfig, "bucket must not be empty")
	case c.Objects <= 0:
		return errors.Wrapf(ErrInvalidConfig, "objects must be positive, got %d", c.Objects)
	case c.ObjectBytes < 0:
		return errors.Wrapf(ErrInvalidConfig, "object-bytes must not be negative, got %d", c.ObjectBytes)
	case c.RangeBytes < 0:
		return errors.Wrapf(ErrInvalidConfig, "range-bytes must not be negative, got %d", c.RangeBytes)
	case c.Threads <= 0:
		return errors.Wrapf(ErrInvalidConfig, "threads must be positive, got %d", c.Threads)
	case c.HotsetSize < 0:
		return errors.Wrapf(ErrInvalidConfig, "hotset-size must not be negative, got %d", c.HotsetSize)
	case c.HotsetTraffic < 0 || c.HotsetTraffic > 1:
		return errors.Wrapf(ErrInvalidConfig, "hotset-traffic must be within [0,1], got %v", c.HotsetTraffic)
	case c.RateLimit < 0:
		return errors.Wrapf(ErrInvalidConfig, "rate-limit must not be negative, got %v", c.RateLimit)
	}
	return nil
}

// ObjectKey names the i-th preloaded object.
func ObjectKey(i int) string {
	return fmt.Sprintf("obj-%06d", i)
}

// WriteKey derives the key of the n-th write issued by worker id. The worker
// id keeps keys from different workers apart.
func WriteKey(readKey string, worker, n int) string {
	return fmt.Sprintf("%s-t%d-w%d", readKey, worker, n)
}
