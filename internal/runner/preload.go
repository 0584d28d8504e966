package runner

import (
	"bytes"
	"context"
	"crypto/rand"

	"gwbench/internal/transport"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ProgressFunc is told after every preloaded object.
type ProgressFunc func(done, total int)

// EnsureBucket creates the bucket. Both "created" and "already there" count
// as success.
func EnsureBucket(ctx context.Context, c transport.Conn, bucket string) error {
	if err := transport.CreateBucket(ctx, c, bucket); err != nil {
		return errors.Wrap(ErrBucketCreate, err.Error())
	}
	log.Infof("bucket %s ready", bucket)
	return nil
}

// Payload builds the content of object i: size random bytes, or size copies
// of byte(i % 256).
func Payload(i, size int, random bool) ([]byte, error) {
	if !random {
		return bytes.Repeat([]byte{byte(i % 256)}, size), nil
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return nil, errors.Wrap(err, "random payload")
	}
	return buf, nil
}

// Preload puts cfg.Objects objects in index order and returns their keys.
// The first failed put aborts the preload.
func Preload(ctx context.Context, c transport.Conn, cfg Config, progress ProgressFunc) ([]string, error) {
	keys := make([]string, 0, cfg.Objects)
	step := cfg.Objects / 20
	if step < 1 {
		step = 1
	}

	for i := 0; i < cfg.Objects; i++ {
		key := ObjectKey(i)
		payload, err := Payload(i, cfg.ObjectBytes, cfg.Random)
		if err != nil {
			return nil, errors.Wrap(ErrPreload, err.Error())
		}
		resp, err := transport.PutObject(ctx, c, cfg.Bucket, key, payload)
		if err != nil {
			return nil, errors.Wrapf(ErrPreload, "put %s: %v", key, err)
		}
		if !transport.IsSuccess(resp.Status) {
			return nil, errors.Wrapf(ErrPreload, "put %s: status %d", key, resp.Status)
		}
		keys = append(keys, key)

		if progress != nil {
			progress(i+1, cfg.Objects)
		}
		if (i+1)%step == 0 || i+1 == cfg.Objects {
			log.Infof("preload %d/%d", i+1, cfg.Objects)
		}
	}
	return keys, nil
}

// ExistingKeys returns the keys a previous preload would have written.
func ExistingKeys(objects int) []string {
	keys := make([]string, objects)
	for i := range keys {
		keys[i] = ObjectKey(i)
	}
	return keys
}
