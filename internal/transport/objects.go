package transport

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// BucketPath is the path of a bucket relative to the endpoint.
func BucketPath(bucket string) string {
	return "/" + bucket
}

// ObjectPath is the path of an object relative to the endpoint.
func ObjectPath(bucket, key string) string {
	return "/" + bucket + "/" + key
}

// RangeHeader requests the first n bytes of an object.
func RangeHeader(n int) string {
	return fmt.Sprintf("bytes=0-%d", n-1)
}

// CreateBucket issues PUT /{bucket}. The gateway answers 200 on creation and
// 204 when the bucket already exists; anything else is an error.
func CreateBucket(ctx context.Context, c Conn, bucket string) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodPut, Path: BucketPath(bucket)})
	if err != nil {
		return err
	}
	if resp.Status != http.StatusOK && resp.Status != http.StatusNoContent {
		return errors.Errorf("create bucket %s: status %d", bucket, resp.Status)
	}
	return nil
}

// PutObject issues PUT /{bucket}/{key}.
func PutObject(ctx context.Context, c Conn, bucket, key string, payload []byte) (Response, error) {
	h := http.Header{}
	h.Set("Content-Type", "application/octet-stream")
	return c.Do(ctx, Request{
		Method: http.MethodPut,
		Path:   ObjectPath(bucket, key),
		Header: h,
		Body:   payload,
	})
}

// GetObject issues GET /{bucket}/{key}. A positive rangeBytes asks for
// bytes [0, rangeBytes-1] only.
func GetObject(ctx context.Context, c Conn, bucket, key string, rangeBytes int) (Response, error) {
	var h http.Header
	if rangeBytes > 0 {
		h = http.Header{}
		h.Set("Range", RangeHeader(rangeBytes))
	}
	return c.Do(ctx, Request{
		Method: http.MethodGet,
		Path:   ObjectPath(bucket, key),
		Header: h,
	})
}

// DeleteObject issues DELETE /{bucket}/{key}.
func DeleteObject(ctx context.Context, c Conn, bucket, key string) (Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: ObjectPath(bucket, key)})
}

// FetchMetrics reads the gateway's /metrics page.
func FetchMetrics(ctx context.Context, c Conn) ([]byte, error) {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/metrics"})
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, errors.Errorf("HTTP %d", resp.Status)
	}
	return resp.Body, nil
}

// Probe succeeds as soon as the gateway answers anything below 500.
func Probe(ctx context.Context, c Conn) error {
	resp, err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/"})
	if err != nil {
		return err
	}
	if resp.Status >= http.StatusInternalServerError {
		return errors.Errorf("gateway not ready: status %d", resp.Status)
	}
	return nil
}
