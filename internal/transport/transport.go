// Package transport issues object-storage requests against the gateway under test.
//
// Every worker owns exactly one Conn for its lifetime. A Conn wraps a single
// persistent connection that is established by Dial, before any timed request,
// so connection setup never shows up in a latency sample.
package transport

//go:generate mockgen -source=transport.go -destination=conn_mock.go -package=transport

import (
	"context"
	"net/http"
	"time"
)

// Request is one gateway request. Path is relative to the endpoint base URL.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Response carries the status code and the fully received body.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Conn is a single persistent connection to the gateway.
type Conn interface {
	// Do sends req and blocks until the whole response body has arrived.
	Do(ctx context.Context, req Request) (Response, error)
	Close() error
}

// Dialer opens connections to the gateway.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// Options configures an HTTPDialer.
type Options struct {
	Endpoint       string
	Insecure       bool
	HTTP2          bool
	ConnectTimeout time.Duration
	// RequestTimeout bounds a single request. Zero means no limit.
	RequestTimeout time.Duration
	Signer         *Signer
}

// IsSuccess reports a 2xx status.
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

// IsReadSuccess reports whether a GET returned content, full or partial.
func IsReadSuccess(status int) bool {
	return status == http.StatusOK || status == http.StatusPartialContent
}
