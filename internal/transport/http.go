package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/http2"
)

// ErrUnsupportedScheme is returned for endpoints that are neither http nor https.
var ErrUnsupportedScheme = errors.New("endpoint must be http:// or https://")

const defaultConnectTimeout = 5 * time.Second

// HTTPDialer dials one HTTP/1.1 or HTTP/2 connection per Dial call.
type HTTPDialer struct {
	opts      Options
	base      *url.URL
	addr      string
	tlsConfig *tls.Config
}

// ParseEndpoint parses a base URL and checks its scheme.
func ParseEndpoint(endpoint string) (*url.URL, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "parse %q: %v", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "got %q", endpoint)
	}
	if u.Host == "" {
		return nil, errors.Wrapf(ErrUnsupportedScheme, "missing host in %q", endpoint)
	}
	return u, nil
}

func NewHTTPDialer(opts Options) (*HTTPDialer, error) {
	u, err := ParseEndpoint(opts.Endpoint)
	if err != nil {
		return nil, err
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	port := u.Port()
	if port == "" {
		port = "80"
		if u.Scheme == "https" {
			port = "443"
		}
	}

	d := &HTTPDialer{
		opts: opts,
		base: u,
		addr: net.JoinHostPort(u.Hostname(), port),
	}
	if u.Scheme == "https" {
		proto := "http/1.1"
		if opts.HTTP2 {
			proto = http2.NextProtoTLS
		}
		d.tlsConfig = &tls.Config{
			ServerName:         u.Hostname(),
			InsecureSkipVerify: opts.Insecure,
			NextProtos:         []string{proto},
		}
	}
	return d, nil
}

// Dial establishes the connection eagerly (TCP and, for https, the TLS
// handshake) and returns a Conn that reuses it for every request.
func (d *HTTPDialer) Dial(ctx context.Context) (Conn, error) {
	raw, err := d.dialRaw(ctx)
	if err != nil {
		return nil, err
	}

	c := &httpConn{
		base:    d.base,
		signer:  d.opts.Signer,
		timeout: d.opts.RequestTimeout,
	}

	if d.opts.HTTP2 {
		t2 := &http2.Transport{
			AllowHTTP:       true,
			TLSClientConfig: d.tlsConfig,
		}
		cc, err := t2.NewClientConn(raw)
		if err != nil {
			raw.Close()
			return nil, errors.Wrap(err, "http2 client connection")
		}
		c.client = &http.Client{Transport: cc}
		c.closer = cc.Close
		return c, nil
	}

	pd := &preDialed{conn: raw}
	t := &http.Transport{
		MaxIdleConns:          1,
		MaxIdleConnsPerHost:   1,
		MaxConnsPerHost:       1,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 0,
		DisableCompression:    true,
		TLSClientConfig:       d.tlsConfig,
	}
	if d.tlsConfig != nil {
		t.DialTLSContext = pd.dialFunc(d.dialRaw)
	} else {
		t.DialContext = pd.dialFunc(d.dialRaw)
	}
	c.client = &http.Client{Transport: t}
	c.closer = func() error {
		t.CloseIdleConnections()
		return pd.close()
	}
	return c, nil
}

func (d *HTTPDialer) dialRaw(ctx context.Context) (net.Conn, error) {
	nd := &net.Dialer{
		Timeout:   d.opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	conn, err := nd.DialContext(ctx, "tcp", d.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", d.addr)
	}
	if d.tlsConfig == nil {
		return conn, nil
	}

	hsCtx, cancel := context.WithTimeout(ctx, d.opts.ConnectTimeout)
	defer cancel()
	tc := tls.Client(conn, d.tlsConfig.Clone())
	if err := tc.HandshakeContext(hsCtx); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "tls handshake with %s", d.addr)
	}
	return tc, nil
}

// preDialed hands the eagerly dialed connection to the transport on its first
// dial. Later dials (after the server closed the connection) go to redial.
type preDialed struct {
	mu   sync.Mutex
	conn net.Conn
}

func (p *preDialed) take() net.Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := p.conn
	p.conn = nil
	return c
}

func (p *preDialed) dialFunc(redial func(context.Context) (net.Conn, error)) func(context.Context, string, string) (net.Conn, error) {
	return func(ctx context.Context, _, _ string) (net.Conn, error) {
		if c := p.take(); c != nil {
			return c, nil
		}
		return redial(ctx)
	}
}

func (p *preDialed) close() error {
	if c := p.take(); c != nil {
		return c.Close()
	}
	return nil
}

type httpConn struct {
	base    *url.URL
	client  *http.Client
	signer  *Signer
	timeout time.Duration
	closer  func() error
}

func (c *httpConn) Do(ctx context.Context, req Request) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + req.Path
	u.RawPath = ""

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hr, err := http.NewRequestWithContext(ctx, req.Method, u.String(), body)
	if err != nil {
		return Response{}, errors.Wrapf(err, "build %s %s", req.Method, req.Path)
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hr.Header.Add(k, v)
		}
	}
	if c.signer != nil {
		if err := c.signer.Sign(ctx, hr, req.Body); err != nil {
			return Response{}, errors.Wrapf(err, "sign %s %s", req.Method, req.Path)
		}
	}

	resp, err := c.client.Do(hr)
	if err != nil {
		return Response{}, errors.Wrapf(err, "%s %s", req.Method, req.Path)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{Status: resp.StatusCode, Header: resp.Header}, errors.Wrapf(err, "read body of %s %s", req.Method, req.Path)
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *httpConn) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}
