package nlxd

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/go-openapi/runtime"
)

// rawResponse is a fully read reply, before envelope decoding.
type rawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// newHTTPClient builds the transport for ep. The dial function is chosen
// once here and never changes for the client's lifetime.
func newHTTPClient(ep Endpoint, cfg ClientConfig) *http.Client {
	dialer := &net.Dialer{
		Timeout:   cfg.Timeouts.Connection,
		KeepAlive: 30 * time.Second,
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: cfg.Timeouts.Server,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		DisableCompression:    true,
	}

	if ep.IsSocket() {
		socketPath := ep.SocketPath()
		tr.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socketPath)
		}
	} else {
		tr.DialContext = dialer.DialContext
		tr.TLSHandshakeTimeout = cfg.Timeouts.Connection
		if ep.Scheme() == "https" {
			tr.TLSClientConfig = &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: cfg.InsecureSkipVerify, //nolint:gosec // explicit opt-in
			}
		}
	}

	return &http.Client{Transport: tr}
}

// countingReader records how many body bytes the transport consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.n += int64(n)
	return n, err
}

// encodeBody serializes a request body once so every attempt sends the
// same bytes.
func (c *Client) encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := c.producer.Produce(&buf, body); err != nil {
		return nil, derive(ErrInvalidRequest, "failed to encode request body", err)
	}
	return buf.Bytes(), nil
}

// newRequest builds the HTTP request for path on the client's endpoint.
//
// path must start with "/" and may carry a query string. The project
// parameter is added for non-default projects.
func (c *Client) newRequest(ctx context.Context, method, path string, payload []byte) (*http.Request, *countingReader, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, nil, derive(ErrInvalidRequest, fmt.Sprintf("path %q must begin with /", path), nil)
	}

	ref, err := url.Parse(path)
	if err != nil {
		return nil, nil, derive(ErrInvalidRequest, fmt.Sprintf("invalid path %q", path), err)
	}

	query := ref.Query()
	if c.project != DefaultProject && query.Get("project") == "" {
		query.Set("project", c.project)
	}

	u := url.URL{
		Scheme:   c.endpoint.Scheme(),
		Host:     c.endpoint.Host(),
		Path:     ref.Path,
		RawPath:  ref.RawPath,
		RawQuery: query.Encode(),
	}

	var body io.Reader = http.NoBody
	var counter *countingReader
	if payload != nil {
		counter = &countingReader{r: bytes.NewReader(payload)}
		body = counter
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, nil, derive(ErrInvalidRequest, "failed to create request", err)
	}
	if payload != nil {
		req.ContentLength = int64(len(payload))
		req.Header.Set(runtime.HeaderContentType, runtime.JSONMime)
	} else {
		counter = &countingReader{}
	}
	req.Header.Set(runtime.HeaderAccept, runtime.JSONMime)
	req.Header.Set("User-Agent", c.userAgent)

	return req, counter, nil
}

// execute sends one request and reads the whole reply.
//
// A request whose connection is reset before any body byte was written is
// re-sent: idempotent methods up to the configured retry count, other
// methods at most once.
func (c *Client) execute(ctx context.Context, method, path string, body any) (*rawResponse, error) {
	payload, err := c.encodeBody(body)
	if err != nil {
		return nil, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	retries := c.retryBudget(method)
	transport := c.endpoint.Kind().String()

	for attempt := 0; ; attempt++ {
		req, counter, err := c.newRequest(ctx, method, path, payload)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if attempt < retries && isConnReset(err) && counter.n == 0 && ctx.Err() == nil {
				c.logger.Debug().
					Str("method", method).
					Str("path", path).
					Int("attempt", attempt+1).
					Err(err).
					Msg("connection reset, retrying")
				continue
			}
			c.metrics.observeRequest(method, transport, "error", time.Since(start))
			return nil, c.transportError(ctx, err)
		}

		data, err := c.readBody(resp)
		c.metrics.observeRequest(method, transport, outcomeOf(err), time.Since(start))
		if err != nil {
			return nil, err
		}

		c.logger.Debug().
			Str("method", method).
			Str("path", path).
			Str("transport", transport).
			Int("http_status", resp.StatusCode).
			Dur("elapsed", time.Since(start)).
			Msg("request completed")

		return &rawResponse{
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       data,
		}, nil
	}
}

func (c *Client) retryBudget(method string) int {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return c.maxRetries
	default:
		return min(c.maxRetries, 1)
	}
}

// readBody drains and closes the body, enforcing the size ceiling.
func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	if c.maxResponseSize <= 0 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, derive(ErrUnreachable, "failed to read response", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize+1))
	if err != nil {
		return nil, derive(ErrUnreachable, "failed to read response", err)
	}
	if int64(len(data)) > c.maxResponseSize {
		return nil, derive(ErrOversized, fmt.Sprintf("response exceeds %d bytes", c.maxResponseSize), nil)
	}
	return data, nil
}

// transportError classifies a failed round trip.
func (c *Client) transportError(ctx context.Context, err error) *Error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return derive(ErrTimeout, "request deadline exceeded", err)
		}
		return derive(ErrUnreachable, "request canceled", err)
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return derive(ErrUnreachable, fmt.Sprintf("cannot connect to %s", c.endpoint), err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return derive(ErrTimeout, "timed out waiting for the daemon", err)
	}

	return derive(ErrUnreachable, fmt.Sprintf("request to %s failed", c.endpoint), err)
}

func isConnReset(err error) bool {
	return errors.Is(err, syscall.ECONNRESET)
}

func outcomeOf(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
