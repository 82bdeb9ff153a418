package nlxd

import (
	"net/http"
	"time"

	"github.com/go-openapi/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

const (
	defaultTimeout         = 60 * time.Second
	defaultMaxRetries      = 1
	defaultMaxResponseSize = 32 << 20
	defaultPollInterval    = 250 * time.Millisecond
	defaultMaxPollInterval = 5 * time.Second
	defaultWaitTimeout     = -1
	defaultUserAgent       = "nlxd-go/" + Version
)

// Client is the LXD API client.
//
// A Client is bound to a single [Endpoint] for its lifetime and is safe for
// concurrent use. Request execution writes no shared state; the only mutable
// state lives in the HTTP transport's connection pool.
type Client struct {
	endpoint   Endpoint
	version    APIVersion
	project    string
	httpClient *http.Client

	// Tunables set through options.
	timeout         time.Duration
	maxRetries      int
	userAgent       string
	maxResponseSize int64
	pollInterval    time.Duration
	maxPollInterval time.Duration
	waitTimeout     time.Duration
	logger          zerolog.Logger
	registerer      prometheus.Registerer
	getenv          func(string) string
	exists          func(string) bool

	consumer runtime.Consumer
	producer runtime.Producer
	metrics  *metrics
}

// NewClient creates a client from cfg.
//
// When cfg.Endpoint is zero the daemon socket is located once, here, using
// the process environment (see [Resolver.Resolve]). No connection is made
// until the first request.
//
//	client, err := nlxd.NewClient(nlxd.DefaultConfig(),
//	    nlxd.WithLogger(logger),
//	    nlxd.WithPollInterval(100*time.Millisecond, 2*time.Second),
//	)
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	c := &Client{
		timeout:         defaultTimeout,
		maxRetries:      defaultMaxRetries,
		userAgent:       defaultUserAgent,
		maxResponseSize: defaultMaxResponseSize,
		pollInterval:    defaultPollInterval,
		maxPollInterval: defaultMaxPollInterval,
		waitTimeout:     defaultWaitTimeout,
		logger:          zerolog.Nop(),
		consumer:        runtime.JSONConsumer(),
		producer:        runtime.JSONProducer(),
	}

	for _, opt := range opts {
		opt(c)
	}

	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	c.endpoint = NewResolver(c.getenv, c.exists).Resolve(cfg.Endpoint)
	c.version = cfg.Version
	c.project = cfg.Project
	c.httpClient = newHTTPClient(c.endpoint, cfg)

	if c.maxPollInterval < c.pollInterval {
		c.maxPollInterval = c.pollInterval
	}

	if c.registerer != nil {
		m, err := newMetrics(c.registerer)
		if err != nil {
			return nil, derive(ErrConfig, "registering metrics", err)
		}
		c.metrics = m
	}

	c.logger = c.logger.With().
		Str("component", "nlxd").
		Str("endpoint", c.endpoint.String()).
		Logger()

	c.logger.Debug().
		Str("project", c.project).
		Str("api_version", string(c.version)).
		Msg("client created")

	return c, nil
}

// Connect creates a client for the local daemon using [DefaultConfig].
func Connect(opts ...Option) (*Client, error) {
	return NewClient(DefaultConfig(), opts...)
}

// Endpoint returns the resolved endpoint.
func (c *Client) Endpoint() Endpoint { return c.endpoint }

// Project returns the target project.
func (c *Client) Project() string { return c.project }

// APIVersion returns the API version prefix requests use.
func (c *Client) APIVersion() APIVersion { return c.version }

// Close releases idle connections held by the transport.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// apiPath joins parts under the API version prefix.
func (c *Client) apiPath(parts ...string) string {
	p := "/" + string(c.version)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}
