package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/easyhttp/client/async"
	"github.com/adamwoolhether/easyhttp/client/callback"
	"github.com/adamwoolhether/easyhttp/client/config"
	"github.com/adamwoolhether/easyhttp/client/throttle"
	"github.com/adamwoolhether/easyhttp/client/transport"
)

// Client issues blocking and async requests through a shared transport.
// It sets a default *http.Client and *http.Transport, which can be
// customized via optional funcs.
type Client struct {
	factory transport.Factory
	host    callback.Host
	group   *async.Group
	logger  *slog.Logger
	tracer  trace.Tracer

	maxBodySize int64
	maxHeaders  int
}

func Build(optFns ...Option) (*Client, error) {
	client := &Client{
		host:   callback.NewRegistry(),
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("no-op tracer"),
	}

	var opts options
	for _, opt := range optFns {
		if err := opt(&opts); err != nil {
			return nil, fmt.Errorf("applying client option: %w", err)
		}
	}

	if opts.logger != nil {
		client.logger = opts.logger
	}
	if opts.tracer != nil {
		client.tracer = opts.tracer
	}
	if opts.host != nil {
		client.host = opts.host
	}
	client.maxBodySize = opts.maxBodySize
	client.maxHeaders = opts.maxHeaders

	factory := opts.factory
	if factory == nil {
		factory = transport.NewHTTP(httpClient(opts)).WithChunkSize(opts.chunkSize)
	}
	if opts.throttle != nil {
		f, err := throttle.NewFactory(opts.throttle.RPS, opts.throttle.Burst, func() *slog.Logger { return client.logger }, factory)
		if err != nil {
			return nil, fmt.Errorf("configuring throttle: %w", err)
		}
		factory = f
	}
	client.factory = factory
	client.group = async.NewGroup(opts.maxInFlight)

	return client, nil
}

// httpClient copies the configured *http.Client, or a zero one, and
// installs the round tripper chain on it.
func httpClient(opts options) *http.Client {
	var hc http.Client
	if opts.client != nil {
		hc = *opts.client
	}

	if opts.timeout != nil {
		hc.Timeout = *opts.timeout
	}

	var rt http.RoundTripper
	switch {
	case opts.rt != nil:
		rt = opts.rt
	case hc.Transport != nil:
		rt = hc.Transport
	default:
		rt = http.DefaultTransport
	}
	if opts.userAgent != "" {
		rt = userAgent{value: opts.userAgent, base: rt}
	}
	hc.Transport = rt

	return &hc
}

// Request performs a request and blocks until it completes. Cancelling
// ctx cancels the transfer.
func (c *Client) Request(ctx context.Context, url string, opts RequestOptions) (*Response, error) {
	r, err := c.AsyncRequest(url, opts)
	if err != nil {
		return nil, err
	}
	defer r.Dispose()

	stop := context.AfterFunc(ctx, func() { _ = r.Cancel() })
	defer stop()

	resp, err := r.Response()
	if err != nil {
		if errors.Is(err, ErrCancelled) && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", err, context.Cause(ctx))
		}
		return nil, err
	}

	return resp, nil
}

// AsyncRequest starts a request on its own worker and returns without
// waiting. The caller must Dispose the returned request.
func (c *Client) AsyncRequest(url string, opts RequestOptions) (*AsyncRequest, error) {
	parsed, err := config.Parse(opts, c.host)
	if err != nil {
		return nil, fmt.Errorf("parsing request options: %w", err)
	}

	r, err := async.Start(url, parsed, c.env())
	if err != nil {
		return nil, fmt.Errorf("starting request: %w", err)
	}

	return r, nil
}

// Host returns the callback host that invokes on_data and on_progress
// handles. Unless replaced with [WithCallbackHost] it is a
// [*callback.Registry].
func (c *Client) Host() callback.Host {
	return c.host
}

// InFlight returns the number of running workers.
func (c *Client) InFlight() int {
	return c.group.Len()
}

// Close refuses new requests, cancels outstanding ones and waits for
// their workers to exit. Async requests must still be disposed.
func (c *Client) Close() {
	c.group.Close()
}

func (c *Client) env() async.Env {
	return async.Env{
		Factory:     c.factory,
		Group:       c.group,
		Logger:      c.logger,
		Tracer:      c.tracer,
		MaxBodySize: c.maxBodySize,
		MaxHeaders:  c.maxHeaders,
	}
}

// URL creates the string form of a url.URL for use in Request.
func URL(scheme, host, path string, opts ...URLOption) string {
	var settings urlOpts
	for _, opt := range opts {
		opt(&settings)
	}

	if settings.port != nil {
		host = fmt.Sprintf("%s:%d", host, *settings.port)
	}

	endpoint := url.URL{
		Scheme: scheme,
		Host:   host,
		Path:   path,
	}

	if settings.queryStrings != nil {
		queryParams := url.Values{}
		for k, v := range settings.queryStrings {
			queryParams.Add(k, v)
		}

		endpoint.RawQuery = queryParams.Encode()
	}

	return endpoint.String()
}
