package client

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/easyhttp/client/callback"
	"github.com/adamwoolhether/easyhttp/client/throttle"
	"github.com/adamwoolhether/easyhttp/client/transport"
)

// Option is a functional option for configuring a [Client] via [Build].
type Option func(*options) error
type options struct {
	client      *http.Client
	rt          http.RoundTripper
	factory     transport.Factory
	timeout     *time.Duration
	userAgent   string
	throttle    *throttle.Config
	logger      *slog.Logger
	tracer      trace.Tracer
	host        callback.Host
	chunkSize   int
	maxBodySize int64
	maxHeaders  int
	maxInFlight int
}

// WithClient replaces the default [http.Client] used by the [Client].
// The client is copied; later changes to hc are not observed.
func WithClient(hc *http.Client) Option {
	return func(c *options) error {
		if hc == nil {
			return errors.New("client must not be nil")
		}
		c.client = hc
		return nil
	}
}

// WithTransport sets a custom [http.RoundTripper] as the base transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *options) error {
		if rt == nil {
			return errors.New("transport must not be nil")
		}
		c.rt = rt
		return nil
	}
}

// WithTransportFactory replaces the net/http transport entirely. The
// http.Client options (WithClient, WithTransport, WithTimeout,
// WithUserAgent, WithChunkSize) no longer apply. Throttling still does.
func WithTransportFactory(f transport.Factory) Option {
	return func(c *options) error {
		if f == nil {
			return errors.New("transport factory must not be nil")
		}
		c.factory = f
		return nil
	}
}

// WithTimeout sets the overall request timeout on the underlying [http.Client].
// A request's own timeout option takes precedence.
func WithTimeout(d time.Duration) Option {
	return func(c *options) error {
		if d < 0 {
			return errors.New("timeout must not be negative")
		}
		c.timeout = &d
		return nil
	}
}

// WithUserAgent adds a persistent User-Agent header to all outgoing requests.
func WithUserAgent(header string) Option {
	return func(c *options) error {
		c.userAgent = header
		return nil
	}
}

// WithThrottle enables token-bucket rate limiting with the given requests per second and burst capacity.
func WithThrottle(rps, burst int) Option {
	return func(c *options) error {
		if rps <= 0 || burst <= 0 {
			return fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, throttle.ErrMustNotBeZero)
		}
		c.throttle = &throttle.Config{RPS: rps, Burst: burst}
		return nil
	}
}

// WithLogger injects a custom [slog.Logger] into the [Client].
func WithLogger(logger *slog.Logger) Option {
	return func(c *options) error {
		c.logger = logger
		return nil
	}
}

// WithTracer sets the tracer used to record a span per request.
// A nil tracer leaves the noop tracer in place.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *options) error {
		c.tracer = tracer
		return nil
	}
}

// WithCallbackHost replaces the [callback.Registry] that invokes the
// on_data and on_progress handles. Plain functions in request options
// are only accepted when the host can register them.
func WithCallbackHost(host callback.Host) Option {
	return func(c *options) error {
		if host == nil {
			return errors.New("callback host must not be nil")
		}
		c.host = host
		return nil
	}
}

// WithChunkSize sets the size of the body chunks handed to on_data.
func WithChunkSize(n int) Option {
	return func(c *options) error {
		if n <= 0 {
			return errors.New("chunk size must be greater than zero")
		}
		c.chunkSize = n
		return nil
	}
}

// WithMaxBodySize caps the in-memory response body of each request.
// Larger bodies fail with [ErrOutOfMemory].
func WithMaxBodySize(n int64) Option {
	return func(c *options) error {
		if n <= 0 {
			return errors.New("max body size must be greater than zero")
		}
		c.maxBodySize = n
		return nil
	}
}

// WithMaxHeaders caps the number of response header entries per request.
// More headers fail with [ErrOutOfMemory].
func WithMaxHeaders(n int) Option {
	return func(c *options) error {
		if n <= 0 {
			return errors.New("max headers must be greater than zero")
		}
		c.maxHeaders = n
		return nil
	}
}

// WithMaxInFlight limits the number of concurrently running requests.
// Starting a request beyond the limit fails with [ErrWorkerSpawnFailed].
func WithMaxInFlight(n int) Option {
	return func(c *options) error {
		if n <= 0 {
			return errors.New("max in-flight must be greater than zero")
		}
		c.maxInFlight = n
		return nil
	}
}

// userAgent is an http.RoundTripper, enabling the persistent User-Agent header.
type userAgent struct {
	value string
	base  http.RoundTripper
}

func (ua userAgent) RoundTrip(r *http.Request) (*http.Response, error) {
	cpy := r.Clone(r.Context())
	cpy.Header.Set("User-Agent", ua.value)
	return ua.base.RoundTrip(cpy)
}

// URLOption is a functional option for [URL].
type URLOption func(options *urlOpts)

type urlOpts struct {
	queryStrings map[string]string
	port         *int
}

// WithQueryStrings appends query parameters to the URL.
func WithQueryStrings(queryKV map[string]string) URLOption {
	return func(opts *urlOpts) {
		opts.queryStrings = queryKV
	}
}

// WithPort sets the port number on the URL's host.
func WithPort(port int) URLOption {
	return func(opts *urlOpts) {
		opts.port = &port
	}
}
