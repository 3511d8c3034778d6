package throttle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/adamwoolhether/easyhttp/client/config"
	"github.com/adamwoolhether/easyhttp/client/transport"
)

var (
	ErrMustNotBeZero = errors.New("must be greater than zero")
	ErrWaitingFailed = errors.New("limiter waiting failed")
	ErrContextEnded  = errors.New("throttle context ended")
)

// Config defines the throttler's
// transfers per second and burst rate.
type Config struct {
	RPS   int
	Burst int
}

// factory hands out handles that share one token bucket.
type factory struct {
	limiter *rate.Limiter
	rps     int
	burst   int
	next    transport.Factory
	logFn   func() *slog.Logger
}

// NewFactory returns a transport.Factory whose handles wait for a token
// before every Perform. logFn lazily resolves the logger at transfer time,
// making option ordering irrelevant. A nil logFn, or one returning nil,
// disables throttle logging.
func NewFactory(rps, burst int, logFn func() *slog.Logger, next transport.Factory) (transport.Factory, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rps[%d] and burst[%d] %w", rps, burst, ErrMustNotBeZero)
	}
	if next == nil {
		return nil, errors.New("next factory must not be nil")
	}

	f := &factory{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		rps:     rps,
		burst:   burst,
		next:    next,
		logFn:   logFn,
	}

	return f, nil
}

func (f *factory) NewHandle() (transport.Handle, error) {
	h, err := f.next.NewHandle()
	if err != nil {
		return nil, err
	}

	return &handle{Handle: h, f: f}, nil
}

// handle gates Perform on the shared limiter.
type handle struct {
	transport.Handle
	f   *factory
	url string
}

func (h *handle) Configure(url string, opts *config.Options) error {
	h.url = url
	return h.Handle.Configure(url, opts)
}

func (h *handle) Perform(ctx context.Context) error {
	if err := h.f.wait(ctx, h.url); err != nil {
		return err
	}

	return h.Handle.Perform(ctx)
}

func (f *factory) wait(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w early: %w", ErrContextEnded, err)
	}

	var waited time.Duration
	var logger *slog.Logger
	if f.logFn != nil {
		logger = f.logFn()
	}
	if logger != nil && f.limiter.Tokens() < 1 {
		logger.Info("throttle tokens exhausted", "rate", f.rps, "burst", f.burst, "url", url)

		defer func() {
			logger.Info("throttle wait complete", "waited", waited.String(), "rate", f.rps, "burst", f.burst)
		}()
	}

	start := time.Now()

	err := f.limiter.Wait(ctx)
	waited = time.Since(start)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWaitingFailed, err)
	}

	if err := ctx.Err(); err != nil { // Check context hasn't expired again.
		return fmt.Errorf("%w post-wait: %w", ErrContextEnded, err)
	}

	return nil
}
