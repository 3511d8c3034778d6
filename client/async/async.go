package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/adamwoolhether/easyhttp/client/buffer"
	"github.com/adamwoolhether/easyhttp/client/config"
	"github.com/adamwoolhether/easyhttp/client/errs"
	"github.com/adamwoolhether/easyhttp/client/header"
	"github.com/adamwoolhether/easyhttp/client/transport"
)

// Env carries the collaborators a worker needs. Zero fields fall back to
// defaults: the net/http transport, slog.Default, a noop tracer and an
// untracked worker.
type Env struct {
	Factory transport.Factory
	Group   *Group
	Logger  *slog.Logger
	Tracer  trace.Tracer

	// MaxBodySize caps the in-memory response body. Zero is unlimited.
	MaxBodySize int64
	// MaxHeaders caps the number of response header entries. Zero is unlimited.
	MaxHeaders int
}

func (e Env) withDefaults() Env {
	if e.Factory == nil {
		e.Factory = transport.NewHTTP(nil)
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	if e.Tracer == nil {
		e.Tracer = noop.NewTracerProvider().Tracer("no-op tracer")
	}

	return e
}

type state int

const (
	stateRunning state = iota
	stateDone
	stateErrored
	stateCancelled
)

// exitCode is the worker's reason for stopping, published on the join handle.
type exitCode int

const (
	exitOK exitCode = iota
	exitCancelled
	exitError
)

// Response is the outcome of a completed request.
type Response struct {
	StatusCode int
	// Body is nil when the response was streamed to an output sink.
	Body    []byte
	Headers *header.Headers
}

// Request is one in-flight or finished transfer.
type Request struct {
	id   uuid.UUID
	url  string
	env  Env
	opts *config.Options

	// done is closed by the worker after exit is written.
	done   chan struct{}
	exit   exitCode
	cancel context.CancelFunc

	mu        sync.Mutex
	state     state
	cancelled bool
	disposed  bool
	err       error
	status    int
	progress  transport.Progress
	buf       *buffer.Buffer
	hdrs      *header.Headers

	disposeOnce sync.Once
}

// Start spawns a worker performing a request to url. The returned Request
// owns opts: they are closed on Dispose, or before Start returns an error.
func Start(url string, opts *config.Options, env Env) (*Request, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: options must not be nil", errs.ErrInvalidOptions)
	}
	if url == "" {
		_ = opts.Close()
		return nil, fmt.Errorf("%w: url must not be empty", errs.ErrInvalidOptions)
	}

	env = env.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())

	r := Request{
		id:     uuid.New(),
		url:    url,
		env:    env,
		opts:   opts,
		done:   make(chan struct{}),
		cancel: cancel,
		buf:    buffer.New(env.MaxBodySize),
		hdrs:   header.NewWithLimit(env.MaxHeaders),
	}

	if err := env.Group.spawn(&r, func() exitCode { return r.run(ctx) }); err != nil {
		cancel()
		_ = opts.Close()
		return nil, fmt.Errorf("%w: %w", errs.ErrWorkerSpawnFailed, err)
	}

	return &r, nil
}

// ID returns the request's unique identifier.
func (r *Request) ID() uuid.UUID { return r.id }

// URL returns the request target.
func (r *Request) URL() string { return r.url }

// Done returns a channel closed once the worker has exited.
func (r *Request) Done() <-chan struct{} { return r.done }

// IsDone reports whether the transfer completed successfully.
func (r *Request) IsDone() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state == stateDone
}

// Progress returns the latest observed transfer counters.
func (r *Request) Progress() transport.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.progress
}

// Data returns a copy of the response body received so far. It returns
// nil when the body goes to an output sink or the request was disposed.
func (r *Request) Data() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.buf == nil || r.opts.HasOutput() {
		return nil
	}

	return r.buf.Clone()
}

// Cancel asks the worker to stop and returns without waiting for it.
// It fails with [errs.ErrAlreadyDone] once the request reached a
// terminal state.
func (r *Request) Cancel() error {
	r.mu.Lock()
	if r.state != stateRunning {
		r.mu.Unlock()
		return errs.ErrAlreadyDone
	}
	r.cancelled = true
	r.mu.Unlock()

	r.cancel()

	return nil
}

// Response waits for the worker and returns the result. A recorded error
// is returned without waiting. Calls after completion return the same
// result without blocking.
func (r *Request) Response() (*Response, error) {
	r.mu.Lock()
	if r.err != nil {
		err := r.err
		r.mu.Unlock()
		return nil, err
	}

	if r.state != stateDone {
		r.mu.Unlock() // The worker needs the lock to finish.
		<-r.done

		switch r.exit {
		case exitCancelled:
			return nil, errs.ErrCancelled
		case exitError:
			r.mu.Lock()
			err := r.err
			r.mu.Unlock()
			return nil, err
		}

		r.mu.Lock()
	}
	defer r.mu.Unlock()

	if r.disposed {
		return nil, errs.ErrDisposed
	}

	resp := Response{
		StatusCode: r.status,
		Headers:    r.hdrs.Clone(),
	}
	if !r.opts.HasOutput() {
		resp.Body = r.buf.Clone()
	}

	return &resp, nil
}

// Dispose cancels the request if it is still running, joins the worker
// and releases the options, body and headers. It is safe to call more
// than once.
func (r *Request) Dispose() {
	r.mu.Lock()
	r.cancelled = true
	r.mu.Unlock()

	r.cancel()
	<-r.done

	r.disposeOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if err := r.opts.Close(); err != nil {
			r.env.Logger.Error("closing options", "id", r.id, "error", err)
		}
		r.buf.Reset()
		r.buf = nil
		r.hdrs = nil
		r.disposed = true
	})
}
