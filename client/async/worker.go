package async

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/adamwoolhether/easyhttp/client/download"
	"github.com/adamwoolhether/easyhttp/client/errs"
)

// run is the worker body. It returns the exit code published on the
// join handle.
func (r *Request) run(ctx context.Context) exitCode {
	ctx, span := r.env.Tracer.Start(ctx, "easyhttp.request", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("id", r.id.String()),
		attribute.String("method", r.opts.Method),
		attribute.String("url", r.url),
	)

	start := time.Now()
	r.env.Logger.Info("request started", "id", r.id, "method", r.opts.Method, "url", r.url)

	status, err := r.perform(ctx)
	code := r.settle(status, err)

	switch code {
	case exitOK:
		span.SetAttributes(attribute.Int("statuscode", status))
		r.env.Logger.Info("request completed", "id", r.id, "method", r.opts.Method, "url", r.url,
			"statuscode", status, "since", time.Since(start).String())
	case exitCancelled:
		span.SetStatus(codes.Error, errs.ErrCancelled.Error())
		r.env.Logger.Info("request cancelled", "id", r.id, "url", r.url, "since", time.Since(start).String())
	case exitError:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.env.Logger.Error("request failed", "id", r.id, "url", r.url, "error", err, "since", time.Since(start).String())
	}

	return code
}

// settle records the worker's outcome. A transport failure observed after
// Cancel is reported as a cancellation.
func (r *Request) settle(status int, err error) exitCode {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err == nil {
		r.status = status
		r.state = stateDone
		return exitOK
	}

	if r.cancelled {
		r.state = stateCancelled
		return exitCancelled
	}

	r.err = err
	r.cancelled = true
	r.state = stateErrored

	return exitError
}

// finish publishes the exit code and releases everyone joining the worker.
func (r *Request) finish(code exitCode) {
	r.exit = code
	close(r.done)
}

func (r *Request) perform(ctx context.Context) (status int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errs.NewTransportError(fmt.Errorf("PANIC [%v] TRACE[%s]", rec, string(debug.Stack())))
		}
	}()

	h, err := r.env.Factory.NewHandle()
	if err != nil {
		return 0, errs.NewTransportError(fmt.Errorf("creating transport handle: %w", err))
	}
	defer func() {
		if err := h.Close(); err != nil {
			r.env.Logger.Error("closing transport handle", "id", r.id, "error", err)
		}
	}()

	if err := h.Configure(r.url, r.opts); err != nil {
		return 0, errs.NewTransportError(fmt.Errorf("configuring transport: %w", err))
	}

	var file *download.File
	if r.opts.OutputPath != "" {
		file, err = download.Create(r.opts.OutputPath, r.env.Logger)
		if err != nil {
			return 0, errs.NewTransportError(err)
		}
		defer file.Abort()
	}

	b := newBridge(r, file)
	h.SetByteSink(b.onBytes)
	h.SetHeaderSink(b.onHeader)
	h.SetProgressSink(b.onProgress)

	if err := h.Perform(ctx); err != nil {
		cause := b.cause()
		switch {
		case cause == nil:
			return 0, errs.NewTransportError(err)
		case errors.Is(cause, errs.ErrOutOfMemory):
			return 0, cause
		default:
			return 0, errs.NewTransportError(fmt.Errorf("%w: %w", err, cause))
		}
	}

	if file != nil {
		if err := file.Commit(); err != nil {
			return 0, errs.NewTransportError(err)
		}
	}

	return h.StatusCode(), nil
}
