package async

import (
	"fmt"
	"io"
	"runtime/debug"
	"sync"

	"github.com/adamwoolhether/easyhttp/client/callback"
	"github.com/adamwoolhether/easyhttp/client/download"
	"github.com/adamwoolhether/easyhttp/client/transport"
)

// bridge adapts a Request to the transport's sinks. Each sink first checks
// the cancellation flag and aborts the transfer when it is set.
type bridge struct {
	r    *Request
	sink io.Writer // nil writes to the request's buffer

	// mu guards failure and meter; upload progress may arrive on a
	// transport goroutine.
	mu      sync.Mutex
	failure error
	meter   *download.Progress
}

func newBridge(r *Request, file *download.File) *bridge {
	b := bridge{
		r:     r,
		sink:  r.opts.Output,
		meter: download.NewProgress(r.env.Logger, "id", r.id),
	}
	if file != nil {
		b.sink = file
	}

	return &b
}

// cancelled is the cooperative cancellation checkpoint.
func (b *bridge) cancelled() bool {
	b.r.mu.Lock()
	defer b.r.mu.Unlock()

	return b.r.cancelled
}

func (b *bridge) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failure == nil {
		b.failure = err
	}
}

func (b *bridge) cause() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.failure
}

// guard runs a host call and records a panic it raises as the failure cause.
func (b *bridge) guard(name string, call func()) (ok bool) {
	defer func() {
		if rec := recover(); rec != nil {
			b.fail(fmt.Errorf("%s: PANIC [%v] TRACE[%s]", name, rec, string(debug.Stack())))
			ok = false
		}
	}()

	call()

	return true
}

func (b *bridge) onBytes(chunk []byte) int {
	if b.cancelled() {
		return 0
	}

	data := chunk
	if b.r.opts.HasDataCallback() {
		var (
			res callback.DataResult
			err error
		)
		if !b.guard("data callback", func() { res, err = b.r.opts.Host.InvokeData(b.r.opts.OnData, chunk) }) {
			return 0
		}
		if err != nil {
			b.fail(fmt.Errorf("data callback: %w", err))
			return 0
		}

		switch res.Verdict {
		case callback.Accept:
		case callback.Substitute:
			data = res.Data
		default:
			b.fail(fmt.Errorf("data callback: chunk %s", res.Verdict))
			return 0
		}
	}

	if b.sink != nil {
		if _, err := b.sink.Write(data); err != nil {
			b.fail(fmt.Errorf("output sink: %w", err))
			return 0
		}
		return len(chunk)
	}

	b.r.mu.Lock()
	err := b.r.buf.Append(data)
	b.r.mu.Unlock()
	if err != nil {
		b.fail(err)
		return 0
	}

	return len(chunk)
}

func (b *bridge) onHeader(line []byte) int {
	if b.cancelled() {
		return 0
	}

	b.r.mu.Lock()
	err := b.r.hdrs.Parse(line)
	b.r.mu.Unlock()
	if err != nil {
		b.fail(err)
		return 0
	}

	return len(line)
}

func (b *bridge) onProgress(p transport.Progress) bool {
	b.r.mu.Lock()
	if b.r.cancelled {
		b.r.mu.Unlock()
		return true
	}
	b.r.progress = p
	b.r.mu.Unlock()

	b.mu.Lock()
	b.meter.Update(p.Downloaded, p.DownloadTotal)
	b.mu.Unlock()

	if !b.r.opts.HasProgressCallback() {
		return false
	}

	var (
		abort bool
		err   error
	)
	if !b.guard("progress callback", func() { abort, err = b.r.opts.Host.InvokeProgress(b.r.opts.OnProgress, callback.Progress(p)) }) {
		return true
	}
	if err != nil {
		b.fail(fmt.Errorf("progress callback: %w", err))
		return true
	}

	return abort
}
