// Package callback models user callbacks as opaque handles owned by a host.
// The request engine never calls user code directly; it hands the handle
// back to the [Host] which performs the invocation.
package callback

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// ErrUnknownHandle is returned when a handle is not registered with the host.
var ErrUnknownHandle = errors.New("unknown callback handle")

// Handle is an opaque token identifying a registered callback.
type Handle uuid.UUID

// Nil is the zero handle; it is never issued by a [Registry].
var Nil = Handle(uuid.Nil)

func (h Handle) String() string {
	return uuid.UUID(h).String()
}

// Verdict is a data callback's decision about a chunk.
type Verdict int

const (
	// Accept keeps the chunk as delivered.
	Accept Verdict = iota
	// Substitute replaces the chunk with DataResult.Data.
	Substitute
	// Reject aborts the transfer.
	Reject
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Substitute:
		return "substitute"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// DataResult is returned by a data callback.
type DataResult struct {
	Verdict Verdict
	Data    []byte
}

// Progress carries the byte counters of both transfer directions.
// Totals are zero when unknown.
type Progress struct {
	Downloaded    int64
	DownloadTotal int64
	Uploaded      int64
	UploadTotal   int64
}

// DataFunc is invoked once per response chunk.
type DataFunc func(chunk []byte) DataResult

// ProgressFunc is invoked once per progress tick. Returning true aborts
// the transfer.
type ProgressFunc func(p Progress) bool

// Host invokes callbacks on behalf of the engine. Implementations must be
// safe to call from a request's worker goroutine.
type Host interface {
	InvokeData(h Handle, chunk []byte) (DataResult, error)
	InvokeProgress(h Handle, p Progress) (bool, error)
	Release(h Handle)
}

// Registry is a [Host] backed by Go functions.
type Registry struct {
	mu       sync.RWMutex
	data     map[Handle]DataFunc
	progress map[Handle]ProgressFunc
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		data:     make(map[Handle]DataFunc),
		progress: make(map[Handle]ProgressFunc),
	}
}

// RegisterData stores fn and returns its handle.
func (r *Registry) RegisterData(fn DataFunc) Handle {
	h := Handle(uuid.New())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[h] = fn

	return h
}

// RegisterProgress stores fn and returns its handle.
func (r *Registry) RegisterProgress(fn ProgressFunc) Handle {
	h := Handle(uuid.New())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress[h] = fn

	return h
}

// InvokeData calls the data callback registered under h.
func (r *Registry) InvokeData(h Handle, chunk []byte) (DataResult, error) {
	r.mu.RLock()
	fn, ok := r.data[h]
	r.mu.RUnlock()

	if !ok {
		return DataResult{Verdict: Reject}, fmt.Errorf("data %s: %w", h, ErrUnknownHandle)
	}

	return fn(chunk), nil
}

// InvokeProgress calls the progress callback registered under h.
func (r *Registry) InvokeProgress(h Handle, p Progress) (bool, error) {
	r.mu.RLock()
	fn, ok := r.progress[h]
	r.mu.RUnlock()

	if !ok {
		return true, fmt.Errorf("progress %s: %w", h, ErrUnknownHandle)
	}

	return fn(p), nil
}

// Release forgets h. Releasing an unknown handle is a no-op.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.data, h)
	delete(r.progress, h)
}

// Len reports the number of registered handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.data) + len(r.progress)
}
