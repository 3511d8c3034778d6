// Package transport defines the narrow contract between the request engine
// and the library that actually speaks HTTP, plus a default implementation
// on top of [net/http].
//
// The engine configures a [Handle], registers its sinks, calls Perform and
// reads the status code. It never inspects transport internals beyond this.
// Sinks are invoked synchronously on the goroutine that called Perform,
// including upload progress.
package transport

import (
	"context"
	"errors"

	"github.com/adamwoolhether/easyhttp/client/config"
)

var (
	// ErrWriteAborted is returned by Perform when a byte sink consumed fewer
	// bytes than it was handed.
	ErrWriteAborted = errors.New("failed writing received data")
	// ErrHeaderAborted is returned by Perform when a header sink consumed
	// fewer bytes than it was handed.
	ErrHeaderAborted = errors.New("failed writing header data")
	// ErrProgressAborted is returned by Perform when a progress sink asked
	// for the transfer to stop.
	ErrProgressAborted = errors.New("operation aborted by progress callback")
	// ErrTooManyRedirects is returned when the redirect cap was reached.
	ErrTooManyRedirects = errors.New("maximum redirects followed")
	// ErrNotConfigured is returned by Perform before Configure succeeded.
	ErrNotConfigured = errors.New("transport handle not configured")
)

// Progress carries the byte counters of both transfer directions.
// Totals are zero when unknown.
type Progress struct {
	Downloaded    int64
	DownloadTotal int64
	Uploaded      int64
	UploadTotal   int64
}

// ByteSink receives response body chunks and reports how many bytes it
// consumed. Anything short of len(chunk) aborts the transfer.
type ByteSink func(chunk []byte) int

// HeaderSink receives raw response header lines, the status line and the
// blank terminator included, and reports how many bytes it consumed.
type HeaderSink func(line []byte) int

// ProgressSink receives progress ticks. A transfer reports its final
// counters at least once, even without a body. Returning true aborts the
// transfer.
type ProgressSink func(p Progress) bool

// Handle is a single-use transfer.
type Handle interface {
	Configure(url string, opts *config.Options) error
	SetByteSink(fn ByteSink)
	SetHeaderSink(fn HeaderSink)
	SetProgressSink(fn ProgressSink)
	Perform(ctx context.Context) error
	StatusCode() int
	Close() error
}

// Factory creates transfer handles.
type Factory interface {
	NewHandle() (Handle, error)
}

// FactoryFunc adapts a function to [Factory].
type FactoryFunc func() (Handle, error)

// NewHandle calls f.
func (f FactoryFunc) NewHandle() (Handle, error) { return f() }
