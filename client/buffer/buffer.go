// Package buffer provides the append-only byte accumulator used as the
// default sink for response bodies.
package buffer

import (
	"fmt"

	"github.com/adamwoolhether/easyhttp/client/errs"
)

// Buffer accumulates bytes with amortized-doubling growth.
// It is not safe for concurrent use; callers serialize access.
type Buffer struct {
	data  []byte // len(data) is the capacity
	n     int
	limit int64
}

// New creates an empty Buffer with a capacity of one byte.
// A limit greater than zero caps the total number of bytes the
// buffer will accept.
func New(limit int64) *Buffer {
	if limit < 0 {
		limit = 0
	}
	return &Buffer{
		data:  make([]byte, 1),
		limit: limit,
	}
}

// Append copies p onto the end of the buffer. When the new length would
// exceed the capacity, the capacity doubles until it is sufficient and a
// single reallocation occurs. If the limit would be exceeded Append
// returns [errs.ErrOutOfMemory] and leaves the buffer unmodified.
func (b *Buffer) Append(p []byte) error {
	newLen := b.n + len(p)
	if b.limit > 0 && int64(newLen) > b.limit {
		return fmt.Errorf("appending %d bytes to %d of %d: %w", len(p), b.n, b.limit, errs.ErrOutOfMemory)
	}

	if newLen > len(b.data) {
		capacity := max(len(b.data), 1)
		for capacity < newLen {
			capacity *= 2
		}
		grown := make([]byte, capacity)
		copy(grown, b.data[:b.n])
		b.data = grown
	}

	copy(b.data[b.n:], p)
	b.n = newLen

	return nil
}

// Write implements io.Writer. A failed append consumes nothing.
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.Append(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Bytes returns the accumulated content. The slice aliases the buffer and
// is only valid until the next Append.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n:b.n]
}

// Clone returns a copy of the accumulated content.
func (b *Buffer) Clone() []byte {
	out := make([]byte, b.n)
	copy(out, b.data[:b.n])
	return out
}

// String returns the accumulated content as a string.
func (b *Buffer) String() string {
	return string(b.data[:b.n])
}

// Len returns the number of accumulated bytes.
func (b *Buffer) Len() int { return b.n }

// Cap returns the current capacity.
func (b *Buffer) Cap() int { return len(b.data) }

// Reset drops the storage. The buffer can be reused afterwards.
func (b *Buffer) Reset() {
	b.data = make([]byte, 1)
	b.n = 0
}
