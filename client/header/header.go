// Package header provides an ordered, duplicate-preserving collection of
// header entries and the raw line parser used as the transport's header sink.
package header

import (
	"bytes"
	"fmt"
	"iter"
	"strings"

	"github.com/adamwoolhether/easyhttp/client/errs"
)

// Entry is a single header key/value pair.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Headers keeps entries in arrival order. Duplicate keys are preserved as
// distinct entries and never merged.
type Headers struct {
	entries []Entry
	limit   int
}

// New creates an empty collection.
func New() *Headers {
	return &Headers{}
}

// NewWithLimit creates an empty collection that accepts at most limit entries.
func NewWithLimit(limit int) *Headers {
	return &Headers{limit: max(limit, 0)}
}

// Append adds an entry at the end of the collection.
func (h *Headers) Append(key, value string) error {
	if h.limit > 0 && len(h.entries) >= h.limit {
		return fmt.Errorf("appending header %q: %d entries: %w", key, h.limit, errs.ErrOutOfMemory)
	}

	h.entries = append(h.entries, Entry{Key: key, Value: value})

	return nil
}

// ParseLine parses a raw "Key: Value" line and appends the result.
// The key is everything before the first colon; leading whitespace of the
// value and trailing CR/LF are trimmed. Lines without a colon (status
// lines, the blank terminator) are skipped.
//
// The full input length is always reported as consumed so a transport never
// mistakes a skipped or rejected line for a short write. Use [Headers.Parse]
// when the append error matters.
func (h *Headers) ParseLine(line []byte) int {
	_ = h.Parse(line)
	return len(line)
}

// Parse is ParseLine reporting the append error, if any.
func (h *Headers) Parse(line []byte) error {
	key, value, ok := Split(line)
	if !ok {
		return nil
	}

	return h.Append(key, value)
}

// Split separates a raw header line into key and value. ok is false for
// lines without a colon.
func Split(line []byte) (key, value string, ok bool) {
	line = bytes.TrimRight(line, "\r\n")

	k, v, found := bytes.Cut(line, []byte{':'})
	if !found {
		return "", "", false
	}

	v = bytes.TrimLeft(v, " \t")

	return string(k), string(v), true
}

// Len returns the number of entries.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Entries returns a copy of the entries in arrival order.
func (h *Headers) Entries() []Entry {
	if h == nil {
		return nil
	}
	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// All iterates the entries in arrival order.
func (h *Headers) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		if h == nil {
			return
		}
		for _, e := range h.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

// Get returns the value of the first entry whose key matches
// case-insensitively, or "".
func (h *Headers) Get(key string) string {
	for k, v := range h.All() {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// Values returns the values of every entry whose key matches
// case-insensitively, in arrival order.
func (h *Headers) Values(key string) []string {
	var out []string
	for k, v := range h.All() {
		if strings.EqualFold(k, key) {
			out = append(out, v)
		}
	}
	return out
}

// Clone returns a deep copy, limit included.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return New()
	}
	return &Headers{
		entries: h.Entries(),
		limit:   h.limit,
	}
}

// Lines serializes the entries as "Key: Value" lines, in order.
func (h *Headers) Lines() []string {
	if h == nil {
		return nil
	}
	out := make([]string, 0, len(h.entries))
	for _, e := range h.entries {
		out = append(out, e.Key+": "+e.Value)
	}
	return out
}

// Reset drops every entry.
func (h *Headers) Reset() {
	h.entries = nil
}
