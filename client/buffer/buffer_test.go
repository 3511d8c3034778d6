package buffer_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/adamwoolhether/easyhttp/client/buffer"
	"github.com/adamwoolhether/easyhttp/client/errs"
)

func TestBuffer_New(t *testing.T) {
	b := buffer.New(0)

	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
	if b.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", b.Cap())
	}
	if len(b.Bytes()) != 0 {
		t.Errorf("Bytes() = %q, want empty", b.Bytes())
	}
}

func TestBuffer_AppendSequences(t *testing.T) {
	testCases := []struct {
		name   string
		chunks []string
	}{
		{
			name:   "single small chunk",
			chunks: []string{"a"},
		},
		{
			name:   "zero length chunks",
			chunks: []string{"", "abc", "", ""},
		},
		{
			name:   "larger than capacity",
			chunks: []string{strings.Repeat("x", 1000)},
		},
		{
			name:   "mixed sizes",
			chunks: []string{"hello", " ", strings.Repeat("w", 257), "", "!", strings.Repeat("z", 4096)},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := buffer.New(0)

			var want bytes.Buffer
			for _, c := range tc.chunks {
				if err := b.Append([]byte(c)); err != nil {
					t.Fatalf("Append(%d bytes): %v", len(c), err)
				}
				want.WriteString(c)
			}

			if b.Len() != want.Len() {
				t.Errorf("Len() = %d, want %d", b.Len(), want.Len())
			}
			if b.Len() > b.Cap() {
				t.Errorf("Len() %d exceeds Cap() %d", b.Len(), b.Cap())
			}
			if !bytes.Equal(b.Bytes(), want.Bytes()) {
				t.Errorf("content mismatch: got %d bytes, want %d", b.Len(), want.Len())
			}
		})
	}
}

func TestBuffer_CapacityDoubles(t *testing.T) {
	b := buffer.New(0)

	if err := b.Append([]byte("abc")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b.Cap() != 4 {
		t.Errorf("Cap() = %d, want 4", b.Cap())
	}

	if err := b.Append([]byte("defgh")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b.Cap() != 8 {
		t.Errorf("Cap() = %d, want 8", b.Cap())
	}

	if err := b.Append([]byte("i")); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if b.Cap() != 16 {
		t.Errorf("Cap() = %d, want 16", b.Cap())
	}
}

func TestBuffer_LimitLeavesBufferIntact(t *testing.T) {
	b := buffer.New(8)

	if err := b.Append([]byte("12345")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	err := b.Append([]byte("6789"))
	if !errors.Is(err, errs.ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}

	if got := b.String(); got != "12345" {
		t.Errorf("String() = %q, want %q", got, "12345")
	}

	if err := b.Append([]byte("678")); err != nil {
		t.Fatalf("Append within limit: %v", err)
	}
	if got := b.String(); got != "12345678" {
		t.Errorf("String() = %q, want %q", got, "12345678")
	}
}

func TestBuffer_Write(t *testing.T) {
	b := buffer.New(4)

	n, err := b.Write([]byte("ab"))
	if err != nil || n != 2 {
		t.Fatalf("Write() = %d, %v; want 2, nil", n, err)
	}

	n, err = b.Write([]byte("cde"))
	if n != 0 || !errors.Is(err, errs.ErrOutOfMemory) {
		t.Fatalf("Write() = %d, %v; want 0, ErrOutOfMemory", n, err)
	}
}

func TestBuffer_CloneIsIndependent(t *testing.T) {
	b := buffer.New(0)
	if err := b.Append([]byte("snapshot")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	c := b.Clone()
	if err := b.Append([]byte(" more")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if string(c) != "snapshot" {
		t.Errorf("Clone() = %q, want %q", c, "snapshot")
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := buffer.New(0)
	if err := b.Append([]byte("data")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	b.Reset()

	if b.Len() != 0 || b.Cap() != 1 {
		t.Errorf("after Reset: Len() = %d, Cap() = %d; want 0, 1", b.Len(), b.Cap())
	}
}
