package header_test

import (
	"errors"
	"testing"

	"github.com/adamwoolhether/easyhttp/client/errs"
	"github.com/adamwoolhether/easyhttp/client/header"
	"github.com/google/go-cmp/cmp"
)

func TestHeaders_ParseLine(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
		want  []header.Entry
	}{
		{
			name:  "content type with CRLF",
			lines: []string{"Content-Type: text/plain\r\n"},
			want:  []header.Entry{{Key: "Content-Type", Value: "text/plain"}},
		},
		{
			name:  "no colon is skipped",
			lines: []string{"HTTP/1.1 200 OK\r\n", "\r\n"},
			want:  []header.Entry{},
		},
		{
			name:  "duplicates kept in arrival order",
			lines: []string{"Set-Cookie: a=1\r\n", "Set-Cookie: b=2\r\n"},
			want: []header.Entry{
				{Key: "Set-Cookie", Value: "a=1"},
				{Key: "Set-Cookie", Value: "b=2"},
			},
		},
		{
			name:  "split at first colon only",
			lines: []string{"Location: http://example.com:8080/x\n"},
			want:  []header.Entry{{Key: "Location", Value: "http://example.com:8080/x"}},
		},
		{
			name:  "leading tabs and spaces trimmed",
			lines: []string{"X-Pad: \t  padded\r\n"},
			want:  []header.Entry{{Key: "X-Pad", Value: "padded"}},
		},
		{
			name:  "empty value",
			lines: []string{"X-Empty:\r\n"},
			want:  []header.Entry{{Key: "X-Empty", Value: ""}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := header.New()

			for _, line := range tc.lines {
				if n := h.ParseLine([]byte(line)); n != len(line) {
					t.Errorf("ParseLine(%q) = %d, want %d", line, n, len(line))
				}
			}

			if diff := cmp.Diff(tc.want, h.Entries()); diff != "" {
				t.Errorf("entries mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestHeaders_LimitReportsFullConsumption(t *testing.T) {
	h := header.NewWithLimit(1)

	line := []byte("A: 1\r\n")
	if n := h.ParseLine(line); n != len(line) {
		t.Fatalf("ParseLine = %d, want %d", n, len(line))
	}

	line = []byte("B: 2\r\n")
	if n := h.ParseLine(line); n != len(line) {
		t.Fatalf("ParseLine over limit = %d, want %d", n, len(line))
	}

	if err := h.Parse(line); !errors.Is(err, errs.ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory, got %v", err)
	}

	if h.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", h.Len())
	}
}

func TestHeaders_GetValues(t *testing.T) {
	h := header.New()
	for _, kv := range [][2]string{{"Accept", "a"}, {"accept", "b"}, {"Host", "x"}} {
		if err := h.Append(kv[0], kv[1]); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	if got := h.Get("ACCEPT"); got != "a" {
		t.Errorf("Get() = %q, want %q", got, "a")
	}
	if diff := cmp.Diff([]string{"a", "b"}, h.Values("Accept")); diff != "" {
		t.Errorf("Values() mismatch (-want +got):\n%s", diff)
	}
	if got := h.Get("Missing"); got != "" {
		t.Errorf("Get(missing) = %q, want empty", got)
	}
}

func TestHeaders_CloneAndLines(t *testing.T) {
	h := header.New()
	_ = h.Append("A", "1")
	_ = h.Append("B", "2")

	c := h.Clone()
	_ = h.Append("C", "3")

	if diff := cmp.Diff([]string{"A: 1", "B: 2"}, c.Lines()); diff != "" {
		t.Errorf("Lines() mismatch (-want +got):\n%s", diff)
	}
	if h.Len() != 3 {
		t.Errorf("original Len() = %d, want 3", h.Len())
	}
}

func TestHeaders_Nil(t *testing.T) {
	var h *header.Headers

	if h.Len() != 0 {
		t.Errorf("nil Len() = %d", h.Len())
	}
	if h.Get("x") != "" {
		t.Error("nil Get() should be empty")
	}
	if h.Clone().Len() != 0 {
		t.Error("nil Clone() should be empty")
	}
}
