package errs_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/adamwoolhether/easyhttp/client/errs"
	"github.com/google/go-cmp/cmp"
)

func TestTransportError_Is(t *testing.T) {
	err := errs.NewTransportError(io.ErrUnexpectedEOF)

	if !errors.Is(err, errs.ErrTransportFailure) {
		t.Fatal("expected TransportError to match ErrTransportFailure")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatal("expected TransportError to match its cause")
	}
	if errors.Is(err, errs.ErrCancelled) {
		t.Fatal("TransportError must not match ErrCancelled")
	}

	want := "transport failure: unexpected EOF"
	if err.Error() != want {
		t.Fatalf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTransportError_Wrapped(t *testing.T) {
	err := fmt.Errorf("perform: %w", errs.NewTransportError(errors.New("connection refused")))

	var te *errs.TransportError
	if !errors.As(err, &te) {
		t.Fatal("expected errors.As to find *TransportError")
	}
	if te.Message != "connection refused" {
		t.Fatalf("Message = %q, want %q", te.Message, "connection refused")
	}
}

func TestTransportError_NilCause(t *testing.T) {
	err := &errs.TransportError{Message: "write aborted"}

	if !errors.Is(err, errs.ErrTransportFailure) {
		t.Fatal("expected nil-cause TransportError to match ErrTransportFailure")
	}
}

func TestFieldErrors(t *testing.T) {
	err := fmt.Errorf("%w: %w", errs.ErrInvalidOptions, errs.FieldErrors{
		{Field: "method", Err: "method is a required field"},
		{Field: "timeout", Err: "timeout must be 0 or greater"},
	})

	if !errs.IsFieldErrors(err) {
		t.Fatal("expected IsFieldErrors to be true")
	}
	if !errors.Is(err, errs.ErrInvalidOptions) {
		t.Fatal("expected joined ErrInvalidOptions")
	}

	want := map[string]string{
		"method":  "method is a required field",
		"timeout": "timeout must be 0 or greater",
	}
	if diff := cmp.Diff(want, errs.GetFieldErrors(err).Fields()); diff != "" {
		t.Fatalf("Fields() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewFieldError(t *testing.T) {
	err := errs.NewFieldError("headers", errs.ErrInvalidHeaders)

	got := err.Error()
	want := `[{"field":"headers","error":"invalid headers"}]`
	if got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestGetFieldErrors_None(t *testing.T) {
	if fe := errs.GetFieldErrors(errs.ErrCancelled); fe != nil {
		t.Fatalf("expected nil, got %v", fe)
	}
}
