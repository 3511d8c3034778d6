// Package errs defines the error taxonomy shared by the request engine.
package errs

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidOptions is returned when a request configuration is malformed.
	// It is detected before any worker starts.
	ErrInvalidOptions = errors.New("invalid options")
	// ErrInvalidHeaders is returned when the headers option is not a map or
	// holds a header that is not valid on the wire. It always matches
	// [ErrInvalidOptions] as well.
	ErrInvalidHeaders = errors.New("invalid headers")
	// ErrOutOfMemory is returned when a buffer, header collection or option
	// serialization exceeds its allocation budget. Prior state is left intact.
	ErrOutOfMemory = errors.New("out of memory")
	// ErrWorkerSpawnFailed is returned when a request worker cannot be started.
	ErrWorkerSpawnFailed = errors.New("failed to spawn worker")
	// ErrTransportFailure is wrapped by [TransportError].
	ErrTransportFailure = errors.New("transport failure")
	// ErrCancelled is returned when a request observed its own cancellation.
	ErrCancelled = errors.New("request was cancelled")
	// ErrAlreadyDone is returned by operations that only make sense before a
	// request reached a terminal state.
	ErrAlreadyDone = errors.New("request is already done")
	// ErrDisposed is returned by queries on a request that was disposed.
	ErrDisposed = errors.New("request disposed")
)

// TransportError is recorded when the transport reports a non-success result.
// Message carries the transport's own description.
type TransportError struct {
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s", ErrTransportFailure, e.Message)
}

// Unwrap exposes both [ErrTransportFailure] and the underlying cause.
func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransportFailure}
	}
	return []error{ErrTransportFailure, e.Err}
}

// NewTransportError wraps err as a [TransportError].
func NewTransportError(err error) *TransportError {
	return &TransportError{
		Message: err.Error(),
		Err:     err,
	}
}

// /////////////////////////////////////////////////////////////////////////////////////////////

// FieldError ties a message to the option key it was raised for.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// FieldErrors collects the rejected option keys of one configuration.
type FieldErrors []FieldError

// NewFieldError reports a single rejected option key.
func NewFieldError(key string, err error) FieldErrors {
	return FieldErrors{{Field: key, Err: err.Error()}}
}

// Error renders the collection as a JSON array.
func (fe FieldErrors) Error() string {
	d, err := json.Marshal(fe)
	if err != nil {
		return err.Error()
	}
	return string(d)
}

// Fields maps every rejected key to its message. A key reported twice
// keeps its last message.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, f := range fe {
		m[f.Field] = f.Err
	}
	return m
}

// IsFieldErrors reports whether err carries a [FieldErrors].
func IsFieldErrors(err error) bool {
	return GetFieldErrors(err) != nil
}

// GetFieldErrors returns the [FieldErrors] carried by err, or nil.
func GetFieldErrors(err error) FieldErrors {
	var fe FieldErrors
	if !errors.As(err, &fe) {
		return nil
	}
	return fe
}
