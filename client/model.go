package client

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/adamwoolhether/easyhttp/client/async"
	"github.com/adamwoolhether/easyhttp/client/config"
	"github.com/adamwoolhether/easyhttp/client/errs"
)

// maxErrBodySize caps the amount of response body copied into an
// [UnexpectedStatusError].
const maxErrBodySize = 4 << 10 // 4KB

type (
	// RequestOptions is the per-request options map.
	RequestOptions = config.Raw

	// AsyncRequest is an in-flight or completed request.
	AsyncRequest = async.Request

	// Response is the outcome of a completed request.
	Response = async.Response

	// TransportError carries the transport's own failure message.
	TransportError = errs.TransportError
)

var (
	ErrInvalidOptions    = errs.ErrInvalidOptions
	ErrInvalidHeaders    = errs.ErrInvalidHeaders
	ErrOutOfMemory       = errs.ErrOutOfMemory
	ErrWorkerSpawnFailed = errs.ErrWorkerSpawnFailed
	ErrTransportFailure  = errs.ErrTransportFailure
	ErrCancelled         = errs.ErrCancelled
	ErrAlreadyDone       = errs.ErrAlreadyDone
	ErrDisposed          = errs.ErrDisposed
)

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [UnexpectedStatusError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
)

// UnexpectedStatusError is returned when the HTTP response status code
// does not match the expected value.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("%v: %d, body: %s", e.Err, e.StatusCode, e.Body)
}

func (e *UnexpectedStatusError) Unwrap() error {
	return e.Err
}

// ExpectStatus returns an [*UnexpectedStatusError] unless resp carries one
// of the expected status codes. At most 4KB of the body is kept.
func ExpectStatus(resp *Response, expected ...int) error {
	if slices.Contains(expected, resp.StatusCode) {
		return nil
	}

	body := resp.Body
	if len(body) > maxErrBodySize {
		body = body[:maxErrBodySize]
	}

	err := ErrUnexpectedStatusCode
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		err = errors.Join(ErrUnexpectedStatusCode, ErrAuthFailure)
	}

	return &UnexpectedStatusError{
		StatusCode: resp.StatusCode,
		Body:       string(body),
		Err:        err,
	}
}
