// Package easyhttp issues HTTP requests synchronously or on background
// workers, with streaming callbacks and cooperative cancellation.
//
// The package-level functions use a default client built on first use.
// Build a dedicated client with [NewClient] to customize the transport,
// logging, tracing or concurrency limits.
package easyhttp

import (
	"context"
	"sync"

	"github.com/adamwoolhether/easyhttp/client"
)

// Version is the library version.
const Version = "0.1.0"

var defaultClient = sync.OnceValues(func() (*client.Client, error) {
	return client.Build(client.WithUserAgent("easyhttp/" + Version))
})

// NewClient instantiates a new *Client with the provided options.
// If not specified, the default http.Client and http.Transport are used.
func NewClient(opts ...client.Option) (*client.Client, error) {
	return client.Build(opts...)
}

// Request performs a request with the default client and blocks until it
// completes.
func Request(ctx context.Context, url string, opts client.RequestOptions) (*client.Response, error) {
	c, err := defaultClient()
	if err != nil {
		return nil, err
	}

	return c.Request(ctx, url, opts)
}

// AsyncRequest starts a request with the default client. The caller must
// Dispose the returned request.
func AsyncRequest(url string, opts client.RequestOptions) (*client.AsyncRequest, error) {
	c, err := defaultClient()
	if err != nil {
		return nil, err
	}

	return c.AsyncRequest(url, opts)
}
