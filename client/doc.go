// Package client provides the configurable HTTP request engine built on
// [net/http].
//
// # Building a Client
//
// Use [Build] to create a [Client] with functional options:
//
//	c, err := client.Build(
//		client.WithTimeout(10 * time.Second),
//		client.WithUserAgent("myapp/1.0"),
//		client.WithMaxInFlight(8),
//	)
//	defer c.Close()
//
// # Making Requests
//
// Request options are a [RequestOptions] map. Recognized keys are method,
// body, timeout, follow_redirects, max_redirects, output_file, headers,
// on_data and on_progress; other keys are ignored.
//
//	resp, err := c.Request(ctx, "https://api.example.com/v1/resource", client.RequestOptions{
//		"method":  "POST",
//		"body":    payload,
//		"headers": map[string]string{"Content-Type": "application/json"},
//		"timeout": 5,
//	})
//
// # Async Requests
//
// [Client.AsyncRequest] returns immediately with an [AsyncRequest] whose
// worker runs in the background:
//
//	r, err := c.AsyncRequest(u, client.RequestOptions{
//		"on_progress": func(p callback.Progress) bool { return false },
//	})
//	defer r.Dispose()
//	// ... do other work, poll r.IsDone(), r.Progress() or r.Data() ...
//	resp, err := r.Response()
//
// Callback functions given in on_data and on_progress are registered with
// the client's [callback.Registry] and released when the request is
// disposed.
//
// # Output Files
//
// A string output_file streams the body to a temp file next to the path,
// renamed into place only when the transfer succeeds:
//
//	_, err := c.Request(ctx, u, client.RequestOptions{"output_file": "/tmp/file.bin"})
//
// For lower-level control see the
// [github.com/adamwoolhether/easyhttp/client/async] package.
package client
