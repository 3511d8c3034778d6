package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"slices"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/adamwoolhether/easyhttp/client/config"
	"github.com/adamwoolhether/easyhttp/client/header"
)

// DefaultChunkSize is the size of the body chunks handed to the byte sink.
const DefaultChunkSize = 32 << 10 // 32KB

// HTTP is a [Factory] whose handles perform transfers with an [http.Client].
type HTTP struct {
	client    *http.Client
	chunkSize int
}

// NewHTTP returns a factory built on hc. A nil hc uses [http.DefaultClient].
// The client's Timeout applies unless a request configures its own, and its
// CheckRedirect is replaced per request by the configured redirect policy.
func NewHTTP(hc *http.Client) *HTTP {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTP{
		client:    hc,
		chunkSize: DefaultChunkSize,
	}
}

// WithChunkSize returns a copy of the factory reading the body in chunks of n bytes.
func (f *HTTP) WithChunkSize(n int) *HTTP {
	cpy := *f
	if n > 0 {
		cpy.chunkSize = n
	}
	return &cpy
}

// NewHandle implements [Factory].
func (f *HTTP) NewHandle() (Handle, error) {
	return &httpHandle{
		client:   f.client,
		chunk:    f.chunkSize,
		uploaded: make(chan struct{}, 1),
	}, nil
}

type httpHandle struct {
	client *http.Client
	chunk  int

	url  string
	opts *config.Options

	onBytes    ByteSink
	onHeader   HeaderSink
	onProgress ProgressSink

	status int

	// mu guards progress; net/http writes request bodies from its own goroutine.
	mu       sync.Mutex
	progress Progress
	reported Progress
	ticked   bool

	// uploaded wakes Perform when the upload counter moved.
	uploaded chan struct{}
}

func (h *httpHandle) Configure(url string, opts *config.Options) error {
	if url == "" {
		return errors.New("url must not be empty")
	}
	if opts == nil {
		return errors.New("options must not be nil")
	}

	h.url = url
	h.opts = opts

	return nil
}

func (h *httpHandle) SetByteSink(fn ByteSink)         { h.onBytes = fn }
func (h *httpHandle) SetHeaderSink(fn HeaderSink)     { h.onHeader = fn }
func (h *httpHandle) SetProgressSink(fn ProgressSink) { h.onProgress = fn }
func (h *httpHandle) StatusCode() int                 { return h.status }

// Close detaches the sinks. No sink is invoked once Close returns.
func (h *httpHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.onBytes, h.onHeader, h.onProgress = nil, nil, nil
	h.opts = nil

	return nil
}

func (h *httpHandle) Perform(ctx context.Context) error {
	if h.opts == nil {
		return ErrNotConfigured
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	req, err := h.request(ctx)
	if err != nil {
		return err
	}

	hc := *h.client
	if h.opts.Timeout > 0 {
		hc.Timeout = h.opts.Timeout
	}
	hc.CheckRedirect = redirectPolicy(h.opts)

	resp, err := h.do(&hc, req, cancel)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	h.status = resp.StatusCode

	if err := h.emitHeaders(resp); err != nil {
		return err
	}

	h.mu.Lock()
	h.progress.DownloadTotal = max(resp.ContentLength, 0)
	h.mu.Unlock()

	buf := make([]byte, h.chunk)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			if h.onBytes != nil && h.onBytes(buf[:n]) != n {
				return ErrWriteAborted
			}
			h.count(func(c *Progress) { c.Downloaded += int64(n) })
			if h.tick() {
				return ErrProgressAborted
			}
		}

		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return fmt.Errorf("reading body: %w", rerr)
		}
	}

	// Transfers without a body still report their final counters once.
	if h.pending() && h.tick() {
		return ErrProgressAborted
	}

	return nil
}

// do runs the round trip on its own goroutine so upload progress reaches
// the sink on the goroutine that called Perform.
func (h *httpHandle) do(hc *http.Client, req *http.Request, cancel context.CancelFunc) (*http.Response, error) {
	type result struct {
		resp *http.Response
		err  error
	}

	done := make(chan result, 1)
	go func() {
		resp, err := hc.Do(req)
		done <- result{resp: resp, err: err}
	}()

	for {
		select {
		case <-h.uploaded:
			if h.tick() {
				cancel()
				if res := <-done; res.resp != nil {
					res.resp.Body.Close()
				}
				return nil, ErrProgressAborted
			}

		case res := <-done:
			if res.err != nil {
				return nil, fmt.Errorf("http do: %w", res.err)
			}
			return res.resp, nil
		}
	}
}

func (h *httpHandle) request(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if h.opts.HasBody() {
		body = &uploadReader{r: bytes.NewReader(h.opts.Body), h: h}
		h.mu.Lock()
		h.progress.UploadTotal = int64(len(h.opts.Body))
		h.mu.Unlock()
	}

	req, err := http.NewRequestWithContext(ctx, h.opts.Method, h.url, body)
	if err != nil {
		return nil, fmt.Errorf("instantiating request: %w", err)
	}

	if h.opts.HasBody() {
		payload := h.opts.Body
		req.ContentLength = int64(len(payload))
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
	}

	for _, line := range h.opts.Headers {
		if k, v, ok := header.Split([]byte(line)); ok {
			req.Header.Add(k, v)
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return req, nil
}

// emitHeaders feeds the status line, every header line and the blank
// terminator to the header sink. net/http drops wire order, so names are
// emitted sorted and the values of one name keep their received order.
func (h *httpHandle) emitHeaders(resp *http.Response) error {
	if h.onHeader == nil {
		return nil
	}

	lines := []string{fmt.Sprintf("%s %s\r\n", resp.Proto, resp.Status)}
	for _, k := range slices.Sorted(maps.Keys(resp.Header)) {
		for _, v := range resp.Header[k] {
			lines = append(lines, k+": "+v+"\r\n")
		}
	}
	lines = append(lines, "\r\n")

	for _, line := range lines {
		if h.onHeader([]byte(line)) != len(line) {
			return ErrHeaderAborted
		}
	}

	return nil
}

// count applies update to the counters.
func (h *httpHandle) count(update func(*Progress)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	update(&h.progress)
}

// pending reports whether the sink has not seen the current counters yet.
func (h *httpHandle) pending() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return !h.ticked || h.reported != h.progress
}

// tick reports the current counters to the progress sink. It must only be
// called from Perform's goroutine.
func (h *httpHandle) tick() bool {
	h.mu.Lock()
	p, fn := h.progress, h.onProgress
	h.reported, h.ticked = p, true
	h.mu.Unlock()

	if fn == nil {
		return false
	}
	return fn(p)
}

// uploadReader counts request body bytes and wakes Perform to report them.
type uploadReader struct {
	r *bytes.Reader
	h *httpHandle
}

func (u *uploadReader) Read(p []byte) (int, error) {
	n, err := u.r.Read(p)
	if n > 0 {
		u.h.count(func(c *Progress) { c.Uploaded += int64(n) })
		select {
		case u.h.uploaded <- struct{}{}:
		default:
		}
	}
	return n, err
}

func redirectPolicy(opts *config.Options) func(*http.Request, []*http.Request) error {
	follow, limit := opts.FollowRedirects, opts.MaxRedirects

	return func(_ *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if limit >= 0 && len(via) > limit {
			return fmt.Errorf("%w: %d", ErrTooManyRedirects, limit)
		}
		return nil
	}
}
