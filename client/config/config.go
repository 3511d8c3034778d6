// Package config parses the per-request configuration bundle.
//
// A request is configured with a [Raw] map, the shape an embedding host
// produces from its own option tables:
//
//	opts, err := config.Parse(config.Raw{
//		"method":  "POST",
//		"timeout": 5,
//		"headers": map[string]string{"A": "1"},
//	}, registry)
//	defer opts.Close()
//
// The resulting [Options] are read-only for the lifetime of one request.
package config

import (
	"fmt"
	"io"
	"maps"
	"math"
	"net/http"
	"slices"
	"sync"
	"time"

	"golang.org/x/net/http/httpguts"

	"github.com/adamwoolhether/easyhttp/client/callback"
	"github.com/adamwoolhether/easyhttp/client/errs"
	"github.com/adamwoolhether/easyhttp/client/header"
)

// Recognized keys of a [Raw] configuration.
const (
	KeyMethod          = "method"
	KeyBody            = "body"
	KeyTimeout         = "timeout"
	KeyFollowRedirects = "follow_redirects"
	KeyMaxRedirects    = "max_redirects"
	KeyOutputFile      = "output_file"
	KeyHeaders         = "headers"
	KeyOnData          = "on_data"
	KeyOnProgress      = "on_progress"
)

// maxHeaderBytes caps the serialized size of the custom header list.
const maxHeaderBytes = 64 << 10 // 64KB

// Raw is an unparsed request configuration. Unknown keys are ignored.
type Raw map[string]any

// Options is the parsed configuration of a single request.
// Fields must not be modified after Parse returns.
type Options struct {
	Method          string        `json:"method" validate:"required,http_method"`
	Body            []byte        `json:"body"`
	Timeout         time.Duration `json:"timeout" validate:"gte=0"`
	FollowRedirects bool          `json:"follow_redirects"`
	MaxRedirects    int           `json:"max_redirects" validate:"gte=-1"`

	// Output is a caller-owned alternate sink. OutputPath names a file the
	// engine creates and owns. When either is set, response bytes are not
	// accumulated in memory.
	Output     io.Writer `json:"-" validate:"-"`
	OutputPath string    `json:"output_file"`

	// Headers holds the custom request headers serialized as "Key: Value".
	Headers []string `json:"-" validate:"-"`

	OnData     callback.Handle `json:"-" validate:"-"`
	OnProgress callback.Handle `json:"-" validate:"-"`
	Host       callback.Host   `json:"-" validate:"-"`

	owned []callback.Handle
	once  sync.Once
}

// Default returns Options holding the documented defaults.
func Default() *Options {
	return &Options{
		Method:       http.MethodGet,
		MaxRedirects: -1,
	}
}

// HasBody reports whether a request payload was configured.
func (o *Options) HasBody() bool { return o.Body != nil }

// HasOutput reports whether response bytes go to an alternate sink.
func (o *Options) HasOutput() bool { return o.Output != nil || o.OutputPath != "" }

// HasDataCallback reports whether a data callback handle is registered.
func (o *Options) HasDataCallback() bool { return o.OnData != callback.Nil }

// HasProgressCallback reports whether a progress callback handle is registered.
func (o *Options) HasProgressCallback() bool { return o.OnProgress != callback.Nil }

// Close releases the custom header list and every callback handle Parse
// registered on the caller's behalf. It runs its release exactly once;
// later calls are no-ops.
func (o *Options) Close() error {
	o.once.Do(func() {
		o.Headers = nil
		for _, h := range o.owned {
			o.Host.Release(h)
		}
		o.owned = nil
	})

	return nil
}

// registrar is implemented by hosts able to turn Go functions into handles.
type registrar interface {
	RegisterData(fn callback.DataFunc) callback.Handle
	RegisterProgress(fn callback.ProgressFunc) callback.Handle
}

// Parse builds Options from raw. host is required only when raw carries
// callbacks; Go functions are registered with it and owned by the returned
// Options. On error nothing stays registered.
func Parse(raw Raw, host callback.Host) (*Options, error) {
	o := Default()
	o.Host = host

	var successful bool
	defer func() {
		if !successful && o.Host != nil {
			for _, h := range o.owned {
				o.Host.Release(h)
			}
		}
	}()

	if v, ok := raw[KeyMethod]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, invalid(KeyMethod, "must be a string, got %T", v)
		}
		o.Method = s
	}

	if v, ok := raw[KeyBody]; ok && v != nil {
		switch b := v.(type) {
		case string:
			o.Body = []byte(b)
		case []byte:
			o.Body = slices.Clone(b)
			if o.Body == nil {
				o.Body = []byte{}
			}
		default:
			return nil, invalid(KeyBody, "must be a string or []byte, got %T", v)
		}
	}

	if v, ok := raw[KeyTimeout]; ok && v != nil {
		d, err := parseTimeout(v)
		if err != nil {
			return nil, err
		}
		o.Timeout = d
	}

	if v, ok := raw[KeyFollowRedirects]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return nil, invalid(KeyFollowRedirects, "must be a bool, got %T", v)
		}
		o.FollowRedirects = b
	}

	if v, ok := raw[KeyMaxRedirects]; ok && v != nil {
		n, ok := toInt(v)
		if !ok {
			return nil, invalid(KeyMaxRedirects, "must be an integer, got %T", v)
		}
		o.MaxRedirects = int(n)
	}

	if v, ok := raw[KeyOutputFile]; ok && v != nil {
		switch out := v.(type) {
		case string:
			if out == "" {
				return nil, invalid(KeyOutputFile, "path must not be empty")
			}
			o.OutputPath = out
		case io.Writer:
			o.Output = out
		default:
			return nil, invalid(KeyOutputFile, "must be a path or io.Writer, got %T", v)
		}
	}

	if v, ok := raw[KeyHeaders]; ok && v != nil {
		lines, err := serializeHeaders(v)
		if err != nil {
			return nil, err
		}
		o.Headers = lines
	}

	if v, ok := raw[KeyOnData]; ok && v != nil {
		h, err := o.dataHandle(v)
		if err != nil {
			return nil, err
		}
		o.OnData = h
	}

	if v, ok := raw[KeyOnProgress]; ok && v != nil {
		h, err := o.progressHandle(v)
		if err != nil {
			return nil, err
		}
		o.OnProgress = h
	}

	if err := check(o); err != nil {
		return nil, fmt.Errorf("%w: %w", errs.ErrInvalidOptions, err)
	}

	successful = true

	return o, nil
}

func (o *Options) dataHandle(v any) (callback.Handle, error) {
	var fn callback.DataFunc
	switch cb := v.(type) {
	case callback.Handle:
		return o.external(KeyOnData, cb)
	case callback.DataFunc:
		fn = cb
	case func([]byte) callback.DataResult:
		fn = cb
	default:
		return callback.Nil, invalid(KeyOnData, "must be a callback handle or function, got %T", v)
	}

	reg, err := o.registrar(KeyOnData)
	if err != nil {
		return callback.Nil, err
	}

	h := reg.RegisterData(fn)
	o.owned = append(o.owned, h)

	return h, nil
}

func (o *Options) progressHandle(v any) (callback.Handle, error) {
	var fn callback.ProgressFunc
	switch cb := v.(type) {
	case callback.Handle:
		return o.external(KeyOnProgress, cb)
	case callback.ProgressFunc:
		fn = cb
	case func(callback.Progress) bool:
		fn = cb
	default:
		return callback.Nil, invalid(KeyOnProgress, "must be a callback handle or function, got %T", v)
	}

	reg, err := o.registrar(KeyOnProgress)
	if err != nil {
		return callback.Nil, err
	}

	h := reg.RegisterProgress(fn)
	o.owned = append(o.owned, h)

	return h, nil
}

// external accepts a caller-owned handle; it is never released by Close.
func (o *Options) external(key string, h callback.Handle) (callback.Handle, error) {
	if o.Host == nil {
		return callback.Nil, invalid(key, "callback handle given without a host")
	}
	if h == callback.Nil {
		return callback.Nil, invalid(key, "nil callback handle")
	}
	return h, nil
}

func (o *Options) registrar(key string) (registrar, error) {
	if o.Host == nil {
		return nil, invalid(key, "callback function given without a host")
	}
	reg, ok := o.Host.(registrar)
	if !ok {
		return nil, invalid(key, "host %T cannot register functions", o.Host)
	}
	return reg, nil
}

// serializeHeaders turns the headers option into "Key: Value" lines.
// Maps are emitted in key order; ordered collections keep their order.
func serializeHeaders(v any) ([]string, error) {
	var pairs [][2]string

	switch hdr := v.(type) {
	case map[string]string:
		for _, k := range slices.Sorted(maps.Keys(hdr)) {
			pairs = append(pairs, [2]string{k, hdr[k]})
		}
	case map[string][]string:
		for _, k := range slices.Sorted(maps.Keys(hdr)) {
			for _, val := range hdr[k] {
				pairs = append(pairs, [2]string{k, val})
			}
		}
	case http.Header:
		return serializeHeaders(map[string][]string(hdr))
	case map[string]any:
		for _, k := range slices.Sorted(maps.Keys(hdr)) {
			s, ok := stringify(hdr[k])
			if !ok {
				return nil, invalidHeaders("value of %q must be a string or number, got %T", k, hdr[k])
			}
			pairs = append(pairs, [2]string{k, s})
		}
	case *header.Headers:
		for k, val := range hdr.All() {
			pairs = append(pairs, [2]string{k, val})
		}
	case header.Headers:
		return serializeHeaders(&hdr)
	default:
		return nil, invalidHeaders("must be a map, got %T", v)
	}

	lines := make([]string, 0, len(pairs))
	var size int
	for _, kv := range pairs {
		if !httpguts.ValidHeaderFieldName(kv[0]) {
			return nil, invalidHeaders("invalid field name %q", kv[0])
		}
		if !httpguts.ValidHeaderFieldValue(kv[1]) {
			return nil, invalidHeaders("invalid value for %q", kv[0])
		}

		line := kv[0] + ": " + kv[1]
		size += len(line)
		if size > maxHeaderBytes {
			return nil, fmt.Errorf("serializing headers beyond %d bytes: %w", maxHeaderBytes, errs.ErrOutOfMemory)
		}
		lines = append(lines, line)
	}

	return lines, nil
}

func parseTimeout(v any) (time.Duration, error) {
	if d, ok := v.(time.Duration); ok {
		return d, nil
	}

	n, ok := toInt(v)
	if !ok {
		return 0, invalid(KeyTimeout, "must be an integer number of seconds, got %T", v)
	}
	if n > int64(math.MaxInt64/time.Second) {
		return 0, invalid(KeyTimeout, "%d seconds overflows", n)
	}

	return time.Duration(n) * time.Second, nil
}

// toInt accepts every integer kind and floats holding an integral value.
func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), n <= math.MaxInt64
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		return int64(n), n <= math.MaxInt64
	case float32:
		return toInt(float64(n))
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func stringify(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case fmt.Stringer:
		return s.String(), true
	}
	if n, ok := toInt(v); ok {
		return fmt.Sprint(n), true
	}
	if f, ok := v.(float64); ok {
		return fmt.Sprint(f), true
	}
	return "", false
}

// invalid rejects the option stored under key.
func invalid(key, format string, args ...any) error {
	return fmt.Errorf("%w: %w", errs.ErrInvalidOptions, errs.NewFieldError(key, fmt.Errorf(format, args...)))
}

func invalidHeaders(format string, args ...any) error {
	return fmt.Errorf("%w: %w: %w", errs.ErrInvalidOptions, errs.ErrInvalidHeaders, errs.NewFieldError(KeyHeaders, fmt.Errorf(format, args...)))
}
