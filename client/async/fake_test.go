package async_test

import (
	"context"
	"testing"
	"time"

	"github.com/adamwoolhether/easyhttp/client/async"
	"github.com/adamwoolhether/easyhttp/client/callback"
	"github.com/adamwoolhether/easyhttp/client/config"
	"github.com/adamwoolhether/easyhttp/client/transport"
)

// sinks are the callbacks registered on a fakeHandle.
type sinks struct {
	bytes    transport.ByteSink
	header   transport.HeaderSink
	progress transport.ProgressSink
}

// fakeHandle runs perform instead of a network transfer.
type fakeHandle struct {
	status  int
	perform func(ctx context.Context, s sinks) error
	s       sinks
}

func (f *fakeHandle) Configure(string, *config.Options) error   { return nil }
func (f *fakeHandle) SetByteSink(fn transport.ByteSink)         { f.s.bytes = fn }
func (f *fakeHandle) SetHeaderSink(fn transport.HeaderSink)     { f.s.header = fn }
func (f *fakeHandle) SetProgressSink(fn transport.ProgressSink) { f.s.progress = fn }
func (f *fakeHandle) Perform(ctx context.Context) error         { return f.perform(ctx, f.s) }
func (f *fakeHandle) StatusCode() int                           { return f.status }
func (f *fakeHandle) Close() error                              { return nil }

func fakeFactory(status int, perform func(ctx context.Context, s sinks) error) transport.Factory {
	return transport.FactoryFunc(func() (transport.Handle, error) {
		return &fakeHandle{status: status, perform: perform}, nil
	})
}

func parse(t *testing.T, raw config.Raw, host callback.Host) *config.Options {
	t.Helper()

	opts, err := config.Parse(raw, host)
	if err != nil {
		t.Fatalf("parse options: %v", err)
	}

	return opts
}

func start(t *testing.T, url string, opts *config.Options, env async.Env) *async.Request {
	t.Helper()

	r, err := async.Start(url, opts, env)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(r.Dispose)

	return r
}

func waitDone(t *testing.T, r *async.Request) {
	t.Helper()

	select {
	case <-r.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not exit in time")
	}
}
