package async_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/adamwoolhether/easyhttp/client/async"
	"github.com/adamwoolhether/easyhttp/client/callback"
	"github.com/adamwoolhether/easyhttp/client/config"
	"github.com/adamwoolhether/easyhttp/client/errs"
)

// blockingEnv returns an Env whose transfers wait for ctx to end.
func blockingEnv(g *async.Group) async.Env {
	return async.Env{
		Group: g,
		Factory: fakeFactory(http.StatusOK, func(ctx context.Context, s sinks) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	}
}

func TestGroup_MaxInFlight(t *testing.T) {
	g := async.NewGroup(1)
	defer g.Close()

	first := start(t, "http://fake", parse(t, nil, nil), blockingEnv(g))

	reg := callback.NewRegistry()
	opts := parse(t, config.Raw{"on_progress": func(callback.Progress) bool { return false }}, reg)

	_, err := async.Start("http://fake", opts, blockingEnv(g))
	if !errors.Is(err, errs.ErrWorkerSpawnFailed) {
		t.Fatalf("Start = %v, want ErrWorkerSpawnFailed", err)
	}
	if !errors.Is(err, async.ErrGroupFull) {
		t.Fatalf("Start = %v, want ErrGroupFull", err)
	}
	if reg.Len() != 0 {
		t.Error("options not released after spawn failure")
	}

	if err := first.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	waitDone(t, first)

	// The slot is free once the first worker has been joined.
	second := start(t, "http://fake", parse(t, nil, nil), blockingEnv(g))
	if g.Len() != 1 {
		t.Errorf("Len() = %d, want 1", g.Len())
	}
	_ = second.Cancel()
}

func TestGroup_Close(t *testing.T) {
	g := async.NewGroup(0)

	reqs := make([]*async.Request, 3)
	for i := range reqs {
		reqs[i] = start(t, "http://fake", parse(t, nil, nil), blockingEnv(g))
	}

	closed := make(chan struct{})
	go func() {
		g.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return in time")
	}

	for _, r := range reqs {
		if _, err := r.Response(); !errors.Is(err, errs.ErrCancelled) {
			t.Errorf("Response = %v, want ErrCancelled", err)
		}
	}
	if g.Len() != 0 {
		t.Errorf("Len() = %d after Close, want 0", g.Len())
	}

	_, err := async.Start("http://fake", parse(t, nil, nil), blockingEnv(g))
	if !errors.Is(err, async.ErrGroupClosed) || !errors.Is(err, errs.ErrWorkerSpawnFailed) {
		t.Fatalf("Start after Close = %v, want ErrGroupClosed", err)
	}
}
