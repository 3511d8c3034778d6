package async

import (
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrGroupClosed is returned when starting a request on a closed Group.
	ErrGroupClosed = errors.New("worker group closed")
	// ErrGroupFull is returned when the in-flight limit is reached.
	ErrGroupFull = errors.New("worker group at capacity")
)

// Group tracks the workers of a client. A nil *Group runs workers
// untracked and without limit.
type Group struct {
	wg      sync.WaitGroup
	mu      sync.Mutex
	sem     chan struct{}
	closed  bool
	running map[uuid.UUID]*Request
}

// NewGroup creates a Group admitting at most maxInFlight concurrent
// workers. If maxInFlight <= 0, concurrency is unlimited.
func NewGroup(maxInFlight int) *Group {
	g := Group{
		running: make(map[uuid.UUID]*Request),
	}
	if maxInFlight > 0 {
		g.sem = make(chan struct{}, maxInFlight)
	}

	return &g
}

// Len returns the number of running workers.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	return len(g.running)
}

// Wait blocks until every worker has exited.
func (g *Group) Wait() {
	g.wg.Wait()
}

// Close refuses new workers, cancels the running ones and waits for them
// to exit. Requests still need to be disposed by their owners.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	running := slices.Collect(maps.Values(g.running))
	g.mu.Unlock()

	for _, r := range running {
		_ = r.Cancel()
	}

	g.wg.Wait()
}

// spawn starts work on a new goroutine bound to r. The worker's slot is
// released before r's join handle is closed, so a joined request never
// holds capacity.
func (g *Group) spawn(r *Request, work func() exitCode) error {
	if g == nil {
		go func() { r.finish(work()) }()
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return ErrGroupClosed
	}

	if g.sem != nil {
		select {
		case g.sem <- struct{}{}:
		default:
			return ErrGroupFull
		}
	}

	g.running[r.id] = r
	g.wg.Add(1)

	go func() {
		defer g.wg.Done()

		code := work()
		g.release(r)
		r.finish(code)
	}()

	return nil
}

func (g *Group) release(r *Request) {
	g.mu.Lock()
	delete(g.running, r.id)
	g.mu.Unlock()

	if g.sem != nil {
		<-g.sem
	}
}
