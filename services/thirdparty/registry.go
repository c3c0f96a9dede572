// Package thirdparty tracks the lifecycle of external client SDKs (PayPal,
// Stripe) that pages depend on. A Registry is created once per process and
// handed to every consumer; each named client is loaded at most once.
package thirdparty

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

type State int

const (
	StateNotRequested State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "not_requested"
	}
}

// ErrUnavailable is returned when a loader completes without a handle.
var ErrUnavailable = errors.New("client unavailable")

// Result is either ready (Handle set, Reason nil) or unavailable (Reason set).
type Result struct {
	Handle interface{}
	Reason error
}

func (r Result) Ready() bool {
	return r.Reason == nil && r.Handle != nil
}

type LoadFunc func(ctx context.Context) (interface{}, error)

// Task is a single, cancellable load of a named client.
type Task struct {
	name   string
	done   chan struct{}
	result Result
	cancel context.CancelFunc
}

func (t *Task) Name() string {
	return t.name
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) State() State {
	select {
	case <-t.done:
		if t.result.Ready() {
			return StateReady
		}
		return StateFailed
	default:
		return StateLoading
	}
}

// Result returns the outcome without blocking. ok is false while loading.
func (t *Task) Result() (Result, bool) {
	select {
	case <-t.done:
		return t.result, true
	default:
		return Result{}, false
	}
}

// Wait blocks until the load finishes or ctx is done. A ctx error means the
// client is still loading, not that it failed.
func (t *Task) Wait(ctx context.Context) (Result, error) {
	select {
	case <-t.done:
		return t.result, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Cancel aborts the load if it is still in flight.
func (t *Task) Cancel() {
	t.cancel()
}

func (t *Task) run(ctx context.Context, load LoadFunc) {
	defer t.cancel()

	ch := make(chan Result, 1)
	go func() {
		handle, err := load(ctx)
		if err == nil && handle == nil {
			err = ErrUnavailable
		}
		ch <- Result{Handle: handle, Reason: err}
	}()

	var res Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = Result{Reason: ctx.Err()}
	}

	if res.Reason != nil {
		res.Handle = nil
		res.Reason = fmt.Errorf("%s: %w", t.name, res.Reason)
	}
	t.result = res
	close(t.done)
}

type Registry struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	timeout time.Duration
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewRegistry creates a registry whose loads are each bounded by timeout.
// A zero timeout leaves loads unbounded.
func NewRegistry(timeout time.Duration) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		tasks:   make(map[string]*Task),
		timeout: timeout,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Request starts loading name unless a task for it already exists, in which
// case the existing task is returned and load is ignored. Failed tasks are
// not retried.
func (r *Registry) Request(name string, load LoadFunc) *Task {
	r.mu.Lock()
	if t, ok := r.tasks[name]; ok {
		r.mu.Unlock()
		return t
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if r.timeout > 0 {
		ctx, cancel = context.WithTimeout(r.ctx, r.timeout)
	} else {
		ctx, cancel = context.WithCancel(r.ctx)
	}

	t := &Task{
		name:   name,
		done:   make(chan struct{}),
		cancel: cancel,
	}
	r.tasks[name] = t
	r.mu.Unlock()

	log.Printf("Loading third-party client %s", name)
	go t.run(ctx, load)
	return t
}

func (r *Registry) Lookup(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[name]
	return t, ok
}

func (r *Registry) State(name string) State {
	t, ok := r.Lookup(name)
	if !ok {
		return StateNotRequested
	}
	return t.State()
}

// States returns a snapshot of every requested client, keyed by name.
func (r *Registry) States() map[string]string {
	r.mu.Lock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	r.mu.Unlock()
	sort.Strings(names)

	out := make(map[string]string, len(names))
	for _, name := range names {
		out[name] = r.State(name).String()
	}
	return out
}

// Preload requests every client concurrently and waits for all of them or
// for ctx. The first load failure is returned; the other clients are still
// loaded.
func (r *Registry) Preload(ctx context.Context, loads map[string]LoadFunc) error {
	var g errgroup.Group
	for name, load := range loads {
		task := r.Request(name, load)
		g.Go(func() error {
			res, err := task.Wait(ctx)
			if err != nil {
				return fmt.Errorf("%s still loading: %w", task.Name(), err)
			}
			if !res.Ready() {
				log.Printf("Third-party client %s unavailable: %v", task.Name(), res.Reason)
				return res.Reason
			}
			log.Printf("Third-party client %s ready", task.Name())
			return nil
		})
	}
	return g.Wait()
}

// Close cancels all in-flight loads.
func (r *Registry) Close() {
	r.cancel()
}
