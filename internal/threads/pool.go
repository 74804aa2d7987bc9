// Package threads manages the search worker pool: how many workers a search
// runs, whether a search is in progress, and binding workers to CPUs.
package threads

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrSearching is returned by Search while another search is running.
	ErrSearching = errors.New("threads: search already in progress")
	// ErrSize is returned for a pool size below one.
	ErrSize = errors.New("threads: pool size must be at least 1")
)

// Func is the body run by every worker of a search. id is in [0, Size()).
type Func func(ctx context.Context, id int) error

// Pool runs searches on a fixed number of workers and tracks whether a search
// is in progress. Workers share whatever the Func closes over (typically one
// transposition table).
type Pool struct {
	mu   sync.Mutex
	size int
	cur  *search

	stopFlag atomic.Bool
}

type search struct {
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// New creates a pool with n workers.
func New(n int) (*Pool, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: %d", ErrSize, n)
	}
	return &Pool{size: n}, nil
}

// Size returns the number of workers a search runs.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Set changes the number of workers. It waits for a running search first.
func (p *Pool) Set(n int) error {
	if n < 1 {
		return fmt.Errorf("%w: %d", ErrSize, n)
	}
	p.WaitForSearchFinished()

	p.mu.Lock()
	p.size = n
	p.mu.Unlock()
	return nil
}

// Search runs fn on every worker and blocks until all of them return.
func (p *Pool) Search(ctx context.Context, fn Func) error {
	s, err := p.start(ctx, fn)
	if err != nil {
		return err
	}
	<-s.done
	return s.err
}

func (p *Pool) start(ctx context.Context, fn Func) (*search, error) {
	p.mu.Lock()
	if p.cur != nil {
		p.mu.Unlock()
		return nil, ErrSearching
	}
	ctx, cancel := context.WithCancel(ctx)
	s := &search{done: make(chan struct{}), cancel: cancel}
	p.cur = s
	n := p.size
	p.stopFlag.Store(false)
	p.mu.Unlock()

	go func() {
		g, gctx := errgroup.WithContext(ctx)
		for id := 0; id < n; id++ {
			g.Go(func() error { return fn(gctx, id) })
		}
		err := g.Wait()
		cancel()

		p.mu.Lock()
		s.err = err
		p.cur = nil
		p.mu.Unlock()
		close(s.done)
	}()

	return s, nil
}

// Stop asks the running search, if any, to finish. It does not wait.
func (p *Pool) Stop() {
	p.stopFlag.Store(true)

	p.mu.Lock()
	s := p.cur
	p.mu.Unlock()
	if s != nil {
		s.cancel()
	}
}

// Stopped reports whether Stop was called since the current search started.
// Workers poll it alongside their context in tight loops.
func (p *Pool) Stopped() bool {
	return p.stopFlag.Load()
}

// Searching reports whether a search is in progress.
func (p *Pool) Searching() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cur != nil
}

// WaitForSearchFinished blocks until no search is in progress.
func (p *Pool) WaitForSearchFinished() {
	p.mu.Lock()
	s := p.cur
	p.mu.Unlock()
	if s != nil {
		<-s.done
	}
}
