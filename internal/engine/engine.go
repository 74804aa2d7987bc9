// Package engine ties the option registry, the worker pool and the
// transposition table together and runs searches over them.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hailam/chesshash/internal/board"
	"github.com/hailam/chesshash/internal/options"
	"github.com/hailam/chesshash/internal/threads"
	"github.com/hailam/chesshash/internal/tt"
)

// Option limits.
const (
	MaxThreads     = 1024
	DefaultHashMB  = 16
	DefaultThreads = 1
)

// Config is the engine's startup configuration.
type Config struct {
	HashMB  int
	Threads int
}

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Position int // Index of the bench position being searched
	Depth    int
	Score    int
	Nodes    uint64
	Hits     uint64 // Transposition table hits
	Time     time.Duration
	Move     board.Move
	HashFull int // Permille of hash table used
}

// NPS returns nodes per second.
func (i SearchInfo) NPS() uint64 {
	ms := uint64(i.Time.Milliseconds())
	if ms == 0 {
		return i.Nodes * 1000
	}
	return i.Nodes * 1000 / ms
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth     int    // Maximum depth (0 = default)
	Nodes     uint64 // Maximum nodes (0 = no limit)
	Positions int    // Number of root positions (0 = default)
	Seed      uint64 // Key stream seed (0 = fixed default)
}

// Engine owns the shared search state.
type Engine struct {
	opts *options.Registry
	pool *threads.Pool
	tt   *tt.Table
	log  *slog.Logger

	busy    sync.Mutex // Held for the duration of a Bench
	stopped atomic.Bool

	// Callbacks
	OnInfo func(SearchInfo)
}

// New creates an engine with cfg's table size and thread count. Zero fields
// take the defaults.
func New(cfg Config, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	if cfg.HashMB == 0 {
		cfg.HashMB = DefaultHashMB
	}
	if cfg.Threads == 0 {
		cfg.Threads = DefaultThreads
	}
	if cfg.Threads < 1 || cfg.Threads > MaxThreads {
		return nil, fmt.Errorf("engine: threads %d out of range [1, %d]", cfg.Threads, MaxThreads)
	}

	pool, err := threads.New(cfg.Threads)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		opts: options.New(),
		pool: pool,
		log:  log,
	}
	e.tt = tt.New(
		tt.WithThreads(e.opts),
		tt.WithSearchWaiter(e),
		tt.WithLogger(log.With("component", "tt")),
	)

	e.opts.AddSpin(options.Threads, cfg.Threads, 1, MaxThreads, e.setThreads)
	e.opts.AddSpin(options.Hash, cfg.HashMB, 1, tt.MaxHashMB, e.setHash)
	e.opts.AddButton(options.ClearHash, e.clearHash)

	if err := e.tt.TryResize(cfg.HashMB); err != nil {
		return nil, err
	}
	log.Info("engine ready", "hash_mb", e.tt.SizeMB(), "threads", cfg.Threads, "entries", e.tt.Len())
	return e, nil
}

func (e *Engine) setThreads(n int) error {
	e.WaitForSearchFinished()
	if err := e.pool.Set(n); err != nil {
		return err
	}
	// Reclear so every worker's NUMA node touches its slice of the table
	e.tt.Clear()
	e.log.Debug("threads changed", "threads", e.pool.Size())
	return nil
}

func (e *Engine) setHash(mb int) error {
	e.tt.Resize(mb)
	e.log.Debug("hash resized", "mb", e.tt.SizeMB(), "entries", e.tt.Len())
	return nil
}

func (e *Engine) clearHash() error {
	e.NewGame()
	return nil
}

// Options returns the engine's option registry.
func (e *Engine) Options() *options.Registry { return e.opts }

// Table returns the transposition table.
func (e *Engine) Table() *tt.Table { return e.tt }

// SetOption sets a named option, running its hook.
func (e *Engine) SetOption(name, value string) error {
	return e.opts.Set(name, value)
}

// HashFull returns the table occupation in permille.
func (e *Engine) HashFull() int { return e.tt.HashFull() }

// NewGame waits for any running search and clears the table.
func (e *Engine) NewGame() {
	e.WaitForSearchFinished()
	e.tt.Clear()
}

// Stop asks the running search to finish. It does not wait.
func (e *Engine) Stop() {
	e.stopped.Store(true)
	e.pool.Stop()
}

// Searching reports whether a search is in progress.
func (e *Engine) Searching() bool {
	if e.pool.Searching() {
		return true
	}
	if e.busy.TryLock() {
		e.busy.Unlock()
		return false
	}
	return true
}

// WaitForSearchFinished blocks until no search is in progress.
func (e *Engine) WaitForSearchFinished() {
	e.busy.Lock()
	e.busy.Unlock()
}

// Close stops any search and releases the table.
func (e *Engine) Close() error {
	e.Stop()
	e.WaitForSearchFinished()
	return e.tt.Close()
}
