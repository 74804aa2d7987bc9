// Package tt implements the transposition table: a fixed-size array of
// 16 byte entries indexed by position key, shared by all search workers
// without locks.
//
// A hit is a hint, not a proof. Only 16 bits of the key are stored, so
// different positions that land in the same bucket with the same tag are
// reported as found, and concurrent saves may leave an entry mixing fields
// from different positions. Callers use hits for pruning and move ordering
// and must tolerate both.
package tt

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"github.com/hailam/chesshash/internal/largepage"
)

// EntrySize is the size of an Entry in bytes.
const EntrySize = int(unsafe.Sizeof(Entry{}))

// MaxHashMB is the largest table size accepted, in megabytes: 32 TiB on
// 64-bit platforms, 1 GiB on 32-bit ones.
const MaxHashMB = 1 << (10 + 15*(^uint(0)>>63))

// ErrSize is returned for a table size outside [1, MaxHashMB] megabytes.
var ErrSize = errors.New("tt: invalid size")

// exit terminates the process when the table cannot be allocated.
var exit = os.Exit

// ThreadCounter reports the configured number of worker threads.
type ThreadCounter interface {
	Threads() int
}

// SearchWaiter blocks until no search is using the table.
type SearchWaiter interface {
	WaitForSearchFinished()
}

// Table is the transposition table. Probe and Save may be called from any
// number of goroutines at once. Resize, Clear and Close require that no
// search is running.
type Table struct {
	entries []Entry
	region  *largepage.Region
	sizeMB  int

	threads  ThreadCounter
	searches SearchWaiter
	log      *slog.Logger
	alloc    func(int) (*largepage.Region, error)
}

// Option configures a Table.
type Option func(*Table)

// WithThreads sets where Clear reads its parallelism from. Without it Clear
// runs on one goroutine.
func WithThreads(tc ThreadCounter) Option {
	return func(t *Table) { t.threads = tc }
}

// WithSearchWaiter makes Resize wait for the running search to finish.
func WithSearchWaiter(sw SearchWaiter) Option {
	return func(t *Table) { t.searches = sw }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) { t.log = l }
}

// New returns an empty table. It holds no entries until Resize is called.
func New(opts ...Option) *Table {
	t := &Table{
		log:   slog.Default(),
		alloc: largepage.Alloc,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Resize sets the size of the table, measured in megabytes, and clears it.
// If the memory cannot be allocated the error is logged and the process
// exits: there is no reduced-size fallback.
func (t *Table) Resize(mbSize int) {
	if err := t.TryResize(mbSize); err != nil {
		t.log.Error("failed to allocate transposition table", "mb", mbSize, "error", err)
		exit(1)
	}
}

// TryResize is Resize without the exit. An out-of-range size leaves the
// table untouched; if the allocation fails the previous storage has already
// been released and the table is empty.
func (t *Table) TryResize(mbSize int) error {
	if mbSize < 1 || mbSize > MaxHashMB {
		return fmt.Errorf("%w: %d MB", ErrSize, mbSize)
	}

	if t.searches != nil {
		t.searches.WaitForSearchFinished()
	}

	if err := t.release(); err != nil {
		t.log.Warn("releasing transposition table", "error", err)
	}

	count := (mbSize << 20) / EntrySize
	region, err := t.alloc(count * EntrySize)
	if err != nil {
		return fmt.Errorf("tt: allocate %d MB: %w", mbSize, err)
	}

	t.region = region
	t.entries = unsafe.Slice((*Entry)(unsafe.Pointer(unsafe.SliceData(region.Bytes()))), count)
	t.sizeMB = mbSize
	t.log.Debug("transposition table resized",
		"mb", mbSize, "entries", count, "huge_pages", region.Huge(), "heap", region.Heap())

	t.Clear()
	return nil
}

// Close releases the table's memory. The table is empty afterwards.
func (t *Table) Close() error {
	return t.release()
}

func (t *Table) release() error {
	t.entries = nil
	t.sizeMB = 0
	err := t.region.Free()
	t.region = nil
	return err
}

// Len returns the number of entries.
func (t *Table) Len() int { return len(t.entries) }

// SizeMB returns the size requested by the last successful resize.
func (t *Table) SizeMB() int { return t.sizeMB }

// Entry returns the bucket key maps to.
func (t *Table) Entry(key uint64) *Entry {
	return &t.entries[Index(key, uint64(len(t.entries)))]
}

// Probe looks up key. It returns the bucket key maps to and whether that
// bucket holds a non-empty entry whose tag matches. On a miss the returned
// entry is the one to Save into later.
func (t *Table) Probe(key uint64) (*Entry, bool) {
	e := t.Entry(key)
	w := e.data.Load()
	return e, dataTag(w) == keyTag(key) && dataDepth8(w) != 0
}

// hashFullSample is the number of leading entries HashFull inspects.
const hashFullSample = 1000

// HashFull returns an approximation of the table occupation in permille,
// counting non-empty entries among the first 1000.
func (t *Table) HashFull() int {
	n := min(hashFullSample, len(t.entries))
	if n == 0 {
		return 0
	}

	cnt := 0
	for i := range n {
		if !t.entries[i].empty() {
			cnt++
		}
	}
	return cnt * 1000 / n
}
