package tt

import (
	"sync/atomic"

	"github.com/hailam/chesshash/internal/board"
)

// Bound indicates what the stored value represents.
type Bound uint8

const (
	BoundNone  Bound = iota
	BoundUpper       // Failed low
	BoundLower       // Failed high (beta cutoff)
	BoundExact = BoundUpper | BoundLower
)

func (b Bound) String() string {
	switch b {
	case BoundUpper:
		return "upper"
	case BoundLower:
		return "lower"
	case BoundExact:
		return "exact"
	}
	return "none"
}

// Depth encoding. A stored depth byte of zero decodes to DepthOffset and
// marks the entry as empty.
const (
	DepthOffset = -7
	DepthNone   = -6
	DepthMax    = DepthOffset + 255
)

// depthSlack is how much deeper than the stored search a non-exact save of
// the same position has to be before it replaces the entry.
const depthSlack = 4

// Entry is the 16 byte transposition table entry:
//
//	word 0: tag 16 | depth 8 | pv 1, bound 2 (5 unused) | move 16 | value 16
//	word 1: eval 16 | reserved 48
//
// Both words are read and written with plain atomic loads and stores. There
// is no lock and no compare-and-swap: concurrent saves to the same entry may
// lose an update or mix word 1 of one save with word 0 of another. Tag, depth
// and bound always travel in the same word so a reader never pairs a tag with
// a depth it was not saved with.
type Entry struct {
	data  atomic.Uint64
	extra atomic.Uint64
}

const (
	tagShift   = 0
	depthShift = 16
	pvbShift   = 24
	moveShift  = 32
	valueShift = 48

	pvBit     = 0x4
	boundMask = 0x3
)

func packData(tag uint16, depth8, pvBound8 uint8, move board.Move, value int16) uint64 {
	return uint64(tag)<<tagShift |
		uint64(depth8)<<depthShift |
		uint64(pvBound8)<<pvbShift |
		uint64(move)<<moveShift |
		uint64(uint16(value))<<valueShift
}

func dataTag(w uint64) uint16      { return uint16(w >> tagShift) }
func dataDepth8(w uint64) uint8    { return uint8(w >> depthShift) }
func dataPVBound(w uint64) uint8   { return uint8(w >> pvbShift) }
func dataMove(w uint64) board.Move { return board.Move(w >> moveShift) }
func dataValue(w uint64) int16     { return int16(uint16(w >> valueShift)) }
func extraEval(w uint64) int16     { return int16(uint16(w)) }

func withEval(w uint64, ev int16) uint64 {
	return w&^0xFFFF | uint64(uint16(ev))
}

func withMove(w uint64, m board.Move) uint64 {
	return w&^(0xFFFF<<moveShift) | uint64(m)<<moveShift
}

// keyTag is the part of the key stored in an entry for verification.
func keyTag(key uint64) uint16 { return uint16(key) }

// Move returns the stored best move, or board.NoMove.
func (e *Entry) Move() board.Move { return dataMove(e.data.Load()) }

// Value returns the stored search score.
func (e *Entry) Value() int { return int(dataValue(e.data.Load())) }

// Eval returns the stored static evaluation.
func (e *Entry) Eval() int { return int(extraEval(e.extra.Load())) }

// Depth returns the decoded search depth.
func (e *Entry) Depth() int { return int(dataDepth8(e.data.Load())) + DepthOffset }

// IsPV reports whether the entry was saved on the principal variation.
func (e *Entry) IsPV() bool { return dataPVBound(e.data.Load())&pvBit != 0 }

// Bound returns the bound kind of the stored value.
func (e *Entry) Bound() Bound { return Bound(dataPVBound(e.data.Load()) & boundMask) }

// Data is a decoded copy of an entry.
type Data struct {
	Move  board.Move
	Value int
	Eval  int
	Depth int
	Bound Bound
	PV    bool
}

// Load reads the entry once and decodes every field. Prefer it over the
// individual accessors when several fields are needed, since each accessor
// is a separate read that may observe a different save.
func (e *Entry) Load() Data {
	w := e.data.Load()
	x := e.extra.Load()
	pvb := dataPVBound(w)
	return Data{
		Move:  dataMove(w),
		Value: int(dataValue(w)),
		Eval:  int(extraEval(x)),
		Depth: int(dataDepth8(w)) + DepthOffset,
		Bound: Bound(pvb & boundMask),
		PV:    pvb&pvBit != 0,
	}
}

// Save populates the entry with a new node's data, possibly overwriting an
// old position. The update is not atomic and can be racy.
func (e *Entry) Save(key uint64, value int, pv bool, b Bound, depth int, m board.Move, ev int) {
	w := e.data.Load()
	tag := keyTag(key)
	depth8 := dataDepth8(w)
	foreign := dataTag(w) != tag || depth8 == 0

	// Preserve any existing move for the same position
	next := w
	if m != board.NoMove || foreign {
		next = withMove(next, m)
	}

	// Overwrite less valuable entries (cheapest checks first)
	if b == BoundExact || foreign || depth-DepthOffset-depthSlack > int(depth8) {
		checkDepth(depth)

		pvb := uint8(b) & boundMask
		if pv {
			pvb |= pvBit
		}
		next = packData(tag, uint8(depth-DepthOffset), pvb, dataMove(next), int16(value))
		e.extra.Store(withEval(e.extra.Load(), int16(ev)))
	}

	if next != w {
		e.data.Store(next)
	}
}

func (e *Entry) empty() bool { return dataDepth8(e.data.Load()) == 0 }
