package engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hailam/chesshash/internal/board"
	"github.com/hailam/chesshash/internal/threads"
	"github.com/hailam/chesshash/internal/tt"
)

// Bench defaults.
const (
	DefaultBenchDepth     = 16
	DefaultBenchPositions = 8
	MaxBenchDepth         = 64

	defaultSeed  = 0x2B992DDFA23249D6
	infinity     = tt.ValueMate + 1
	checkEvery   = 1024
	minBranching = 2
	maxBranching = 4
)

// BenchResult summarises a completed or stopped bench run.
type BenchResult struct {
	Nodes     uint64
	Hits      uint64
	Time      time.Duration
	Positions int // Positions fully searched
	Stopped   bool
}

// NPS returns nodes per second.
func (r BenchResult) NPS() uint64 {
	return SearchInfo{Nodes: r.Nodes, Time: r.Time}.NPS()
}

// Bench runs a synthetic iterative deepening search over a sequence of
// generated root positions, using every pool worker on each one. The tree is
// built from the position keys alone, with Zobrist style move keys, so
// different move orders reach the same node and the table sees real
// transpositions.
//
// Worker 0 drives the iterations and reports through OnInfo after each one.
// The other workers search the same root with rotated move orders until
// worker 0 is done, sharing results only through the table.
func (e *Engine) Bench(ctx context.Context, limits SearchLimits) (BenchResult, error) {
	if !e.busy.TryLock() {
		return BenchResult{}, threads.ErrSearching
	}
	defer e.busy.Unlock()
	e.stopped.Store(false)

	depth := limits.Depth
	if depth <= 0 {
		depth = DefaultBenchDepth
	}
	depth = min(depth, MaxBenchDepth)
	positions := limits.Positions
	if positions <= 0 {
		positions = DefaultBenchPositions
	}
	seed := limits.Seed
	if seed == 0 {
		seed = defaultSeed
	}

	var (
		res   BenchResult
		nodes atomic.Uint64
		hits  atomic.Uint64
		start = time.Now()
		rng   = board.NewPRNG(seed)
	)

	for p := range positions {
		root := rng.Next()
		var done atomic.Bool

		err := e.pool.Search(ctx, func(ctx context.Context, id int) error {
			w := &worker{
				e:     e,
				ctx:   ctx,
				id:    id,
				nodes: &nodes,
				hits:  &hits,
				limit: limits.Nodes,
				done:  &done,
			}
			if id != 0 {
				w.helper(root, depth)
				return nil
			}
			defer done.Store(true)
			w.main(root, depth, p, start)
			return nil
		})
		if err != nil {
			return res, err
		}
		if e.stopped.Load() || ctx.Err() != nil || (limits.Nodes > 0 && nodes.Load() >= limits.Nodes) {
			res.Stopped = true
			break
		}
		res.Positions++
	}

	res.Nodes = nodes.Load()
	res.Hits = hits.Load()
	res.Time = time.Since(start)
	e.log.Debug("bench finished",
		"nodes", res.Nodes, "hits", res.Hits, "positions", res.Positions,
		"time", res.Time, "stopped", res.Stopped)
	return res, ctx.Err()
}

type worker struct {
	e     *Engine
	ctx   context.Context
	id    int
	nodes *atomic.Uint64
	hits  *atomic.Uint64
	limit uint64
	done  *atomic.Bool

	local     uint64 // Nodes not yet flushed to the shared counter
	localHits uint64
	aborted   bool
}

func (w *worker) main(root uint64, maxDepth, pos int, start time.Time) {
	for d := 1; d <= maxDepth; d++ {
		score, move := w.root(root, d)
		w.flush()
		if w.aborted {
			return
		}
		if w.e.OnInfo != nil {
			w.e.OnInfo(SearchInfo{
				Position: pos,
				Depth:    d,
				Score:    score,
				Nodes:    w.nodes.Load(),
				Hits:     w.hits.Load(),
				Time:     time.Since(start),
				Move:     move,
				HashFull: w.e.tt.HashFull(),
			})
		}
	}
}

func (w *worker) helper(root uint64, maxDepth int) {
	for d := 1; !w.done.Load(); d = d%maxDepth + 1 {
		w.root(root, d)
		w.flush()
		if w.aborted {
			return
		}
	}
}

func (w *worker) flush() {
	w.nodes.Add(w.local)
	w.hits.Add(w.localHits)
	w.local, w.localHits = 0, 0
}

func (w *worker) shouldStop() bool {
	if w.aborted {
		return true
	}
	w.local++
	if w.local%checkEvery != 0 {
		return false
	}
	total := w.nodes.Add(w.local)
	w.local = 0
	if w.ctx.Err() != nil || w.e.stopped.Load() || w.e.pool.Stopped() ||
		(w.limit > 0 && total >= w.limit) || (w.id != 0 && w.done.Load()) {
		w.aborted = true
	}
	return w.aborted
}

func (w *worker) root(key uint64, depth int) (int, board.Move) {
	score := w.search(node{key: key}, depth, 0, -infinity, infinity)
	e, hit := w.e.tt.Probe(key)
	if !hit {
		return score, board.NoMove
	}
	return score, e.Move()
}

// node is a position in the synthetic tree. Its key is the root key plus
// one move key per ply, so playing the same moves for each side in a
// different order reaches the same node.
type node struct {
	key uint64
	ply int
}

func (n node) child(i int) node {
	return node{key: n.key + moveKey(n.ply&1, i), ply: n.ply + 1}
}

func moveKey(side, i int) uint64 {
	return mix(uint64(side*maxBranching+i) + 1)
}

// mix is the splitmix64 finaliser.
func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

// evaluate is the static evaluation of a synthetic position, in [-300, 300].
func evaluate(key uint64) int {
	return int(mix(key)>>40%601) - 300
}

func branching(key uint64) int {
	return minBranching + int(mix(key)>>20%(maxBranching-minBranching+1))
}

// moveFor encodes child i of the node with key as a move. i is recoverable
// from the destination square. The last child is a promotion so stored moves
// use every bit of the encoding.
func moveFor(key uint64, i int) board.Move {
	from := board.Square(mix(key) >> 8 % 64)
	to := board.NewSquare(i+1, 0)
	if from == to {
		from = (from + 1) % 64
	}
	if i == maxBranching-1 {
		return board.NewPromotion(from, to, board.Queen)
	}
	return board.NewMove(from, to)
}

func moveIndex(m board.Move, n int) int {
	i := int(m.To()) - 1
	if m == board.NoMove || i < 0 || i >= n {
		return -1
	}
	return i
}

func (w *worker) search(n node, depth, ply, alpha, beta int) int {
	if w.shouldStop() {
		return 0
	}

	key := n.key
	entry, hit := w.e.tt.Probe(key)
	var ttData tt.Data
	if hit {
		w.localHits++
		ttData = entry.Load()
		if ply > 0 && ttData.Depth >= depth {
			v := tt.ValueFromTT(ttData.Value, ply)
			switch {
			case ttData.Bound == tt.BoundExact,
				ttData.Bound == tt.BoundLower && v >= beta,
				ttData.Bound == tt.BoundUpper && v <= alpha:
				return v
			}
		}
	}

	eval := evaluate(key)
	if depth <= 0 || ply >= tt.MaxPly-1 {
		if !hit {
			entry.Save(key, tt.ValueToTT(eval, ply), false, tt.BoundNone, tt.DepthNone, board.NoMove, eval)
		}
		return eval
	}

	pvNode := beta-alpha > 1
	count := branching(key)
	first := moveIndex(ttData.Move, count)
	rot := w.id % count

	origAlpha := alpha
	best, bestMove := -infinity, board.NoMove
	for k := -1; k < count; k++ {
		var i int
		if k < 0 {
			if first < 0 {
				continue
			}
			i = first
		} else {
			i = (k + rot) % count
			if i == first {
				continue
			}
		}

		v := -w.search(n.child(i), depth-1, ply+1, -beta, -alpha)
		if w.aborted {
			return 0
		}
		if v > best {
			best = v
			if v > alpha {
				bestMove = moveFor(key, i)
				alpha = v
				if alpha >= beta {
					break
				}
			}
		}
	}

	bound := tt.BoundUpper
	switch {
	case best >= beta:
		bound = tt.BoundLower
	case best > origAlpha:
		bound = tt.BoundExact
	}
	entry.Save(key, tt.ValueToTT(best, ply), pvNode, bound, depth, bestMove, eval)
	return best
}
