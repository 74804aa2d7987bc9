package tt

import (
	"sync/atomic"
	"testing"

	"github.com/hailam/chesshash/internal/board"
)

func BenchmarkProbe(b *testing.B) {
	tbl := New(WithLogger(quiet))
	if err := tbl.TryResize(16); err != nil {
		b.Fatal(err)
	}
	defer tbl.Close()

	rng := board.NewPRNG(3)
	keys := make([]uint64, 4096)
	for i := range keys {
		keys[i] = rng.Next()
		tbl.Entry(keys[i]).Save(keys[i], i, false, BoundExact, i%32, board.NoMove, 0)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tbl.Probe(keys[i&4095])
	}
}

func BenchmarkSaveParallel(b *testing.B) {
	tbl := New(WithLogger(quiet))
	if err := tbl.TryResize(16); err != nil {
		b.Fatal(err)
	}
	defer tbl.Close()

	var seed atomic.Uint64
	b.RunParallel(func(pb *testing.PB) {
		rng := board.NewPRNG(seed.Add(1))
		for pb.Next() {
			k := rng.Next()
			e, _ := tbl.Probe(k)
			e.Save(k, int(int16(k>>20)), false, BoundLower, int(k%40), board.Move(k>>32), 0)
		}
	})
}
