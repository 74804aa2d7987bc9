package tt

// Score bounds shared with the search. Mate scores are stored relative to
// the position instead of the root so they stay valid when the position is
// reached at a different ply.
const (
	ValueMate         = 29000
	MaxPly            = 128
	ValueMateInMaxPly = ValueMate - MaxPly
)

// ValueToTT adjusts a mate score from "plies to mate from the root" to
// "plies to mate from the current position" before it is saved.
func ValueToTT(v, ply int) int {
	if v >= ValueMateInMaxPly {
		return v + ply
	}
	if v <= -ValueMateInMaxPly {
		return v - ply
	}
	return v
}

// ValueFromTT is the inverse of ValueToTT, applied to a probed value.
func ValueFromTT(v, ply int) int {
	if v >= ValueMateInMaxPly {
		return v - ply
	}
	if v <= -ValueMateInMaxPly {
		return v + ply
	}
	return v
}
