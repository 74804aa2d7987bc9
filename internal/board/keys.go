package board

// PRNG is the xorshift64* generator used for Zobrist keys. It is
// deterministic for a seed, which makes key streams reproducible across runs.
type PRNG struct {
	state uint64
}

// NewPRNG returns a generator. A zero seed is replaced, since xorshift
// never leaves the zero state.
func NewPRNG(seed uint64) *PRNG {
	if seed == 0 {
		seed = 0x98F107A2BEEF1234
	}
	return &PRNG{state: seed}
}

// Next returns the next 64-bit value.
func (p *PRNG) Next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}
