package tt

import "math/bits"

// Index maps key onto [0, n) as floor(key * n / 2^64): the high word of the
// 128-bit product. Keys are assumed uniform, so buckets are too, whether or
// not n is a power of two.
func Index(key, n uint64) uint64 {
	hi, _ := bits.Mul64(key, n)
	return hi
}
