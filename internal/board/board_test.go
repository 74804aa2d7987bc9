package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveEncoding(t *testing.T) {
	e2, e4 := NewSquare(4, 1), NewSquare(4, 3)

	m := NewMove(e2, e4)
	assert.Equal(t, e2, m.From())
	assert.Equal(t, e4, m.To())
	assert.False(t, m.IsPromotion())
	assert.Equal(t, "e2e4", m.String())

	a7, a8 := NewSquare(0, 6), NewSquare(0, 7)
	p := NewPromotion(a7, a8, Rook)
	assert.True(t, p.IsPromotion())
	assert.Equal(t, Rook, p.Promotion())
	assert.Equal(t, "a7a8r", p.String())

	assert.Equal(t, FlagPromotion, p.Flag())
	assert.Equal(t, FlagNormal, m.Flag())
	assert.Equal(t, "0000", NoMove.String())
}

func TestSquare(t *testing.T) {
	h8 := NewSquare(7, 7)
	assert.Equal(t, Square(63), h8)
	assert.Equal(t, 7, h8.File())
	assert.Equal(t, 7, h8.Rank())
	assert.Equal(t, "h8", h8.String())
	assert.Equal(t, "-", NoSquare.String())
}

func TestPRNGDeterministic(t *testing.T) {
	a, b := NewPRNG(42), NewPRNG(42)
	for range 100 {
		require.Equal(t, a.Next(), b.Next())
	}

	z := NewPRNG(0)
	assert.NotZero(t, z.Next())
}
