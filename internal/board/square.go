// Package board holds the small pieces of chess vocabulary the hash table
// traffics in: squares, the 16-bit move encoding, and a reproducible key
// generator.
package board

// Square represents a square on the chess board (0-63).
// Uses Little-Endian Rank-File Mapping: A1=0, H1=7, A8=56, H8=63.
type Square uint8

// NoSquare is the sentinel past the last square.
const NoSquare Square = 64

// File returns the file (column) of the square (0-7, where 0=a, 7=h).
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns the rank (row) of the square (0-7, where 0=1, 7=8).
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// String returns the algebraic notation for the square (e.g., "e4").
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return string([]byte{byte('a' + sq.File()), byte('1' + sq.Rank())})
}

// NewSquare creates a square from file and rank (0-indexed).
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// PieceType is the kind of piece a pawn promotes to.
type PieceType uint8

const (
	Knight PieceType = iota + 1
	Bishop
	Rook
	Queen
)

const promoChars = "nbrq"
