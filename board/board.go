// Package board implements the square grid an N-in-a-row game is played on,
// along with the line and neighbor geometry that win detection and move
// filtering rely on.
package board

import (
	"errors"
	"fmt"
	"strings"
)

// MaxDim is the largest supported board dimension. Search is impractical well
// before this, but the geometry tables stay small up to here.
const MaxDim = 32

var (
	ErrConfiguration = errors.New("invalid board configuration")
)

// Occupant is the content of a single square.
type Occupant uint8

const (
	Empty Occupant = iota
	// First is the player that moves first (player A).
	First
	// Second is the player that moves second (player B).
	Second
)

// Opponent returns the other player. Empty has no opponent and returns Empty.
func (o Occupant) Opponent() Occupant {
	switch o {
	case First:
		return Second
	case Second:
		return First
	}
	return Empty
}

func (o Occupant) String() string {
	switch o {
	case First:
		return "X"
	case Second:
		return "O"
	}
	return "."
}

// hashByte is the byte used for an occupant in a position hash.
func (o Occupant) hashByte() byte {
	return '0' + byte(o)
}

// OccupantFromString parses the display symbol of a player.
func OccupantFromString(s string) (Occupant, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X", "1":
		return First, nil
	case "O", "2":
		return Second, nil
	case ".", "-", "", "0":
		return Empty, nil
	}
	return Empty, fmt.Errorf("unrecognized occupant %q", s)
}

// Coord is the immutable coordinate of a square.
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// A Board is a dim x dim grid of squares. Squares are stored in row-major
// order. The geometry (lines, neighbor lists) is shared between copies and
// never mutated after construction.
type Board struct {
	dim     int
	squares []Occupant
	counts  [3]int
	geom    *geometry
}

// New creates an empty board of the given dimension.
func New(dim int) (*Board, error) {
	if dim < 1 || dim > MaxDim {
		return nil, fmt.Errorf("%w: dimension %d outside [1, %d]", ErrConfiguration, dim, MaxDim)
	}
	b := &Board{
		dim:     dim,
		squares: make([]Occupant, dim*dim),
		geom:    geometryFor(dim),
	}
	b.counts[Empty] = dim * dim
	return b, nil
}

// MakeBoard creates a board from rows of display text, such as
// []string{"X.O", "...", "..X"}. It is mostly meant for tests and for
// collaborators that receive boards as text.
func MakeBoard(rows []string) (*Board, error) {
	b, err := New(len(rows))
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		row = strings.ReplaceAll(row, " ", "")
		if len(row) != b.dim {
			return nil, fmt.Errorf("%w: row %d has %d squares, want %d", ErrConfiguration, r, len(row), b.dim)
		}
		for c, ch := range row {
			occ, err := OccupantFromString(string(ch))
			if err != nil {
				return nil, fmt.Errorf("%w: row %d col %d: %v", ErrConfiguration, r, c, err)
			}
			b.Set(r, c, occ)
		}
	}
	return b, nil
}

func (b *Board) Dim() int {
	return b.dim
}

func (b *Board) index(row, col int) int {
	return row*b.dim + col
}

// InBounds returns true if the coordinates are on the board.
func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < b.dim && col < b.dim
}

// At returns the occupant of the square at row, col.
func (b *Board) At(row, col int) Occupant {
	return b.squares[b.index(row, col)]
}

// AtIndex returns the occupant of the square at the given row-major index.
func (b *Board) AtIndex(idx int) Occupant {
	return b.squares[idx]
}

// Set places occ on the square at row, col. Setting Empty clears it.
func (b *Board) Set(row, col int, occ Occupant) {
	idx := b.index(row, col)
	b.counts[b.squares[idx]]--
	b.squares[idx] = occ
	b.counts[occ]++
}

// Neighbors returns the (up to 8) squares adjacent to row, col. The returned
// slice is shared and must not be modified.
func (b *Board) Neighbors(row, col int) []Coord {
	return b.geom.neighbors[b.index(row, col)]
}

// HasOccupiedNeighbor returns true if any square adjacent to row, col is taken.
func (b *Board) HasOccupiedNeighbor(row, col int) bool {
	for _, n := range b.geom.neighborIdx[b.index(row, col)] {
		if b.squares[n] != Empty {
			return true
		}
	}
	return false
}

// Lines returns every row, column, diagonal and anti-diagonal with at least
// minLength squares. The result is a cached, shared slice.
func (b *Board) Lines(minLength int) []Line {
	return b.geom.linesAtLeast(minLength)
}

func (b *Board) CountEmpty() int {
	return b.counts[Empty]
}

// CountOf returns the number of squares held by occ.
func (b *Board) CountOf(occ Occupant) int {
	return b.counts[occ]
}

func (b *Board) IsFull() bool {
	return b.counts[Empty] == 0
}

func (b *Board) IsEmpty() bool {
	return b.counts[Empty] == len(b.squares)
}

// EmptyCells returns the coordinates of all empty squares in row-major order.
func (b *Board) EmptyCells() []Coord {
	cells := make([]Coord, 0, b.counts[Empty])
	for idx, occ := range b.squares {
		if occ == Empty {
			cells = append(cells, b.geom.coords[idx])
		}
	}
	return cells
}

// Hash returns a key for the board contents with turn to move. The key is the
// row-major sequence of squares followed by a separator and the side to move,
// so two different (board, turn) pairs can never share a key.
func (b *Board) Hash(turn Occupant) string {
	var sb strings.Builder
	sb.Grow(len(b.squares) + 2)
	for _, occ := range b.squares {
		sb.WriteByte(occ.hashByte())
	}
	sb.WriteByte('/')
	sb.WriteByte(turn.hashByte())
	return sb.String()
}

// Copy returns a board with its own squares. Geometry is shared.
func (b *Board) Copy() *Board {
	nb := &Board{
		dim:     b.dim,
		squares: make([]Occupant, len(b.squares)),
		counts:  b.counts,
		geom:    b.geom,
	}
	copy(nb.squares, b.squares)
	return nb
}

// Equals returns true if both boards have the same dimension and contents.
func (b *Board) Equals(other *Board) bool {
	if b.dim != other.dim {
		return false
	}
	for i := range b.squares {
		if b.squares[i] != other.squares[i] {
			return false
		}
	}
	return true
}

// Rows returns the board as display text, one string per row.
func (b *Board) Rows() []string {
	rows := make([]string, b.dim)
	var sb strings.Builder
	for r := 0; r < b.dim; r++ {
		sb.Reset()
		for c := 0; c < b.dim; c++ {
			sb.WriteString(b.At(r, c).String())
		}
		rows[r] = sb.String()
	}
	return rows
}

// ToDisplayText renders the board with row and column labels.
func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for c := 0; c < b.dim; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteString("\n")
	for r := 0; r < b.dim; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < b.dim; c++ {
			sb.WriteString(" ")
			sb.WriteString(b.At(r, c).String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
