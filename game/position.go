// Package game holds the rules of an N-in-a-row game: a Position is a board
// plus the win length, and knows whose turn it is and whether anyone has won.
package game

import (
	"errors"
	"fmt"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
)

var (
	// ErrState is returned when the piece counts could not have come from
	// alternating play with the first player starting.
	ErrState = errors.New("invalid position state")
	// ErrIllegalMove is returned by PlayMove for an unplayable move.
	ErrIllegalMove = errors.New("illegal move")
)

// Position is a board, a win length and the two players. The player on turn
// is derived from the piece counts: First moves whenever the counts are equal.
type Position struct {
	board     *board.Board
	winLength int
}

// NewPosition validates the board and win length and wraps them in a Position.
// The position takes ownership of b.
func NewPosition(b *board.Board, winLength int) (*Position, error) {
	if winLength < 1 || winLength > b.Dim() {
		return nil, fmt.Errorf("%w: win length %d with board dimension %d",
			board.ErrConfiguration, winLength, b.Dim())
	}
	p := &Position{board: b, winLength: winLength}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// NewEmptyPosition creates a position on an empty dim x dim board.
func NewEmptyPosition(dim, winLength int) (*Position, error) {
	b, err := board.New(dim)
	if err != nil {
		return nil, err
	}
	return NewPosition(b, winLength)
}

// FromRows builds a position from display rows (see board.MakeBoard).
func FromRows(rows []string, winLength int) (*Position, error) {
	b, err := board.MakeBoard(rows)
	if err != nil {
		return nil, err
	}
	return NewPosition(b, winLength)
}

// Validate checks the alternation invariant.
func (p *Position) Validate() error {
	diff := p.board.CountOf(board.First) - p.board.CountOf(board.Second)
	if diff != 0 && diff != 1 {
		return fmt.Errorf("%w: %d first-player pieces, %d second-player pieces",
			ErrState, p.board.CountOf(board.First), p.board.CountOf(board.Second))
	}
	return nil
}

func (p *Position) Board() *board.Board {
	return p.board
}

func (p *Position) WinLength() int {
	return p.winLength
}

func (p *Position) Dim() int {
	return p.board.Dim()
}

// NextPlayer returns the player on turn.
func (p *Position) NextPlayer() board.Occupant {
	if p.board.CountOf(board.First) == p.board.CountOf(board.Second) {
		return board.First
	}
	return board.Second
}

// DidWin returns true if player has winLength consecutive squares on any line.
func (p *Position) DidWin(player board.Occupant) bool {
	if player == board.Empty || p.board.CountOf(player) < p.winLength {
		return false
	}
	for _, line := range p.board.Lines(p.winLength) {
		run := 0
		for _, idx := range line {
			if p.board.AtIndex(idx) != player {
				run = 0
				continue
			}
			run++
			if run >= p.winLength {
				return true
			}
		}
	}
	return false
}

// Winner returns the player that has won, or board.Empty if nobody has.
func (p *Position) Winner() board.Occupant {
	if p.DidWin(board.First) {
		return board.First
	}
	if p.DidWin(board.Second) {
		return board.Second
	}
	return board.Empty
}

// IsGameOver returns true if the board is full or either player has won.
func (p *Position) IsGameOver() bool {
	return p.board.IsFull() || p.DidWin(board.First) || p.DidWin(board.Second)
}

// Hash returns the transposition key of this position with turn to move.
func (p *Position) Hash(turn board.Occupant) string {
	return p.board.Hash(turn)
}

// Key is Hash with the player actually on turn.
func (p *Position) Key() string {
	return p.board.Hash(p.NextPlayer())
}

// Place puts player's piece on an empty square without any validation. It is
// meant for search, which pairs every Place with an Unplace.
func (p *Position) Place(row, col int, player board.Occupant) {
	p.board.Set(row, col, player)
}

// Unplace clears a square set by Place.
func (p *Position) Unplace(row, col int) {
	p.board.Set(row, col, board.Empty)
}

// PlayMove validates m and places a piece for the player on turn. If m has a
// player assigned it must match the player on turn.
func (p *Position) PlayMove(m *move.Move) error {
	if !p.board.InBounds(m.Row(), m.Col()) {
		return fmt.Errorf("%w: %s is off the board", ErrIllegalMove, m.ShortDescription())
	}
	if p.IsGameOver() {
		return fmt.Errorf("%w: game is over", ErrIllegalMove)
	}
	if p.board.At(m.Row(), m.Col()) != board.Empty {
		return fmt.Errorf("%w: %s is occupied", ErrIllegalMove, m.ShortDescription())
	}
	onturn := p.NextPlayer()
	if m.Player() != board.Empty && m.Player() != onturn {
		return fmt.Errorf("%w: %s is not on turn", ErrIllegalMove, m.Player())
	}
	p.board.Set(m.Row(), m.Col(), onturn)
	m.SetPlayer(onturn)
	return nil
}

// Copy returns a position with an independent board.
func (p *Position) Copy() *Position {
	return &Position{board: p.board.Copy(), winLength: p.winLength}
}

// Center returns the opening square.
func (p *Position) Center() board.Coord {
	return board.Coord{Row: p.Dim() / 2, Col: p.Dim() / 2}
}

func (p *Position) ToDisplayText() string {
	s := p.board.ToDisplayText()
	switch {
	case p.DidWin(board.First):
		s += fmt.Sprintf("%s wins\n", board.First)
	case p.DidWin(board.Second):
		s += fmt.Sprintf("%s wins\n", board.Second)
	case p.board.IsFull():
		s += "draw\n"
	default:
		s += fmt.Sprintf("%s to move (%d in a row wins)\n", p.NextPlayer(), p.winLength)
	}
	return s
}
