package move

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
)

// Move is a placement on a square. It may carry the player making it and
// a score assigned by search.
type Move struct {
	row    int
	col    int
	player board.Occupant
	score  int
	scored bool
}

var reCoords *regexp.Regexp

func init() {
	reCoords = regexp.MustCompile(`^\(?\s*(?P<row>-?[0-9]+)\s*[, ]\s*(?P<col>-?[0-9]+)\s*\)?$`)
}

func NewMove(row, col int) *Move {
	return &Move{row: row, col: col}
}

func NewPlayerMove(row, col int, player board.Occupant) *Move {
	return &Move{row: row, col: col, player: player}
}

// ParseMove parses coordinates like "1,2", "1 2" or "(1,2)".
func ParseMove(s string) (*Move, error) {
	m := reCoords.FindStringSubmatch(s)
	if m == nil {
		return nil, fmt.Errorf("cannot parse move %q; expected row,col", s)
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, err
	}
	col, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, err
	}
	return NewMove(row, col), nil
}

func (m *Move) Row() int {
	return m.row
}

func (m *Move) Col() int {
	return m.col
}

func (m *Move) Coord() board.Coord {
	return board.Coord{Row: m.row, Col: m.col}
}

func (m *Move) Player() board.Occupant {
	return m.player
}

func (m *Move) SetPlayer(p board.Occupant) {
	m.player = p
}

// Score returns the search score, only meaningful if HasScore is true.
func (m *Move) Score() int {
	return m.score
}

func (m *Move) SetScore(s int) {
	m.score = s
	m.scored = true
}

func (m *Move) HasScore() bool {
	return m.scored
}

// Equals compares squares only.
func (m *Move) Equals(o *Move) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.row == o.row && m.col == o.col
}

func (m *Move) Copy() *Move {
	c := *m
	return &c
}

// ShortDescription provides a short description, useful for logging or
// user display.
func (m *Move) ShortDescription() string {
	if m.player == board.Empty {
		return fmt.Sprintf("(%d,%d)", m.row, m.col)
	}
	return fmt.Sprintf("%s(%d,%d)", m.player, m.row, m.col)
}

// String provides a string just for debugging purposes.
func (m *Move) String() string {
	if !m.scored {
		return fmt.Sprintf("<move %s>", m.ShortDescription())
	}
	return fmt.Sprintf("<move %s score: %d>", m.ShortDescription(), m.score)
}
