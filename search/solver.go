// Package search is a depth-limited minimax search with alpha-beta pruning
// and a shared transposition table.
package search

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/candidates"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

/*
function alphabeta(node, depth, α, β, maximizingPlayer) is
    if depth = 0 or node is terminal then
        return the heuristic value of node
    if maximizingPlayer then
        for each child of node do
            α := max(α, alphabeta(child, depth − 1, α, β, FALSE))
            if α ≥ β then
                break (* β cutoff *)
        return α
    else
        for each child of node do
            β := min(β, alphabeta(child, depth − 1, α, β, TRUE))
            if β ≤ α then
                break (* α cutoff *)
        return β
*/

// Solver searches positions on behalf of one maximizing player. A Solver
// may be shared by any number of goroutines as long as each one searches
// its own Position; the only shared mutable state is the node counter and
// the transposition table.
type Solver struct {
	filters *candidates.Pipeline
	ttable  *TranspositionTable

	transpositionTableOptim bool
	pruningOptim            bool

	nodes atomic.Uint64
}

// NewSolver returns a solver with pruning on. The transposition table is
// used if tt is not nil.
func NewSolver(filters *candidates.Pipeline, tt *TranspositionTable) *Solver {
	if filters == nil {
		filters = candidates.DefaultPipeline()
	}
	return &Solver{
		filters:                 filters,
		ttable:                  tt,
		transpositionTableOptim: tt != nil,
		pruningOptim:            true,
	}
}

// SetPruning turns alpha-beta cutoffs on or off. With pruning off every
// child is searched with the full window, which is plain minimax.
func (s *Solver) SetPruning(p bool) {
	s.pruningOptim = p
}

func (s *Solver) Filters() *candidates.Pipeline {
	return s.filters
}

// Nodes is the number of nodes visited since the last ResetNodes.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

func (s *Solver) ResetNodes() {
	s.nodes.Store(0)
}

// ScoreMove scores the root candidate c for the player on turn in pos,
// searching maxDepth plies including the candidate itself. pos is
// modified during the search and restored before returning.
func (s *Solver) ScoreMove(ctx context.Context, pos *game.Position, c board.Coord, maxDepth int) (int, error) {
	maximizer := pos.NextPlayer()
	pos.Place(c.Row, c.Col, maximizer)
	defer pos.Unplace(c.Row, c.Col)
	return s.Search(ctx, pos, maximizer, -Infinity, Infinity, 1, maxDepth)
}

// Search returns the minimax value of pos for maximizer, given that depth
// plies have been played since the root and the search stops at maxDepth.
// The opponent of maximizer is the minimizer. Scores follow fail-hard
// alpha-beta: a max node returns its final α and a min node its final β.
//
// If ctx is done the search unwinds with ctx.Err() and nothing partial is
// stored in the transposition table.
func (s *Solver) Search(ctx context.Context, pos *game.Position, maximizer board.Occupant,
	α, β int, depth, maxDepth int) (int, error) {

	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	s.nodes.Add(1)

	winner := pos.Winner()
	if depth >= maxDepth || winner != board.Empty || pos.Board().IsFull() {
		return leafValue(pos, maximizer, winner, depth), nil
	}

	mover := pos.NextPlayer()
	maximizing := mover == maximizer
	remaining := maxDepth - depth
	alphaOrig, betaOrig := α, β

	var key string
	if s.transpositionTableOptim {
		key = pos.Hash(mover)
		if entry, ok := s.ttable.lookup(key, remaining); ok {
			score, flag := fromTableEntry(entry, maximizing, depth)
			switch {
			case flag == TTExact:
				return score, nil
			case flag == TTLower && score >= β:
				return score, nil
			case flag == TTUpper && score <= α:
				return score, nil
			}
		}
	}

	children := s.filters.Candidates(pos)
	for _, child := range children {
		pos.Place(child.Row, child.Col, mover)
		var value int
		var err error
		if s.pruningOptim {
			value, err = s.Search(ctx, pos, maximizer, α, β, depth+1, maxDepth)
		} else {
			value, err = s.Search(ctx, pos, maximizer, -Infinity, Infinity, depth+1, maxDepth)
		}
		pos.Unplace(child.Row, child.Col)
		if err != nil {
			return 0, err
		}
		if maximizing {
			α = max(α, value)
		} else {
			β = min(β, value)
		}
		if s.pruningOptim && α >= β {
			break
		}
	}

	value := β
	if maximizing {
		value = α
	}

	if s.transpositionTableOptim {
		var flag uint8
		if value <= alphaOrig {
			flag = TTUpper
		} else if value >= betaOrig {
			flag = TTLower
		} else {
			flag = TTExact
		}
		score, storedFlag := toTableEntry(value, flag, maximizing, depth)
		s.ttable.store(key, remaining, score, storedFlag)
	}
	if depth == 1 {
		if e := log.Trace(); e.Enabled() {
			e.Str("key", pos.Key()).Int("value", value).Msg("searched-root-child")
		}
	}
	return value, nil
}

// toTableEntry converts a score for the maximizer at ply depth into a score
// for the player on turn with wins measured from this node.
func toTableEntry(value int, flag uint8, maximizing bool, depth int) (int, uint8) {
	if !maximizing {
		value = -value
		flag = flipFlag(flag)
	}
	switch {
	case value > winThreshold:
		value += depth
	case value < -winThreshold:
		value -= depth
	}
	return value, flag
}

func fromTableEntry(entry TableEntry, maximizing bool, depth int) (int, uint8) {
	value, flag := entry.Score(), entry.Flag()
	switch {
	case value > winThreshold:
		value -= depth
	case value < -winThreshold:
		value += depth
	}
	if !maximizing {
		value = -value
		flag = flipFlag(flag)
	}
	return value, flag
}

func flipFlag(flag uint8) uint8 {
	switch flag {
	case TTLower:
		return TTUpper
	case TTUpper:
		return TTLower
	}
	return flag
}
