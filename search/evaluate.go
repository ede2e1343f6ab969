package search

import (
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

const (
	// WinBase is the value of a win found right at the root. A win found
	// d plies down is worth WinBase-d, so faster wins score higher and
	// slower losses score higher than faster ones.
	WinBase = 10_000_000
	// HeuristicCap bounds the heuristic well below any win score.
	HeuristicCap = 1_000_000
	// Infinity is outside the range of every score.
	Infinity = 4 * WinBase

	// Anything beyond winThreshold is a proven win or loss.
	winThreshold = WinBase - 2*board.MaxDim*board.MaxDim
)

// IsWinScore returns true if score is a proven win for the maximizer.
func IsWinScore(score int) bool {
	return score > winThreshold
}

// IsLossScore returns true if score is a proven loss for the maximizer.
func IsLossScore(score int) bool {
	return score < -winThreshold
}

// leafValue scores a terminal or cutoff node for maximizer. winner is the
// player that has won at this node, if any.
func leafValue(pos *game.Position, maximizer, winner board.Occupant, depth int) int {
	switch winner {
	case maximizer:
		return WinBase - depth
	case maximizer.Opponent():
		return -WinBase + depth
	}
	if pos.Board().IsFull() {
		return 0
	}
	return Heuristic(pos, maximizer)
}

// Heuristic estimates a non-terminal position for player. Every window of
// winLength consecutive squares on a line that only one side occupies is
// worth 4^k to that side, where k is the number of its pieces in the
// window. The result is player's total minus the opponent's, clamped to
// plus or minus HeuristicCap.
func Heuristic(pos *game.Position, player board.Occupant) int {
	b := pos.Board()
	win := pos.WinLength()
	opp := player.Opponent()
	var score int64
	for _, line := range b.Lines(win) {
		mine, theirs := 0, 0
		for i, idx := range line {
			switch b.AtIndex(idx) {
			case player:
				mine++
			case opp:
				theirs++
			}
			if i >= win {
				switch b.AtIndex(line[i-win]) {
				case player:
					mine--
				case opp:
					theirs--
				}
			}
			if i < win-1 {
				continue
			}
			if theirs == 0 && mine > 0 {
				score += windowWeight(mine)
			} else if mine == 0 && theirs > 0 {
				score -= windowWeight(theirs)
			}
		}
	}
	return int(clamp(score, -HeuristicCap, HeuristicCap))
}

// windowWeight is 4^pieces, capped at 2^40. int64 keeps it exact on 32-bit
// platforms.
func windowWeight(pieces int) int64 {
	shift := 2 * pieces
	if shift > 40 {
		shift = 40
	}
	return int64(1) << shift
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
