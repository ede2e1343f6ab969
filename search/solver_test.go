package search

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/candidates"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func mustPosition(t testing.TB, rows []string, win int) *game.Position {
	t.Helper()
	p, err := game.FromRows(rows, win)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// randomPosition plays random moves until n pieces are down, or returns nil
// if somebody won along the way.
func randomPosition(dim, win, n int) *game.Position {
	p, err := game.NewEmptyPosition(dim, win)
	if err != nil {
		panic(err)
	}
	perm := frand.Perm(dim * dim)
	for i := 0; i < n; i++ {
		p.Place(perm[i]/dim, perm[i]%dim, p.NextPlayer())
		if p.IsGameOver() {
			return nil
		}
	}
	return p
}

func rootScores(t *testing.T, s *Solver, pos *game.Position, maxDepth int) []int {
	t.Helper()
	var scores []int
	for _, c := range s.Filters().Candidates(pos) {
		v, err := s.ScoreMove(context.Background(), pos, c, maxDepth)
		if err != nil {
			t.Fatal(err)
		}
		scores = append(scores, v)
	}
	return scores
}

func TestImmediateWinScore(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, []string{
		"XX.",
		"OO.",
		"...",
	}, 3)
	s := NewSolver(candidates.NewPipeline(), nil)
	v, err := s.ScoreMove(context.Background(), pos, board.Coord{Row: 0, Col: 2}, 3)
	is.NoErr(err)
	is.Equal(v, WinBase-1)
	is.True(IsWinScore(v))
	// the board is restored
	is.Equal(pos.Board().At(0, 2), board.Empty)
}

func TestMissingTheBlockLoses(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, []string{
		"XX.",
		"O..",
		"...",
	}, 3)
	s := NewSolver(candidates.NewPipeline(), nil)
	block, err := s.ScoreMove(context.Background(), pos, board.Coord{Row: 0, Col: 2}, 2)
	is.NoErr(err)
	elsewhere, err := s.ScoreMove(context.Background(), pos, board.Coord{Row: 2, Col: 2}, 2)
	is.NoErr(err)
	is.Equal(elsewhere, -WinBase+2)
	is.True(IsLossScore(elsewhere))
	is.True(block > elsewhere)
}

func TestFasterWinScoresHigher(t *testing.T) {
	is := is.New(t)
	// X can win now at (0,3). Anything else lets O win next.
	pos := mustPosition(t, []string{
		"XXX.",
		"OOO.",
		"....",
		"....",
	}, 4)
	s := NewSolver(candidates.NewPipeline(), nil)
	now, err := s.ScoreMove(context.Background(), pos, board.Coord{Row: 0, Col: 3}, 3)
	is.NoErr(err)
	later, err := s.ScoreMove(context.Background(), pos, board.Coord{Row: 2, Col: 0}, 3)
	is.NoErr(err)
	is.Equal(now, WinBase-1)
	// O completes its row next ply.
	is.Equal(later, -WinBase+2)
}

func TestPruningDoesNotChangeScores(t *testing.T) {
	is := is.New(t)
	trials := 0
	for trials < 40 {
		dim := 3 + frand.Intn(2)
		pos := randomPosition(dim, 3, 2+frand.Intn(dim))
		if pos == nil {
			continue
		}
		trials++
		maxDepth := 3
		if dim == 3 {
			maxDepth = 9
		}
		pruned := NewSolver(nil, nil)
		plain := NewSolver(nil, nil)
		plain.SetPruning(false)
		is.Equal(rootScores(t, pruned, pos, maxDepth), rootScores(t, plain, pos, maxDepth))
		is.True(pruned.Nodes() <= plain.Nodes())
	}
}

func TestTranspositionTableDoesNotChangeScores(t *testing.T) {
	is := is.New(t)
	tt := NewTranspositionTable(MinSizePowerOf2)
	var hits uint64
	trials := 0
	for trials < 40 {
		dim := 3 + frand.Intn(2)
		pos := randomPosition(dim, 3, 2+frand.Intn(dim))
		if pos == nil {
			continue
		}
		trials++
		tt.Bind(dim, 3)
		withTable := NewSolver(nil, tt)
		without := NewSolver(nil, nil)
		// iterate like the player does so entries from shallower depths
		// are around when deeper ones are searched.
		for d := 1; d <= 4; d++ {
			is.Equal(rootScores(t, withTable, pos, d), rootScores(t, without, pos, d))
		}
		// and again with pruning off
		withTable.SetPruning(false)
		without.SetPruning(false)
		is.Equal(rootScores(t, withTable, pos, 3), rootScores(t, without, pos, 3))
		// Bind resets the counters when the dimension changes.
		hits += tt.Stats().Hits
	}
	is.True(hits > 0)
}

func TestTableSharedAcrossMaximizers(t *testing.T) {
	is := is.New(t)
	// entries written while X searches must be usable when O searches.
	tt := NewTranspositionTable(12)
	tt.Bind(4, 3)
	withTable := NewSolver(nil, tt)
	without := NewSolver(nil, nil)

	pos := mustPosition(t, []string{
		"....",
		".X..",
		"..O.",
		"....",
	}, 3)
	xScores := rootScores(t, withTable, pos, 4)
	is.Equal(xScores, rootScores(t, without, pos, 4))

	pos.Place(0, 0, board.First)
	is.Equal(rootScores(t, withTable, pos, 4), rootScores(t, without, pos, 4))
}

func TestSearchCancelled(t *testing.T) {
	is := is.New(t)
	pos, err := game.NewEmptyPosition(6, 4)
	is.NoErr(err)
	pos.Place(2, 2, board.First)
	tt := NewTranspositionTable(MinSizePowerOf2)
	s := NewSolver(nil, tt)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ScoreMove(ctx, pos, board.Coord{Row: 2, Col: 3}, 8)
	is.True(errors.Is(err, context.Canceled))
	is.Equal(tt.Stats().Created, uint64(0))
	is.Equal(pos.Board().CountOf(board.Second), 0)
}

func TestHeuristic(t *testing.T) {
	is := is.New(t)
	pos := mustPosition(t, []string{
		".....",
		".XX..",
		"..O..",
		".....",
		".....",
	}, 4)
	x := Heuristic(pos, board.First)
	o := Heuristic(pos, board.Second)
	is.Equal(x, -o)
	is.True(x > 0)

	empty, err := game.NewEmptyPosition(5, 4)
	is.NoErr(err)
	is.Equal(Heuristic(empty, board.First), 0)
}

func BenchmarkSearch5x5(b *testing.B) {
	pos := mustPosition(b, []string{
		".....",
		".XO..",
		"..X..",
		"...O.",
		".....",
	}, 4)
	for i := 0; i < b.N; i++ {
		s := NewSolver(nil, NewTranspositionTable(16))
		for _, c := range s.Filters().Candidates(pos) {
			if _, err := s.ScoreMove(context.Background(), pos, c, 4); err != nil {
				b.Fatal(err)
			}
		}
	}
}

func TestHeuristicLongWindows(t *testing.T) {
	is := is.New(t)
	is.Equal(windowWeight(20), int64(1)<<40)
	is.True(windowWeight(16) > 0)

	// 19 of 20 in a row on a 32x32 board saturates the heuristic
	b, err := board.New(32)
	is.NoErr(err)
	for c := 0; c < 19; c++ {
		b.Set(0, c, board.First)
	}
	placed := 0
	for r := 30; r < 32 && placed < 19; r++ {
		for c := 0; c < 32 && placed < 19; c += 2 {
			b.Set(r, c, board.Second)
			placed++
		}
	}
	pos, err := game.NewPosition(b, 20)
	is.NoErr(err)
	is.True(!pos.IsGameOver())
	is.Equal(Heuristic(pos, board.First), HeuristicCap)
	is.Equal(Heuristic(pos, board.Second), -HeuristicCap)
}

func TestRootChildTraceLogging(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	oldLogger := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() {
		log.Logger = oldLogger
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}()

	pos := mustPosition(t, []string{"XX.", "OO.", "..."}, 3)
	s := NewSolver(nil, nil)

	_, err := s.Search(context.Background(), pos, board.First, -Infinity, Infinity, 1, 3)
	is.NoErr(err)
	is.Equal(buf.Len(), 0)

	zerolog.SetGlobalLevel(zerolog.TraceLevel)
	_, err = s.Search(context.Background(), pos, board.First, -Infinity, Infinity, 1, 3)
	is.NoErr(err)
	is.True(strings.Contains(buf.String(), "searched-root-child"))
	is.True(strings.Contains(buf.String(), pos.Key()))
}
