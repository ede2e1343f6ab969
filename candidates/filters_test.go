package candidates

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"
	"lukechampine.com/frand"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

func mustPosition(t *testing.T, rows []string, win int) *game.Position {
	t.Helper()
	p, err := game.FromRows(rows, win)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestPopulatedNeighbor(t *testing.T) {
	is := is.New(t)
	p := mustPosition(t, []string{
		".....",
		".....",
		"..X..",
		".....",
		".....",
	}, 4)
	cands := DefaultPipeline().Candidates(p)
	is.Equal(len(cands), 8)
	for _, c := range cands {
		is.True(c.Row >= 1 && c.Row <= 3)
		is.True(c.Col >= 1 && c.Col <= 3)
	}
}

func TestEmptyBoardFallsBackToAllCells(t *testing.T) {
	is := is.New(t)
	p, err := game.NewEmptyPosition(4, 3)
	is.NoErr(err)
	// nothing has an occupied neighbor on an empty board, so the filter
	// output is discarded.
	is.Equal(len(DefaultPipeline().Candidates(p)), 16)
}

type rejectAll struct{}

func (rejectAll) Name() string { return "reject-all" }
func (rejectAll) Apply(*game.Position, []board.Coord) []board.Coord {
	return nil
}

func TestPipelineNeverStarves(t *testing.T) {
	is := is.New(t)
	for trial := 0; trial < 200; trial++ {
		dim := 3 + frand.Intn(4)
		p, err := game.NewEmptyPosition(dim, dim)
		is.NoErr(err)
		moves := frand.Intn(dim*dim - 1)
		perm := frand.Perm(dim * dim)
		for i := 0; i < moves; i++ {
			p.Place(perm[i]/dim, perm[i]%dim, p.NextPlayer())
		}
		pl := NewPipeline(PopulatedNeighbor, rejectAll{}, NearestCenter(2), rejectAll{})
		cands := pl.Candidates(p)
		is.True(len(cands) > 0)
		is.True(len(cands) <= 2)
		for _, c := range cands {
			is.Equal(p.Board().At(c.Row, c.Col), board.Empty)
		}
	}
}

func TestFullBoardHasNoCandidates(t *testing.T) {
	is := is.New(t)
	p := mustPosition(t, []string{"XOX", "XOO", "OXX"}, 3)
	is.Equal(len(DefaultPipeline().Candidates(p)), 0)
	is.Equal(len(NewPipeline().Candidates(p)), 0)
}

func TestWithinRadius(t *testing.T) {
	p := mustPosition(t, []string{
		"X......",
		".......",
		".......",
		".......",
		".......",
		".......",
		".......",
	}, 4)
	assert.Len(t, WithinRadius(1).Apply(p, p.Board().EmptyCells()), 3)
	assert.Len(t, WithinRadius(2).Apply(p, p.Board().EmptyCells()), 8)
	assert.Equal(t,
		PopulatedNeighbor.Apply(p, p.Board().EmptyCells()),
		WithinRadius(1).Apply(p, p.Board().EmptyCells()))
}

func TestNearestCenter(t *testing.T) {
	p, err := game.NewEmptyPosition(5, 4)
	assert.NoError(t, err)
	out := NearestCenter(5).Apply(p, p.Board().EmptyCells())
	assert.Equal(t, []board.Coord{{Row: 1, Col: 2}, {Row: 2, Col: 1}, {Row: 2, Col: 2}, {Row: 2, Col: 3}, {Row: 3, Col: 2}}, out)
	assert.Equal(t, 0, CenterDistance(board.Coord{Row: 2, Col: 2}, 5))
}

func TestParsePipeline(t *testing.T) {
	cases := []struct {
		strategy string
		composed string
		name     string
		wantErr  bool
	}{
		{StrategyPopulatedNeighbor, "", "populated-neighbor", false},
		{StrategyNone, "", "none", false},
		{StrategyComposed, "populated-neighbor, nearest-center:6", "populated-neighbor,nearest-center:6", false},
		{StrategyComposed, "radius:2", "radius:2", false},
		{StrategyComposed, "radius", "", true},
		{StrategyComposed, "radius:x", "", true},
		{StrategyComposed, "bogus", "", true},
		{"bogus", "", "", true},
	}
	for _, c := range cases {
		pl, err := ParsePipeline(c.strategy, c.composed)
		if c.wantErr {
			assert.Error(t, err, c.strategy+" "+c.composed)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, c.name, pl.String())
	}
}
