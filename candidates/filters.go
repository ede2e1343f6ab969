// Package candidates narrows the empty squares of a position down to the
// moves worth searching.
package candidates

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

const (
	StrategyPopulatedNeighbor = "populated-neighbor"
	StrategyNone              = "none"
	StrategyComposed          = "composed"
)

// A Filter narrows a list of candidate squares. It must return a subset of
// in and should keep its relative order.
type Filter interface {
	Name() string
	Apply(pos *game.Position, in []board.Coord) []board.Coord
}

type populatedNeighbor struct{}

// PopulatedNeighbor keeps squares with at least one occupied neighbor.
var PopulatedNeighbor Filter = populatedNeighbor{}

func (populatedNeighbor) Name() string { return StrategyPopulatedNeighbor }

func (populatedNeighbor) Apply(pos *game.Position, in []board.Coord) []board.Coord {
	b := pos.Board()
	return lo.Filter(in, func(c board.Coord, _ int) bool {
		return b.HasOccupiedNeighbor(c.Row, c.Col)
	})
}

type none struct{}

// None keeps everything.
var None Filter = none{}

func (none) Name() string { return StrategyNone }

func (none) Apply(pos *game.Position, in []board.Coord) []board.Coord {
	return in
}

type withinRadius struct {
	radius int
}

// WithinRadius keeps squares within radius (Chebyshev distance) of an
// occupied square. A radius of 1 is the same as PopulatedNeighbor.
func WithinRadius(radius int) Filter {
	return withinRadius{radius: radius}
}

func (f withinRadius) Name() string { return fmt.Sprintf("radius:%d", f.radius) }

func (f withinRadius) Apply(pos *game.Position, in []board.Coord) []board.Coord {
	b := pos.Board()
	return lo.Filter(in, func(c board.Coord, _ int) bool {
		for r := c.Row - f.radius; r <= c.Row+f.radius; r++ {
			for cc := c.Col - f.radius; cc <= c.Col+f.radius; cc++ {
				if b.InBounds(r, cc) && b.At(r, cc) != board.Empty {
					return true
				}
			}
		}
		return false
	})
}

type nearestCenter struct {
	n int
}

// NearestCenter keeps the n squares closest to the center of the board.
func NearestCenter(n int) Filter {
	return nearestCenter{n: n}
}

func (f nearestCenter) Name() string { return fmt.Sprintf("nearest-center:%d", f.n) }

func (f nearestCenter) Apply(pos *game.Position, in []board.Coord) []board.Coord {
	if len(in) <= f.n {
		return in
	}
	dim := pos.Dim()
	out := make([]board.Coord, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		return CenterDistance(out[i], dim) < CenterDistance(out[j], dim)
	})
	out = out[:f.n]
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// CenterDistance is the squared distance of c from the board center, doubled
// so that it stays an integer on even boards.
func CenterDistance(c board.Coord, dim int) int {
	dr := 2*c.Row - (dim - 1)
	dc := 2*c.Col - (dim - 1)
	return dr*dr + dc*dc
}

// Pipeline applies filters in sequence. If a filter would leave no
// candidates, its output is thrown away and the wider list is kept, so a
// position with empty squares always has candidates.
type Pipeline struct {
	filters []Filter
}

func NewPipeline(filters ...Filter) *Pipeline {
	return &Pipeline{filters: filters}
}

// DefaultPipeline is the populated-neighbor pipeline.
func DefaultPipeline() *Pipeline {
	return NewPipeline(PopulatedNeighbor)
}

// Candidates returns the filtered empty squares of pos in row-major order.
// Callers are expected to check for a finished game first; a full board
// simply has no candidates.
func (p *Pipeline) Candidates(pos *game.Position) []board.Coord {
	cands := pos.Board().EmptyCells()
	for _, f := range p.filters {
		if len(cands) == 0 {
			break
		}
		next := f.Apply(pos, cands)
		if len(next) == 0 {
			continue
		}
		cands = next
	}
	return cands
}

func (p *Pipeline) Filters() []Filter {
	return p.filters
}

func (p *Pipeline) String() string {
	if len(p.filters) == 0 {
		return StrategyNone
	}
	return strings.Join(lo.Map(p.filters, func(f Filter, _ int) string {
		return f.Name()
	}), ",")
}

// ParseFilter parses a single filter name such as "populated-neighbor",
// "none", "radius:2" or "nearest-center:12".
func ParseFilter(s string) (Filter, error) {
	name, arg, hasArg := strings.Cut(strings.TrimSpace(s), ":")
	var n int
	if hasArg {
		var err error
		n, err = strconv.Atoi(arg)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("bad argument for filter %q: %q", name, arg)
		}
	}
	switch name {
	case StrategyPopulatedNeighbor:
		return PopulatedNeighbor, nil
	case StrategyNone:
		return None, nil
	case "radius":
		if !hasArg {
			return nil, fmt.Errorf("filter radius needs an argument, e.g. radius:2")
		}
		return WithinRadius(n), nil
	case "nearest-center":
		if !hasArg {
			return nil, fmt.Errorf("filter nearest-center needs an argument, e.g. nearest-center:8")
		}
		return NearestCenter(n), nil
	}
	return nil, fmt.Errorf("unknown filter %q", name)
}

// ParsePipeline builds a pipeline from a filter strategy. The composed
// strategy takes a comma-separated list of filters in application order.
func ParsePipeline(strategy string, composed string) (*Pipeline, error) {
	switch strategy {
	case StrategyPopulatedNeighbor, "":
		return DefaultPipeline(), nil
	case StrategyNone:
		return NewPipeline(), nil
	case StrategyComposed:
		var filters []Filter
		for _, part := range strings.Split(composed, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := ParseFilter(part)
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		}
		log.Debug().Int("num-filters", len(filters)).Str("filters", composed).Msg("composed-filter-pipeline")
		return NewPipeline(filters...), nil
	}
	return nil, fmt.Errorf("unknown filter strategy %q", strategy)
}
