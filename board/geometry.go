package board

import (
	"sort"
	"sync"
)

// A Line is a maximal row, column, diagonal or anti-diagonal, given as
// row-major square indices in order along the line.
type Line []int

// geometry holds everything about a board that depends only on its dimension.
type geometry struct {
	dim         int
	coords      []Coord
	neighbors   [][]Coord
	neighborIdx [][]int
	// lines are sorted by length, longest first. atLeast[n] is the number of
	// lines with at least n squares, for n in [0, dim+1].
	lines   []Line
	atLeast []int
}

type geometryCache struct {
	sync.Mutex
	byDim map[int]*geometry
}

var geometries = &geometryCache{byDim: make(map[int]*geometry)}

func geometryFor(dim int) *geometry {
	geometries.Lock()
	defer geometries.Unlock()
	if g, ok := geometries.byDim[dim]; ok {
		return g
	}
	g := newGeometry(dim)
	geometries.byDim[dim] = g
	return g
}

var neighborOffsets = [8][2]int{
	{-1, -1}, {-1, 0}, {-1, 1},
	{0, -1}, {0, 1},
	{1, -1}, {1, 0}, {1, 1},
}

func newGeometry(dim int) *geometry {
	g := &geometry{
		dim:         dim,
		coords:      make([]Coord, dim*dim),
		neighbors:   make([][]Coord, dim*dim),
		neighborIdx: make([][]int, dim*dim),
	}
	inBounds := func(r, c int) bool {
		return r >= 0 && c >= 0 && r < dim && c < dim
	}
	for r := 0; r < dim; r++ {
		for c := 0; c < dim; c++ {
			idx := r*dim + c
			g.coords[idx] = Coord{Row: r, Col: c}
			for _, off := range neighborOffsets {
				nr, nc := r+off[0], c+off[1]
				if !inBounds(nr, nc) {
					continue
				}
				g.neighbors[idx] = append(g.neighbors[idx], Coord{Row: nr, Col: nc})
				g.neighborIdx[idx] = append(g.neighborIdx[idx], nr*dim+nc)
			}
		}
	}

	walk := func(r, c, dr, dc int) Line {
		var l Line
		for inBounds(r, c) {
			l = append(l, r*dim+c)
			r += dr
			c += dc
		}
		return l
	}
	// rows and columns
	for i := 0; i < dim; i++ {
		g.lines = append(g.lines, walk(i, 0, 0, 1))
		g.lines = append(g.lines, walk(0, i, 1, 0))
	}
	// diagonals (down-right), starting from the top row and the left column
	for c := 0; c < dim; c++ {
		g.lines = append(g.lines, walk(0, c, 1, 1))
	}
	for r := 1; r < dim; r++ {
		g.lines = append(g.lines, walk(r, 0, 1, 1))
	}
	// anti-diagonals (down-left), starting from the top row and the right column
	for c := 0; c < dim; c++ {
		g.lines = append(g.lines, walk(0, c, 1, -1))
	}
	for r := 1; r < dim; r++ {
		g.lines = append(g.lines, walk(r, dim-1, 1, -1))
	}

	sort.SliceStable(g.lines, func(i, j int) bool {
		return len(g.lines[i]) > len(g.lines[j])
	})
	g.atLeast = make([]int, dim+2)
	for n := 0; n <= dim+1; n++ {
		g.atLeast[n] = sort.Search(len(g.lines), func(i int) bool {
			return len(g.lines[i]) < n
		})
	}
	return g
}

func (g *geometry) linesAtLeast(minLength int) []Line {
	if minLength < 0 {
		minLength = 0
	}
	if minLength > g.dim+1 {
		minLength = g.dim + 1
	}
	n := g.atLeast[minLength]
	return g.lines[:n:n]
}
