// Package player chooses moves for the player on turn by running an
// iteratively deepened alpha-beta search over the root candidates.
package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/candidates"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/search"
)

const (
	TTPerDecision = "per-decision"
	TTPerGame     = "per-game"
)

// Options configures a SearchPlayer. The zero value of every field other
// than Filters and Threads is usable.
type Options struct {
	// TimeLimit bounds a single decision. 0 means no limit.
	TimeLimit time.Duration
	// MaxDepth caps the iterative deepening. 0 means up to the number of
	// empty squares.
	MaxDepth int
	// Threads is the number of root candidates searched at once.
	Threads        int
	RandomTieBreak bool
	// Shuffle randomizes the root candidate order before searching.
	Shuffle bool

	UseTranspositionTable bool
	TTLifetime            string
	// TTSizePowerOf2 sets the table size directly. If 0 the size comes
	// from TTMemoryFraction.
	TTSizePowerOf2   int
	TTMemoryFraction float64

	DisablePruning bool
	Filters        *candidates.Pipeline
}

func DefaultOptions() Options {
	return Options{
		TimeLimit:             5 * time.Second,
		Threads:               max(1, runtime.NumCPU()),
		UseTranspositionTable: true,
		TTLifetime:            TTPerDecision,
		TTMemoryFraction:      0.05,
		Filters:               candidates.DefaultPipeline(),
	}
}

// Decision is the outcome of ChooseMove.
type Decision struct {
	// Move is nil if there was nothing to play.
	Move *move.Move
	// Scored holds every root candidate with its score at CompletedDepth.
	Scored         []*move.Move
	CompletedDepth int
	// Opening is set when the center was played on an empty board.
	Opening bool
	// TimedOut is set when the time limit or the context stopped the
	// search before the depth cap.
	TimedOut bool
	// Fallback is set when no depth completed and Move was picked at random.
	Fallback bool
	Nodes    uint64
	Elapsed  time.Duration
}

func (d *Decision) String() string {
	if d.Move == nil {
		return "no move"
	}
	s := fmt.Sprintf("%s depth %d nodes %d in %s", d.Move.ShortDescription(),
		d.CompletedDepth, d.Nodes, d.Elapsed.Round(time.Millisecond))
	switch {
	case d.Opening:
		s += " (opening)"
	case d.Fallback:
		s += " (random fallback)"
	case d.TimedOut:
		s += " (timed out)"
	}
	return s
}

// SearchPlayer picks moves with a search.Solver. It is not safe for
// concurrent ChooseMove calls; the search itself is parallel.
type SearchPlayer struct {
	opts      Options
	solver    *search.Solver
	ttable    *search.TranspositionTable
	logStream io.Writer
}

// New creates a player. A transposition table is allocated up front if the
// options ask for one.
func New(opts Options) *SearchPlayer {
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.Filters == nil {
		opts.Filters = candidates.DefaultPipeline()
	}
	if opts.TTLifetime == "" {
		opts.TTLifetime = TTPerDecision
	}
	p := &SearchPlayer{opts: opts}
	if opts.UseTranspositionTable {
		size := opts.TTSizePowerOf2
		if size == 0 {
			size = search.SizeForMemory(opts.TTMemoryFraction)
		}
		p.ttable = search.NewTranspositionTable(size)
		log.Debug().Int("size", p.ttable.Size()).Str("lifetime", opts.TTLifetime).
			Msg("transposition-table-allocated")
	}
	p.solver = search.NewSolver(opts.Filters, p.ttable)
	p.solver.SetPruning(!opts.DisablePruning)
	return p
}

func (p *SearchPlayer) Options() Options {
	return p.opts
}

// SetLogStream makes the player write a YAML record of every completed
// depth to w. Pass nil to turn it off.
func (p *SearchPlayer) SetLogStream(w io.Writer) {
	p.logStream = w
}

// NewGame drops anything remembered from a previous game.
func (p *SearchPlayer) NewGame() {
	if p.ttable != nil {
		p.ttable.Reset()
	}
}

// TableStats returns the transposition table counters, or zero stats if
// there is no table.
func (p *SearchPlayer) TableStats() search.Stats {
	if p.ttable == nil {
		return search.Stats{}
	}
	return p.ttable.Stats()
}

// ChooseMove returns the move to play for the player on turn in pos. pos is
// not modified. ChooseMove always returns a Decision; running out of time
// is reported in the Decision, not as an error.
func (p *SearchPlayer) ChooseMove(ctx context.Context, pos *game.Position) *Decision {
	start := time.Now()
	if p.opts.TimeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.TimeLimit)
		defer cancel()
	}
	onturn := pos.NextPlayer()

	if pos.IsGameOver() {
		log.Debug().Msg("no-move-game-over")
		return &Decision{Elapsed: time.Since(start)}
	}
	if pos.Board().IsEmpty() {
		c := pos.Center()
		return &Decision{
			Move:    move.NewPlayerMove(c.Row, c.Col, onturn),
			Opening: true,
			Elapsed: time.Since(start),
		}
	}

	cands := p.opts.Filters.Candidates(pos)
	if len(cands) == 0 {
		return &Decision{Elapsed: time.Since(start)}
	}
	if p.opts.Shuffle {
		frand.Shuffle(len(cands), func(i, j int) {
			cands[i], cands[j] = cands[j], cands[i]
		})
	}
	p.prepareTable(pos)

	depthCap := pos.Board().CountEmpty()
	if p.opts.MaxDepth > 0 && p.opts.MaxDepth < depthCap {
		depthCap = p.opts.MaxDepth
	}

	p.solver.ResetNodes()
	decision := &Decision{}
	var scores []int
	for d := 1; d <= depthCap; d++ {
		log.Debug().Int("plies", d).Int("candidates", len(cands)).Msg("deepening-iteratively")
		s, err := p.searchDepth(ctx, pos, cands, d)
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
				log.Err(err).Msg("search-failed")
			}
			decision.TimedOut = true
			break
		}
		scores = s
		decision.CompletedDepth = d
		p.logDepth(d, cands, scores)

		if search.IsWinScore(lo.Max(scores)) {
			log.Debug().Int("plies", d).Msg("found-forced-win")
			break
		}
		if lo.EveryBy(scores, search.IsLossScore) {
			log.Debug().Int("plies", d).Msg("every-move-loses")
			break
		}
	}
	decision.Nodes = p.solver.Nodes()

	if decision.CompletedDepth == 0 {
		c := cands[frand.Intn(len(cands))]
		decision.Move = move.NewPlayerMove(c.Row, c.Col, onturn)
		decision.Fallback = true
		decision.Elapsed = time.Since(start)
		log.Warn().Str("move", decision.Move.ShortDescription()).Msg("no-depth-completed-playing-random")
		return decision
	}

	decision.Scored = lo.Map(cands, func(c board.Coord, i int) *move.Move {
		m := move.NewPlayerMove(c.Row, c.Col, onturn)
		m.SetScore(scores[i])
		return m
	})
	// callers may play or rescore Move without touching Scored
	decision.Move = decision.Scored[p.selectBest(cands, scores, pos.Dim())].Copy()
	decision.Elapsed = time.Since(start)
	log.Info().
		Str("move", decision.Move.ShortDescription()).
		Int("score", decision.Move.Score()).
		Int("depth", decision.CompletedDepth).
		Uint64("nodes", decision.Nodes).
		Bool("timed-out", decision.TimedOut).
		Dur("elapsed", decision.Elapsed).
		Msg("chose-move")
	return decision
}

// searchDepth scores every candidate to maxDepth. Each candidate is searched
// on its own copy of pos. Any task failing (normally a deadline) fails the
// whole depth.
func (p *SearchPlayer) searchDepth(ctx context.Context, pos *game.Position,
	cands []board.Coord, maxDepth int) ([]int, error) {

	scores := make([]int, len(cands))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Threads)
	for i, c := range cands {
		i, c := i, c
		g.Go(func() error {
			v, err := p.solver.ScoreMove(gctx, pos.Copy(), c, maxDepth)
			if err != nil {
				return err
			}
			scores[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// selectBest returns the index of the best score. Ties go to a random pick
// or, without RandomTieBreak, to the candidate nearest the center and then
// the first in row-major order.
func (p *SearchPlayer) selectBest(cands []board.Coord, scores []int, dim int) int {
	top := lo.Max(scores)
	var tied []int
	for i, s := range scores {
		if s == top {
			tied = append(tied, i)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	if p.opts.RandomTieBreak {
		return tied[frand.Intn(len(tied))]
	}
	sort.Slice(tied, func(i, j int) bool {
		a, b := cands[tied[i]], cands[tied[j]]
		da, db := candidates.CenterDistance(a, dim), candidates.CenterDistance(b, dim)
		if da != db {
			return da < db
		}
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return tied[0]
}

func (p *SearchPlayer) prepareTable(pos *game.Position) {
	if p.ttable == nil {
		return
	}
	reset := p.ttable.Bind(pos.Dim(), pos.WinLength())
	if !reset && p.opts.TTLifetime == TTPerDecision {
		p.ttable.Reset()
	}
}
