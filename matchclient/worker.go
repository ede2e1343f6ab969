package matchclient

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/gamelog"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
)

// WorkerConfig holds configuration for the match worker
type WorkerConfig struct {
	GameID string
	TeamID string
	// MoveFirst is set if our team makes the first move of the game.
	MoveFirst bool
	// FirstSymbol is the server's symbol for the first mover.
	FirstSymbol  string
	PollInterval time.Duration
}

// Worker plays one game on the match server: it polls the game and, when
// it is our turn, asks the player for a move and submits it.
type Worker struct {
	config *WorkerConfig
	client *Client
	player *player.SearchPlayer
	// optional
	store       *gamelog.Store
	localGameID int64
	movesMade   int
}

func NewWorker(cfg *WorkerConfig, client *Client, p *player.SearchPlayer) *Worker {
	if cfg.FirstSymbol == "" {
		cfg.FirstSymbol = "O"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	return &Worker{config: cfg, client: client, player: p}
}

// SetGameLog makes the worker record the game in store.
func (w *Worker) SetGameLog(store *gamelog.Store) {
	w.store = store
}

// Run polls until the game is over or ctx is done. The returned position is
// the final board.
func (w *Worker) Run(ctx context.Context) (*game.Position, error) {
	log.Info().
		Str("game-id", w.config.GameID).
		Str("team-id", w.config.TeamID).
		Bool("move-first", w.config.MoveFirst).
		Dur("poll-interval", w.config.PollInterval).
		Msg("starting match worker")

	w.player.NewGame()
	pollTicker := time.NewTicker(w.config.PollInterval)
	defer pollTicker.Stop()

	for {
		pos, done, err := w.step(ctx)
		if err != nil {
			log.Warn().Err(err).Str("game-id", w.config.GameID).Msg("match-step-failed")
		}
		if done {
			w.finish(ctx, pos)
			return pos, nil
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("match worker shutting down")
			return pos, ctx.Err()
		case <-pollTicker.C:
		}
	}
}

// step looks at the game once and moves if it is our turn. It returns true
// once the game is over.
func (w *Worker) step(ctx context.Context) (*game.Position, bool, error) {
	bs, err := w.client.GetBoard(ctx, w.config.GameID)
	if err != nil {
		return nil, false, err
	}
	pos, err := bs.Position(w.config.FirstSymbol)
	if err != nil {
		return nil, false, fmt.Errorf("bad board from server: %w", err)
	}
	if err := w.ensureRecord(ctx, pos); err != nil {
		log.Warn().Err(err).Msg("game-log-unavailable")
	}
	if pos.IsGameOver() {
		return pos, true, nil
	}
	ourTurn, err := w.ourTurn(ctx)
	if err != nil || !ourTurn {
		return pos, false, err
	}

	decision := w.player.ChooseMove(ctx, pos)
	if decision.Move == nil {
		return pos, true, nil
	}
	log.Info().Str("game-id", w.config.GameID).Str("decision", decision.String()).Msg("submitting-move")
	moveID, err := w.client.MakeMove(ctx, w.config.GameID, w.config.TeamID, decision.Move)
	if err != nil {
		return pos, false, err
	}
	log.Debug().Str("move-id", moveID).Msg("move-accepted")
	if err := pos.PlayMove(decision.Move); err != nil {
		return pos, false, err
	}
	w.movesMade++
	w.record(ctx, decision.Move, gamelog.MoveStats{
		Depth:   decision.CompletedDepth,
		Nodes:   decision.Nodes,
		Elapsed: decision.Elapsed,
	})
	return pos, pos.IsGameOver(), nil
}

func (w *Worker) ourTurn(ctx context.Context) (bool, error) {
	moves, err := w.client.GetMoves(ctx, w.config.GameID, 1)
	if err != nil {
		return false, err
	}
	if len(moves) == 0 {
		return w.config.MoveFirst, nil
	}
	return moves[0].TeamID.String() != w.config.TeamID, nil
}

func (w *Worker) ensureRecord(ctx context.Context, pos *game.Position) error {
	if w.store == nil || w.localGameID != 0 {
		return nil
	}
	id, err := w.store.CreateGame(ctx, w.config.GameID, pos.Dim(), pos.WinLength())
	if err != nil {
		return err
	}
	w.localGameID = id
	return nil
}

func (w *Worker) record(ctx context.Context, m *move.Move, stats gamelog.MoveStats) {
	if w.store == nil || w.localGameID == 0 {
		return
	}
	if err := w.store.RecordMove(ctx, w.localGameID, m, stats); err != nil {
		log.Warn().Err(err).Msg("record-move-failed")
	}
}

func (w *Worker) finish(ctx context.Context, pos *game.Position) {
	winner := board.Empty
	if pos != nil {
		winner = pos.Winner()
	}
	log.Info().Str("game-id", w.config.GameID).Str("winner", winner.String()).
		Int("moves-made", w.movesMade).Msg("game-over")
	if w.store == nil || w.localGameID == 0 {
		return
	}
	if err := w.store.FinishGame(ctx, w.localGameID, winner); err != nil {
		log.Warn().Err(err).Msg("finish-game-failed")
	}
}
