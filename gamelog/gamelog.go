// Package gamelog records games and their moves in a sqlite database.
package gamelog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
)

var ErrNoSuchGame = errors.New("no such game")

const schema = `
CREATE TABLE IF NOT EXISTS games (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	remote_id   TEXT NOT NULL DEFAULT '',
	dim         INTEGER NOT NULL,
	win_length  INTEGER NOT NULL,
	winner      TEXT NOT NULL DEFAULT '',
	finished    INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS moves (
	game_id     INTEGER NOT NULL REFERENCES games(id),
	ply         INTEGER NOT NULL,
	player      TEXT NOT NULL,
	sq_row      INTEGER NOT NULL,
	sq_col      INTEGER NOT NULL,
	score       INTEGER,
	depth       INTEGER NOT NULL DEFAULT 0,
	nodes       INTEGER NOT NULL DEFAULT 0,
	elapsed_ms  INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (game_id, ply)
);
`

// Store is a game record database.
type Store struct {
	db *sql.DB
}

// Game is one recorded game.
type Game struct {
	ID        int64
	RemoteID  string
	Dim       int
	WinLength int
	// Winner is board.Empty for a draw or an unfinished game.
	Winner    board.Occupant
	Finished  bool
	CreatedAt time.Time
}

// MoveStats is the search information kept next to a move. It is all
// zero for moves the engine did not choose.
type MoveStats struct {
	Depth   int
	Nodes   uint64
	Elapsed time.Duration
}

// Open opens (creating if needed) the database at path. ":memory:" gives a
// private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening game log: %w", err)
	}
	// an in-memory database exists per connection.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating game log schema: %w", err)
	}
	log.Debug().Str("path", path).Msg("opened-game-log")
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateGame starts a new game record and returns its id. remoteID is the
// match server's id for the game, if there is one.
func (s *Store) CreateGame(ctx context.Context, remoteID string, dim, winLength int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO games (remote_id, dim, win_length, created_at) VALUES (?, ?, ?, ?)`,
		remoteID, dim, winLength, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("creating game: %w", err)
	}
	return res.LastInsertId()
}

// RecordMove appends m to the game. The ply is the number of moves already
// recorded.
func (s *Store) RecordMove(ctx context.Context, gameID int64, m *move.Move, stats MoveStats) error {
	var score sql.NullInt64
	if m.HasScore() {
		score = sql.NullInt64{Int64: int64(m.Score()), Valid: true}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ply int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM moves WHERE game_id = ?`, gameID).Scan(&ply)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO moves (game_id, ply, player, sq_row, sq_col, score, depth, nodes, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		gameID, ply, m.Player().String(), m.Row(), m.Col(), score,
		stats.Depth, int64(stats.Nodes), stats.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("recording move %s: %w", m.ShortDescription(), err)
	}
	return tx.Commit()
}

// FinishGame marks the game over. winner is board.Empty for a draw.
func (s *Store) FinishGame(ctx context.Context, gameID int64, winner board.Occupant) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE games SET finished = 1, winner = ? WHERE id = ?`, winnerText(winner), gameID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}
	return nil
}

// Game fetches a game record.
func (s *Store) Game(ctx context.Context, gameID int64) (*Game, error) {
	g := &Game{ID: gameID}
	var winner string
	err := s.db.QueryRowContext(ctx,
		`SELECT remote_id, dim, win_length, winner, finished, created_at FROM games WHERE id = ?`,
		gameID).Scan(&g.RemoteID, &g.Dim, &g.WinLength, &winner, &g.Finished, &g.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchGame, gameID)
	}
	if err != nil {
		return nil, err
	}
	if winner != "" {
		g.Winner, err = board.OccupantFromString(winner)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Moves returns the moves of a game in the order they were played.
func (s *Store) Moves(ctx context.Context, gameID int64) ([]*move.Move, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT player, sq_row, sq_col, score FROM moves WHERE game_id = ? ORDER BY ply`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var moves []*move.Move
	for rows.Next() {
		var player string
		var r, c int
		var score sql.NullInt64
		if err := rows.Scan(&player, &r, &c, &score); err != nil {
			return nil, err
		}
		occ, err := board.OccupantFromString(player)
		if err != nil {
			return nil, err
		}
		m := move.NewPlayerMove(r, c, occ)
		if score.Valid {
			m.SetScore(int(score.Int64))
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

func winnerText(w board.Occupant) string {
	if w == board.Empty {
		return ""
	}
	return w.String()
}
