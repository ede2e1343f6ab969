package bot

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
)

type Client struct {
	// NATS connection
	nc      *nats.Conn
	subject string
}

func NewClient(nc *nats.Conn, subject string) *Client {
	return &Client{nc: nc, subject: subject}
}

func MakeRequest(pos *game.Position, timeLimitMs int) ([]byte, error) {
	return json.Marshal(&MoveRequest{
		Rows:        pos.Board().Rows(),
		WinLength:   pos.WinLength(),
		TimeLimitMs: timeLimitMs,
	})
}

// RequestMove sends a position to the bot and gets a move back. A nil move
// with a nil error means the game is over. ctx should carry a deadline.
func (c *Client) RequestMove(ctx context.Context, pos *game.Position, timeLimitMs int) (*move.Move, error) {
	data, err := MakeRequest(pos, timeLimitMs)
	if err != nil {
		return nil, err
	}
	res, err := c.nc.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		log.Err(err).Str("subject", c.subject).Msg("request-failed")
		return nil, err
	}
	return parseResponse(res.Data, pos)
}

func parseResponse(data []byte, pos *game.Position) (*move.Move, error) {
	resp := MoveResponse{}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("Bot returned: " + resp.Error)
	}
	if resp.NoMove {
		return nil, nil
	}
	m := move.NewPlayerMove(resp.Row, resp.Col, pos.NextPlayer())
	m.SetScore(resp.Score)
	return m, nil
}
