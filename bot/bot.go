// Package bot serves engine moves over NATS request/reply.
package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

// MoveRequest asks for a move in the position given by Rows (display text,
// "X", "O" and "."). TimeLimitMs, if set, further limits this one decision.
type MoveRequest struct {
	Rows        []string `json:"rows"`
	WinLength   int      `json:"win_length"`
	TimeLimitMs int      `json:"time_limit_ms,omitempty"`
}

// MoveResponse is the answer to a MoveRequest. NoMove is set when the game
// is already over.
type MoveResponse struct {
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Player   string `json:"player,omitempty"`
	Score    int    `json:"score"`
	Depth    int    `json:"depth"`
	Fallback bool   `json:"fallback,omitempty"`
	NoMove   bool   `json:"no_move,omitempty"`
	Error    string `json:"error,omitempty"`
}

func errorResponse(message string, err error) *MoveResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &MoveResponse{Error: msg}
}

// Bot answers move requests one at a time with a single SearchPlayer.
type Bot struct {
	sync.Mutex
	player *player.SearchPlayer
}

func NewBot(p *player.SearchPlayer) *Bot {
	return &Bot{player: p}
}

func (bot *Bot) handle(ctx context.Context, data []byte) *MoveResponse {
	req := MoveRequest{}
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse("Could not parse request", err)
	}
	pos, err := game.FromRows(req.Rows, req.WinLength)
	if err != nil {
		return errorResponse("Invalid position", err)
	}
	if req.TimeLimitMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeLimitMs)*time.Millisecond)
		defer cancel()
	}

	bot.Lock()
	decision := bot.player.ChooseMove(ctx, pos)
	bot.Unlock()

	if decision.Move == nil {
		return &MoveResponse{NoMove: true}
	}
	log.Info().Str("decision", decision.String()).Msg("generated-move")
	return &MoveResponse{
		Row:      decision.Move.Row(),
		Col:      decision.Move.Col(),
		Player:   decision.Move.Player().String(),
		Score:    decision.Move.Score(),
		Depth:    decision.CompletedDepth,
		Fallback: decision.Fallback,
	}
}

// Serve answers requests on subject until ctx is done.
func (bot *Bot) Serve(ctx context.Context, nc *nats.Conn, subject string) error {
	sub, err := nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Msg("received-request")
		resp := bot.handle(ctx, m.Data)
		data, err := json.Marshal(resp)
		if err != nil {
			// Should never happen, but the requester still needs an answer.
			data = []byte(fmt.Sprintf(`{"error": %q}`, err.Error()))
		}
		if err := m.Respond(data); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Str("subject", subject).Msg("listening")
	<-ctx.Done()
	log.Info().Msg("bot-shutting-down")
	return nil
}
