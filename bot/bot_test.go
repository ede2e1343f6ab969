package bot

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func testBot() *Bot {
	opts := player.DefaultOptions()
	opts.TimeLimit = 0
	opts.MaxDepth = 4
	opts.TTSizePowerOf2 = 12
	return NewBot(player.New(opts))
}

func TestHandleWinningMove(t *testing.T) {
	is := is.New(t)
	data, err := json.Marshal(MoveRequest{Rows: []string{"XX.", "OO.", "..."}, WinLength: 3})
	is.NoErr(err)
	resp := testBot().handle(context.Background(), data)
	is.Equal(resp.Error, "")
	is.Equal(resp.Row, 0)
	is.Equal(resp.Col, 2)
	is.Equal(resp.Player, "X")

	pos, err := game.FromRows([]string{"XX.", "OO.", "..."}, 3)
	is.NoErr(err)
	out, err := json.Marshal(resp)
	is.NoErr(err)
	m, err := parseResponse(out, pos)
	is.NoErr(err)
	is.Equal(m.Coord(), board.Coord{Row: 0, Col: 2})
	is.Equal(m.Player(), board.First)
}

func TestHandleBadRequests(t *testing.T) {
	is := is.New(t)
	b := testBot()
	resp := b.handle(context.Background(), []byte("{"))
	is.True(resp.Error != "")

	data, _ := json.Marshal(MoveRequest{Rows: []string{"XX.", "...", "..."}, WinLength: 3})
	resp = b.handle(context.Background(), data)
	is.True(resp.Error != "")

	data, _ = json.Marshal(MoveRequest{Rows: []string{"XXX", "OO.", "..."}, WinLength: 3})
	resp = b.handle(context.Background(), data)
	is.True(resp.NoMove)

	pos, _ := game.FromRows([]string{"XXX", "OO.", "..."}, 3)
	out, _ := json.Marshal(resp)
	m, err := parseResponse(out, pos)
	is.NoErr(err)
	is.True(m == nil)

	_, err = parseResponse([]byte(`{"error":"nope"}`), pos)
	is.True(err != nil)
}

// TestServe needs a NATS server, e.g. TEST_NATS_URL=nats://localhost:4222.
func TestServe(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		t.Skip("TEST_NATS_URL not set")
	}
	is := is.New(t)
	nc, err := nats.Connect(url)
	is.NoErr(err)
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	subject := "tictactoe.test." + nats.NewInbox()
	go testBot().Serve(ctx, nc, subject)
	time.Sleep(100 * time.Millisecond)

	pos, err := game.FromRows([]string{"XX.", "OO.", "..."}, 3)
	is.NoErr(err)
	reqCtx, reqCancel := context.WithTimeout(ctx, 5*time.Second)
	defer reqCancel()
	m, err := NewClient(nc, subject).RequestMove(reqCtx, pos, 500)
	is.NoErr(err)
	is.Equal(m.Coord(), board.Coord{Row: 0, Col: 2})
}
