package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/config"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/gamelog"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

func testController(t *testing.T) *ShellController {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Set(config.ConfigSearchTimeLimit, 0)
	cfg.Set(config.ConfigSearchThreads, 2)
	cfg.Set(config.ConfigTTSizePowerOf2, 12)
	sc, err := newController(cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"auto -moves 3",
			&shellcmd{"auto", nil, map[string]string{"moves": "3"}},
			nil},
		{"play 1 2",
			&shellcmd{"play", []string{"1", "2"}, map[string]string{}},
			nil},
		{"set search-time-limit 0.5 ",
			&shellcmd{"set",
				[]string{"search-time-limit", "0.5"},
				map[string]string{}},
			nil,
		},
		{"play -1 2",
			&shellcmd{"play", []string{"-1", "2"}, map[string]string{}},
			nil},
		{"auto -moves",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestPlayAndUndo(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	ctx := context.Background()

	_, err := sc.Execute(ctx, "play 1 1")
	is.Equal(err, errNoGame)

	_, err = sc.Execute(ctx, "new")
	is.NoErr(err)
	_, err = sc.Execute(ctx, "play 1 1")
	is.NoErr(err)
	_, err = sc.Execute(ctx, "play 1,1")
	is.True(errors.Is(err, game.ErrIllegalMove))
	_, err = sc.Execute(ctx, "play 0,2")
	is.NoErr(err)
	is.Equal(sc.pos.Board().At(1, 1), board.First)
	is.Equal(sc.pos.Board().At(0, 2), board.Second)

	resp, err := sc.Execute(ctx, "hash")
	is.NoErr(err)
	is.Equal(resp.message, sc.pos.Key())

	_, err = sc.Execute(ctx, "undo")
	is.NoErr(err)
	is.Equal(sc.pos.Board().At(0, 2), board.Empty)
	is.Equal(sc.pos.NextPlayer(), board.Second)
	_, err = sc.Execute(ctx, "undo")
	is.NoErr(err)
	_, err = sc.Execute(ctx, "undo")
	is.True(err != nil)
}

func TestAIMove(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	ctx := context.Background()

	_, err := sc.Execute(ctx, "new")
	is.NoErr(err)
	for _, line := range []string{"play 0 0", "play 1 0", "play 0 1", "play 1 1"} {
		_, err = sc.Execute(ctx, line)
		is.NoErr(err)
	}
	resp, err := sc.Execute(ctx, "ai")
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "(0,2)"))
	is.True(sc.pos.IsGameOver())
	is.Equal(sc.pos.Winner(), board.First)

	_, err = sc.Execute(ctx, "ai")
	is.True(err != nil)
}

func TestAutoplayRecordsGame(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	ctx := context.Background()
	store, err := gamelog.Open(ctx, ":memory:")
	is.NoErr(err)
	defer store.Close()
	sc.SetGameLog(store)

	_, err = sc.Execute(ctx, "new 3 3")
	is.NoErr(err)
	_, err = sc.Execute(ctx, "auto")
	is.NoErr(err)
	is.True(sc.pos.IsGameOver())
	// perfect play on 3x3 is a draw
	is.Equal(sc.pos.Winner(), board.Empty)

	g, err := store.Game(ctx, sc.localGameID)
	is.NoErr(err)
	is.True(g.Finished)
	moves, err := store.Moves(ctx, sc.localGameID)
	is.NoErr(err)
	is.Equal(len(moves), len(sc.history))
}

func TestAutoplayMoveLimit(t *testing.T) {
	is := is.New(t)
	sc := testController(t)
	ctx := context.Background()
	_, err := sc.Execute(ctx, "new 4 3")
	is.NoErr(err)
	_, err = sc.Execute(ctx, "auto -moves 2")
	is.NoErr(err)
	is.Equal(len(sc.history), 2)
	is.Equal(sc.pos.Dim(), 4)
	is.Equal(sc.pos.WinLength(), 3)
}

func TestSet(t *testing.T) {
	sc := testController(t)
	ctx := context.Background()

	_, err := sc.Execute(ctx, "set search-max-depth 3")
	assert.NoError(t, err)
	assert.Equal(t, 3, sc.player.Options().MaxDepth)

	_, err = sc.Execute(ctx, "set tt-lifetime forever")
	assert.ErrorIs(t, err, board.ErrConfiguration)
	// the bad value is rolled back
	assert.Equal(t, "per-decision", sc.config.GetString(config.ConfigTTLifetime))

	_, err = sc.Execute(ctx, "set match-api-key secret")
	assert.ErrorIs(t, err, board.ErrConfiguration)

	resp, err := sc.Execute(ctx, "set")
	assert.NoError(t, err)
	assert.Contains(t, resp.message, config.ConfigSearchMaxDepth)

	_, err = sc.Execute(ctx, "bogus")
	assert.Error(t, err)
	_, err = sc.Execute(ctx, "exit")
	assert.ErrorIs(t, err, errExit)
}

func TestCompleter(t *testing.T) {
	is := is.New(t)
	c := NewShellCompleter(nil)

	complete := func(line string) []string {
		matches, _ := c.Do([]rune(line), len(line))
		out := make([]string, len(matches))
		for i, m := range matches {
			out[i] = string(m)
		}
		return out
	}
	is.Equal(complete("st"), []string{"ats"})
	is.Equal(complete("set tt-l"), []string{"ifetime"})
	is.Equal(complete("set tt-lifetime per-g"), []string{"ame"})
	is.Equal(complete("auto -"), []string{"moves"})
	is.Equal(len(complete("play 1 ")), 0)
}
