package shell

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/config"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/gamelog"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
)

// settable are the config keys the set command accepts.
var settable = []string{
	config.ConfigBoardDim,
	config.ConfigWinLength,
	config.ConfigSearchTimeLimit,
	config.ConfigSearchMaxDepth,
	config.ConfigSearchThreads,
	config.ConfigSearchRandomTieBreak,
	config.ConfigSearchShuffle,
	config.ConfigSearchPruning,
	config.ConfigFilterStrategy,
	config.ConfigFilterComposed,
	config.ConfigTTEnabled,
	config.ConfigTTLifetime,
	config.ConfigTTSizePowerOf2,
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(usage()), nil
	}
	return msg(usageTopic(cmd.args[0])), nil
}

// new [dim] [winlength]
func (sc *ShellController) newGame(ctx context.Context, cmd *shellcmd) (*Response, error) {
	dim := sc.config.GetInt(config.ConfigBoardDim)
	win := sc.config.GetInt(config.ConfigWinLength)
	var err error
	if len(cmd.args) > 0 {
		if dim, err = strconv.Atoi(cmd.args[0]); err != nil {
			return nil, err
		}
		win = min(dim, win)
	}
	if len(cmd.args) > 1 {
		if win, err = strconv.Atoi(cmd.args[1]); err != nil {
			return nil, err
		}
	}
	pos, err := game.NewEmptyPosition(dim, win)
	if err != nil {
		return nil, err
	}
	sc.pos = pos
	sc.history = nil
	sc.player.NewGame()
	sc.localGameID = 0
	if sc.store != nil {
		id, err := sc.store.CreateGame(ctx, "", dim, win)
		if err != nil {
			log.Warn().Err(err).Msg("game-log-unavailable")
		} else {
			sc.localGameID = id
		}
	}
	return msg(sc.pos.ToDisplayText()), nil
}

// play <row> <col> or play row,col
func (sc *ShellController) play(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoGame
	}
	if len(cmd.args) == 0 {
		return nil, errors.New("usage: play <row> <col>")
	}
	m, err := move.ParseMove(strings.Join(cmd.args, " "))
	if err != nil {
		return nil, err
	}
	if err := sc.commit(ctx, m, gamelog.MoveStats{}); err != nil {
		return nil, err
	}
	return msg(sc.pos.ToDisplayText()), nil
}

// ai makes the engine move for the player on turn.
func (sc *ShellController) aiplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoGame
	}
	d, err := sc.engineMove(ctx)
	if err != nil {
		return nil, err
	}
	return msg(d.String() + "\n" + sc.pos.ToDisplayText()), nil
}

// auto [-moves N] has the engine play both sides until the game is over.
func (sc *ShellController) autoplay(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoGame
	}
	limit := -1
	if v, ok := cmd.options["moves"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		limit = n
	}
	var lines []string
	for limit != 0 && !sc.pos.IsGameOver() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		d, err := sc.engineMove(ctx)
		if err != nil {
			return nil, err
		}
		lines = append(lines, d.String())
		limit--
	}
	lines = append(lines, sc.pos.ToDisplayText())
	return msg(strings.Join(lines, "\n")), nil
}

func (sc *ShellController) engineMove(ctx context.Context) (*player.Decision, error) {
	d := sc.player.ChooseMove(ctx, sc.pos)
	if d.Move == nil {
		return nil, errors.New("no move available; the game is over")
	}
	err := sc.commit(ctx, d.Move, gamelog.MoveStats{
		Depth:   d.CompletedDepth,
		Nodes:   d.Nodes,
		Elapsed: d.Elapsed,
	})
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (sc *ShellController) commit(ctx context.Context, m *move.Move, stats gamelog.MoveStats) error {
	if err := sc.pos.PlayMove(m); err != nil {
		return err
	}
	sc.history = append(sc.history, m)
	if sc.store == nil || sc.localGameID == 0 {
		return nil
	}
	if err := sc.store.RecordMove(ctx, sc.localGameID, m, stats); err != nil {
		log.Warn().Err(err).Msg("record-move-failed")
	}
	if sc.pos.IsGameOver() {
		if err := sc.store.FinishGame(ctx, sc.localGameID, sc.pos.Winner()); err != nil {
			log.Warn().Err(err).Msg("finish-game-failed")
		}
	}
	return nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoGame
	}
	if len(sc.history) == 0 {
		return nil, errors.New("nothing to undo")
	}
	last := sc.history[len(sc.history)-1]
	sc.history = sc.history[:len(sc.history)-1]
	sc.pos.Unplace(last.Row(), last.Col())
	return msg(sc.pos.ToDisplayText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoGame
	}
	s := sc.pos.ToDisplayText()
	if len(sc.history) > 0 {
		s += "moves: " + strings.Join(lo.Map(sc.history, func(m *move.Move, _ int) string {
			return m.ShortDescription()
		}), " ") + "\n"
	}
	return msg(s), nil
}

func (sc *ShellController) hash(cmd *shellcmd) (*Response, error) {
	if sc.pos == nil {
		return nil, errNoGame
	}
	return msg(sc.pos.Key()), nil
}

// set <key> <value>, or set alone to list the settings.
func (sc *ShellController) set(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		var sb strings.Builder
		for _, k := range settable {
			fmt.Fprintf(&sb, "%-24s %v\n", k, sc.config.Get(k))
		}
		return msg(sb.String()), nil
	}
	key := cmd.args[0]
	if !lo.Contains(settable, key) {
		return nil, fmt.Errorf("%w: cannot set %q", board.ErrConfiguration, key)
	}
	if len(cmd.args) == 1 {
		return msg(fmt.Sprintf("%v", sc.config.Get(key))), nil
	}
	old := sc.config.Get(key)
	sc.config.Set(key, cmd.args[1])
	if err := sc.rebuildPlayer(); err != nil {
		sc.config.Set(key, old)
		return nil, err
	}
	return msg("set " + key + " to " + cmd.args[1]), nil
}

func (sc *ShellController) stats(cmd *shellcmd) (*Response, error) {
	st := sc.player.TableStats()
	return msg(fmt.Sprintf("tt created %d lookups %d hits %d collisions %d",
		st.Created, st.Lookups, st.Hits, st.Collisions)), nil
}
