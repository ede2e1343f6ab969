// Package shell is an interactive console for playing against the engine
// and inspecting its decisions.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/config"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/gamelog"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/move"
)

var (
	errNoData            = errors.New("no data in line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("no game in progress; use new")
	errExit              = errors.New("exit requested")
)

type ShellController struct {
	l   *readline.Instance
	out io.Writer

	config *config.Config
	player *player.SearchPlayer

	pos     *game.Position
	history []*move.Move

	// optional game records
	store       *gamelog.Store
	localGameID int64
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func showMessage(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

// NewShellController creates a controller with a readline console.
func NewShellController(cfg *config.Config) (*ShellController, error) {
	sc, err := newController(cfg, os.Stdout)
	if err != nil {
		return nil, err
	}
	sc.l, err = readline.NewEx(&readline.Config{
		Prompt:          "\033[32mtictactoe>\033[0m ",
		HistoryFile:     filepath.Join(os.TempDir(), "tictactoe_readline.tmp"),
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return nil, err
	}
	sc.out = sc.l.Stdout()
	return sc, nil
}

func newController(cfg *config.Config, out io.Writer) (*ShellController, error) {
	sc := &ShellController{config: cfg, out: out}
	if err := sc.rebuildPlayer(); err != nil {
		return nil, err
	}
	return sc, nil
}

func (sc *ShellController) rebuildPlayer() error {
	opts, err := sc.config.SearchOptions()
	if err != nil {
		return err
	}
	sc.player = player.New(opts)
	return nil
}

// SetGameLog makes the shell record every game it plays.
func (sc *ShellController) SetGameLog(store *gamelog.Store) {
	sc.store = store
}

func (sc *ShellController) showMessage(msg string) {
	showMessage(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its arguments and its
// "-option value" pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := &shellcmd{cmd: fields[0], options: map[string]string{}}
	for i := 1; i < len(fields); i++ {
		f := fields[i]
		if strings.HasPrefix(f, "-") && len(f) > 1 {
			if _, err := strconv.Atoi(f); err == nil {
				// a negative number is an argument
				cmd.args = append(cmd.args, f)
				continue
			}
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			cmd.options[f[1:]] = fields[i+1]
			i++
			continue
		}
		cmd.args = append(cmd.args, f)
	}
	return cmd, nil
}

// Execute runs one command line.
func (sc *ShellController) Execute(ctx context.Context, line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "quit":
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(ctx, cmd)
	case "play", "p":
		return sc.play(ctx, cmd)
	case "ai":
		return sc.aiplay(ctx, cmd)
	case "auto", "autoplay":
		return sc.autoplay(ctx, cmd)
	case "undo":
		return sc.undo(cmd)
	case "show":
		return sc.show(cmd)
	case "hash":
		return sc.hash(cmd)
	case "set":
		return sc.set(cmd)
	case "stats":
		return sc.stats(cmd)
	}
	return nil, fmt.Errorf("command %v not found", strconv.Quote(cmd.cmd))
}

func (sc *ShellController) Loop(ctx context.Context, sig chan os.Signal) {
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		resp, err := sc.Execute(ctx, line)
		if errors.Is(err, errExit) {
			sig <- syscall.SIGINT
			break
		}
		if err != nil {
			sc.showError(err)
			continue
		}
		if resp != nil && resp.message != "" {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msg("exiting-readline-loop")
}
