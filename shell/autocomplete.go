package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/candidates"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/config"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"auto": {
		Options: []string{"-moves"},
	},
	"set": {
		Args: settable,
	},
	"help": {
		Args: []string{"new", "play", "ai", "auto", "set", "stats"},
	},
}

var commandNames = []string{
	"help", "new", "play", "ai", "auto", "undo", "show", "hash", "set",
	"stats", "exit",
}

var boolValues = []string{"true", "false"}

// settingValues are the completions for the value of a set command.
var settingValues = map[string][]string{
	config.ConfigSearchRandomTieBreak: boolValues,
	config.ConfigSearchShuffle:        boolValues,
	config.ConfigSearchPruning:        boolValues,
	config.ConfigTTEnabled:            boolValues,
	config.ConfigTTLifetime:           {player.TTPerDecision, player.TTPerGame},
	config.ConfigFilterStrategy: {
		candidates.StrategyPopulatedNeighbor, candidates.StrategyNone, candidates.StrategyComposed,
	},
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		// unterminated quote
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		// arguments already typed, not counting the one being completed
		typed := fields[1:]
		if !endsWithSpace {
			typed = typed[:len(typed)-1]
		}

		if cmdName == "set" && len(typed) == 1 {
			completions = settingValues[typed[0]]
		} else if metadata, exists := commandMetadata[cmdName]; exists && len(typed) == 0 {
			if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
				completions = metadata.Options
			} else {
				completions = metadata.Args
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
