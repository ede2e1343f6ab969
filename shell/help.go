package shell

import (
	"sort"
	"strings"
)

const usageText = `Commands:
    new [dim] [winlength]   start a new game
    play <row> <col>        place a piece for the player on turn
    ai                      let the engine move for the player on turn
    auto [-moves N]         let the engine play both sides
    undo                    take back the last move
    show                    show the board and the moves so far
    hash                    show the position key
    set [key] [value]       show or change a search setting
    stats                   show transposition table counters
    help [topic]            show help for a command
    exit                    quit the shell
`

var helpTopics = map[string]string{
	"new": `new [dim] [winlength]

Starts an empty game. With no arguments the configured board-dim and
win-length are used. A new dimension alone keeps the configured win
length when it fits, otherwise the win length becomes the dimension.
`,
	"play": `play <row> <col>

Places a piece for the player on turn. Coordinates are zero-based and may
also be written as row,col. X always moves first.
`,
	"ai": `ai

Runs a timed iterative deepening search for the player on turn and plays
the chosen move. The search settings come from the set command.
`,
	"auto": `auto [-moves N]

Lets the engine play both sides until the game ends, or for N moves.
`,
	"set": `set [key] [value]

With no arguments, lists the search settings. With a key, shows its value.
With a key and a value, changes it and rebuilds the engine. Examples:

    set search-time-limit 2
    set search-max-depth 6
    set filter-strategy composed
    set filter-composed populated-neighbor,radius:2
    set tt-lifetime per-game
`,
	"stats": `stats

Shows how many entries the transposition table created and how many
lookups hit or collided.
`,
}

func usage() string {
	return usageText
}

func usageTopic(topic string) string {
	if t, ok := helpTopics[topic]; ok {
		return t
	}
	topics := make([]string, 0, len(helpTopics))
	for k := range helpTopics {
		topics = append(topics, k)
	}
	sort.Strings(topics)
	return "There is no help text for the topic " + topic +
		"\nTopics: " + strings.Join(topics, ", ")
}
