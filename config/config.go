package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/board"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/candidates"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/game"
)

const (
	ConfigDebug      = "debug"
	ConfigConfigFile = "config"

	ConfigBoardDim  = "board-dim"
	ConfigWinLength = "win-length"

	ConfigSearchTimeLimit      = "search-time-limit"
	ConfigSearchMaxDepth       = "search-max-depth"
	ConfigSearchThreads        = "search-threads"
	ConfigSearchRandomTieBreak = "search-random-tie-break"
	ConfigSearchShuffle        = "search-shuffle"
	ConfigSearchPruning        = "search-pruning"
	ConfigFilterStrategy       = "filter-strategy"
	ConfigFilterComposed       = "filter-composed"

	ConfigTTEnabled        = "tt-enabled"
	ConfigTTLifetime       = "tt-lifetime"
	ConfigTTMemoryFraction = "tt-memory-fraction"
	ConfigTTSizePowerOf2   = "tt-size-power-of-2"

	ConfigMatchServerURL    = "match-server-url"
	ConfigMatchAPIKey       = "match-api-key"
	ConfigMatchUserID       = "match-user-id"
	ConfigMatchTeamID       = "match-team-id"
	ConfigMatchOpponentID   = "match-opponent-team-id"
	ConfigMatchGameID       = "match-game-id"
	ConfigMatchPollInterval = "match-poll-interval"
	ConfigMatchMoveFirst    = "match-move-first"

	ConfigNatsURL    = "nats-url"
	ConfigBotSubject = "bot-subject"

	ConfigGameLogPath = "gamelog-path"
)

// EnvPrefix is prepended to every key, upper-cased with dashes turned into
// underscores, to form its environment variable: TICTACTOE_SEARCH_TIME_LIMIT.
const EnvPrefix = "tictactoe"

// Config is every setting of the engine and its binaries. Values come from,
// in order of precedence, command-line flags, environment variables, an
// optional YAML config file and the flag defaults.
type Config struct {
	*viper.Viper
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("tictactoe", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "turn on debug logging")
	fs.String(ConfigConfigFile, "", "path to a YAML config file")

	fs.Int(ConfigBoardDim, 3, "board dimension for new games")
	fs.Int(ConfigWinLength, 3, "number in a row needed to win")

	fs.Float64(ConfigSearchTimeLimit, 5, "seconds per move; 0 means no limit")
	fs.Int(ConfigSearchMaxDepth, 0, "maximum search depth in plies; 0 means no limit")
	fs.Int(ConfigSearchThreads, runtime.NumCPU(), "root candidates searched at once")
	fs.Bool(ConfigSearchRandomTieBreak, false, "break ties between equal moves at random")
	fs.Bool(ConfigSearchShuffle, false, "shuffle root candidates before searching")
	fs.Bool(ConfigSearchPruning, true, "alpha-beta pruning; turn off only for diagnostics")
	fs.String(ConfigFilterStrategy, candidates.StrategyPopulatedNeighbor,
		"candidate filter strategy: populated-neighbor, none or composed")
	fs.String(ConfigFilterComposed, "",
		"filters for the composed strategy, e.g. populated-neighbor,nearest-center:12")

	fs.Bool(ConfigTTEnabled, true, "use a transposition table")
	fs.String(ConfigTTLifetime, player.TTPerDecision, "transposition table lifetime: per-decision or per-game")
	fs.Float64(ConfigTTMemoryFraction, 0.05, "fraction of system memory for the transposition table")
	fs.Int(ConfigTTSizePowerOf2, 0, "transposition table size as a power of 2; overrides the memory fraction")

	fs.String(ConfigMatchServerURL, "", "base URL of the match server API")
	fs.String(ConfigMatchAPIKey, "", "match server API key")
	fs.String(ConfigMatchUserID, "", "match server user id")
	fs.String(ConfigMatchTeamID, "", "our team id")
	fs.String(ConfigMatchOpponentID, "", "opponent team id, for creating a game")
	fs.String(ConfigMatchGameID, "", "game to join; a new game is created if empty")
	fs.Duration(ConfigMatchPollInterval, 2*time.Second, "how often to poll the match server")
	fs.Bool(ConfigMatchMoveFirst, false, "we make the first move of a joined game; always true for a created game")

	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server URL")
	fs.String(ConfigBotSubject, "tictactoe.bot.move", "NATS subject the bot answers on")

	fs.String(ConfigGameLogPath, "", "sqlite file to record games in; empty disables it")
	return fs
}

// Load parses args and reads the environment and the config file, if one
// is named.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()
	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(fs); err != nil {
		return err
	}
	c.SetEnvPrefix(EnvPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigConfigFile); path != "" {
		c.SetConfigFile(path)
		c.SetConfigType("yaml")
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	return nil
}

// DefaultConfig is a config loaded with no arguments.
func DefaultConfig() *Config {
	c := &Config{}
	if err := c.Load(nil); err != nil {
		panic(err)
	}
	return c
}

// Usage is the flag help text.
func Usage() string {
	return flagSet().FlagUsages()
}

// SearchOptions turns the search settings into player options.
func (c *Config) SearchOptions() (player.Options, error) {
	filters, err := candidates.ParsePipeline(c.GetString(ConfigFilterStrategy), c.GetString(ConfigFilterComposed))
	if err != nil {
		return player.Options{}, fmt.Errorf("%w: %w", board.ErrConfiguration, err)
	}
	lifetime := c.GetString(ConfigTTLifetime)
	if lifetime != player.TTPerDecision && lifetime != player.TTPerGame {
		return player.Options{}, fmt.Errorf("%w: unknown transposition table lifetime %q",
			board.ErrConfiguration, lifetime)
	}
	secs := c.GetFloat64(ConfigSearchTimeLimit)
	if secs < 0 {
		return player.Options{}, fmt.Errorf("%w: negative time limit", board.ErrConfiguration)
	}
	if c.GetInt(ConfigSearchMaxDepth) < 0 {
		return player.Options{}, fmt.Errorf("%w: negative max depth", board.ErrConfiguration)
	}
	threads := c.GetInt(ConfigSearchThreads)
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	return player.Options{
		TimeLimit:             time.Duration(secs * float64(time.Second)),
		MaxDepth:              c.GetInt(ConfigSearchMaxDepth),
		Threads:               threads,
		RandomTieBreak:        c.GetBool(ConfigSearchRandomTieBreak),
		Shuffle:               c.GetBool(ConfigSearchShuffle),
		UseTranspositionTable: c.GetBool(ConfigTTEnabled),
		TTLifetime:            lifetime,
		TTSizePowerOf2:        c.GetInt(ConfigTTSizePowerOf2),
		TTMemoryFraction:      c.GetFloat64(ConfigTTMemoryFraction),
		DisablePruning:        !c.GetBool(ConfigSearchPruning),
		Filters:               filters,
	}, nil
}

// NewPosition returns an empty position of the configured size.
func (c *Config) NewPosition() (*game.Position, error) {
	return game.NewEmptyPosition(c.GetInt(ConfigBoardDim), c.GetInt(ConfigWinLength))
}
