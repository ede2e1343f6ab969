package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/config"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/gamelog"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/matchclient"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-arguments")
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	opts, err := cfg.SearchOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("bad-search-options")
	}
	serverURL := cfg.GetString(config.ConfigMatchServerURL)
	teamID := cfg.GetString(config.ConfigMatchTeamID)
	if serverURL == "" || teamID == "" {
		log.Fatal().Msgf("%s and %s are required", config.ConfigMatchServerURL, config.ConfigMatchTeamID)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		// We received an interrupt signal, shut down.
		log.Info().Msg("got quit signal...")
		cancel()
	}()

	client := matchclient.NewClient(serverURL,
		cfg.GetString(config.ConfigMatchAPIKey), cfg.GetString(config.ConfigMatchUserID))

	wcfg := &matchclient.WorkerConfig{
		GameID:       cfg.GetString(config.ConfigMatchGameID),
		TeamID:       teamID,
		MoveFirst:    cfg.GetBool(config.ConfigMatchMoveFirst),
		PollInterval: cfg.GetDuration(config.ConfigMatchPollInterval),
	}
	if wcfg.GameID == "" {
		opp := cfg.GetString(config.ConfigMatchOpponentID)
		if opp == "" {
			log.Fatal().Msgf("%s or %s is required", config.ConfigMatchGameID, config.ConfigMatchOpponentID)
		}
		wcfg.GameID, err = client.CreateGame(ctx, teamID, opp,
			cfg.GetInt(config.ConfigBoardDim), cfg.GetInt(config.ConfigWinLength))
		if err != nil {
			log.Fatal().Err(err).Msg("could-not-create-game")
		}
		// the creating team opens
		wcfg.MoveFirst = true
		log.Info().Str("game-id", wcfg.GameID).Msg("created-game")
	}

	worker := matchclient.NewWorker(wcfg, client, player.New(opts))
	if path := cfg.GetString(config.ConfigGameLogPath); path != "" {
		store, err := gamelog.Open(ctx, path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("could-not-open-game-log")
		}
		defer store.Close()
		worker.SetGameLog(store)
	}

	pos, err := worker.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("game-aborted")
		return
	}
	log.Info().Str("winner", pos.Winner().String()).Msg("game-over")
	os.Stdout.WriteString(pos.ToDisplayText())
}
