package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/ai/player"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/bot"
	"github.com/ajvgwu/csci6511-proj2-tictactoe-sub000/config"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-arguments")
	}
	log.Info().Str("subject", cfg.GetString(config.ConfigBotSubject)).Msg("loaded-config")

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	opts, err := cfg.SearchOptions()
	if err != nil {
		log.Fatal().Err(err).Msg("bad-search-options")
	}

	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		log.Fatal().Err(err).Msg("could-not-connect")
	}
	defer nc.Close()

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

	b := bot.NewBot(player.New(opts))
	if err := b.Serve(ctx, nc, cfg.GetString(config.ConfigBotSubject)); err != nil {
		log.Fatal().Err(err).Msg("serve-failed")
	}
	log.Info().Msg("server gracefully shutting down")
}
