package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/config"
	"tictactoe/server"
	"tictactoe/store"
)

func main() {
	configPath := flag.String("config", "", "Path to a config file")
	listen := flag.String("listen", "", "Listen address, overrides the config")
	statePath := flag.String("state", "", "State file or database path, overrides the config")
	backend := flag.String("backend", "", "State backend: file or sqlite, overrides the config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *listen != "" {
		cfg.ListenAddr = *listen
	}
	if *statePath != "" {
		cfg.Store.Path = *statePath
	}
	if *backend != "" {
		cfg.Store.Backend = *backend
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	// Set up logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	st, err := store.Open(cfg.Store.Backend, cfg.Store.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snap, err := st.Load(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not load saved state, starting fresh")
		snap = agent.Snapshot{}
	}
	table := agent.NewValueTable()
	table.Restore(snap)
	a := agent.New(table, agent.WithAlpha(cfg.Alpha), agent.WithGamma(cfg.Gamma))

	log.Info().
		Str("listen", cfg.ListenAddr).
		Str("backend", cfg.Store.Backend).
		Str("state", cfg.Store.Path).
		Int("positions", len(snap)).
		Msg("starting agent server")

	// Set up signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	if err := server.New(a, st, cfg).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server failed")
	}
	if err := st.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close state store")
	}

	log.Info().Msg("agent server stopped")
}
