package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/config"
	"tictactoe/selfplay"
	"tictactoe/store"
)

func main() {
	games := flag.Int("games", 1000, "Number of games to play")
	xExploration := flag.Float64("x-exploration", 0.2, "Exploration rate for X")
	oExploration := flag.Float64("o-exploration", 0.2, "Exploration rate for O")
	reportEvery := flag.Int("report-every", 100, "Log progress every N games, 0 to disable")
	out := flag.String("out", "", "Write per-game results to this CSV file")
	configPath := flag.String("config", "", "Path to a config file")
	statePath := flag.String("state", "", "State file or database path, overrides the config")
	backend := flag.String("backend", "", "State backend: file or sqlite, overrides the config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
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
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
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

	// A ctrl-C stops the run but still saves whatever was learned.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	fmt.Printf("Training on %d self-play games...\n", *games)
	runner := selfplay.New(a,
		selfplay.WithGames(*games),
		selfplay.WithExploration(*xExploration, *oExploration),
		selfplay.WithReportEvery(*reportEvery),
	)
	results, err := runner.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("self-play run failed")
	}

	if err := st.Save(context.Background(), a.Table().Snapshot()); err != nil {
		log.Fatal().Err(err).Msg("failed to save state")
	}
	if err := st.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close state store")
	}

	if *out != "" {
		if err := selfplay.WriteResults(*out, results); err != nil {
			log.Fatal().Err(err).Msg("failed to write results")
		}
		fmt.Printf("Wrote %d results to %s\n", len(results), *out)
	}

	sum := selfplay.Summarize(results)
	stats := a.Stats()
	fmt.Printf("Played %d games: X won %d, O won %d, %d draws (avg %.1f plies)\n",
		sum.Games, sum.XWins, sum.OWins, sum.Draws, sum.AvgPlies)
	fmt.Printf("Table covers %d positions with %d estimates, saved to %s\n",
		stats.Positions, stats.Entries, cfg.Store.Path)
}
