package selfplay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"tictactoe/agent"
	"tictactoe/game"
)

type Option func(r *Runner)

func WithGames(games int) Option {
	return func(r *Runner) {
		if games > 0 {
			r.games = games
		}
	}
}

// WithExploration sets the per-side exploration rates. Values outside
// [0, 1] are ignored.
func WithExploration(x, o float64) Option {
	return func(r *Runner) {
		if x >= 0 && x <= 1 {
			r.xExploration = x
		}
		if o >= 0 && o <= 1 {
			r.oExploration = o
		}
	}
}

// WithReportEvery sets how often progress is logged. Zero disables
// progress logging.
func WithReportEvery(games int) Option {
	return func(r *Runner) {
		if games >= 0 {
			r.reportEvery = games
		}
	}
}

// Runner pits the agent against itself and feeds every finished game back
// into training. Both sides read and write the same value table, so the
// agent learns from its own mistakes on either side of the board.
type Runner struct {
	agent        *agent.Agent
	games        int
	xExploration float64
	oExploration float64
	reportEvery  int
}

func New(a *agent.Agent, options ...Option) *Runner {
	r := &Runner{ // Default values
		agent:        a,
		games:        1000,
		xExploration: 0.2,
		oExploration: 0.2,
		reportEvery:  100,
	}
	for _, option := range options {
		option(r)
	}
	return r
}

// Result is one finished self-play game.
type Result struct {
	Game    int
	Outcome game.Outcome
	Plies   int
}

// Run plays the configured number of games, training after each one. It
// stops early when ctx is canceled and returns the results so far.
func (r *Runner) Run(ctx context.Context) ([]Result, error) {
	results := make([]Result, 0, r.games)
	for n := 1; n <= r.games; n++ {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		h, outcome, err := r.playGame()
		if err != nil {
			return results, fmt.Errorf("self-play game %d broke: %w", n, err)
		}
		if err := r.agent.Train(h, outcome); err != nil {
			return results, fmt.Errorf("failed to train on game %d: %w", n, err)
		}
		results = append(results, Result{Game: n, Outcome: outcome, Plies: len(h)})

		if r.reportEvery > 0 && n%r.reportEvery == 0 {
			s := Summarize(results)
			log.Info().
				Int("games", n).
				Int("x_wins", s.XWins).
				Int("o_wins", s.OWins).
				Int("draws", s.Draws).
				Float64("avg_plies", s.AvgPlies).
				Msg("self-play progress")
		}
	}
	return results, nil
}

// playGame rolls a single game to its end, each side exploring at its
// configured rate.
func (r *Runner) playGame() (game.History, game.Outcome, error) {
	h := make(game.History, 0, 9)
	for {
		outcome, err := h.Outcome()
		if err != nil {
			return nil, game.Ongoing, err
		}
		if outcome.Terminal() {
			return h, outcome, nil
		}

		mover := h.NextPlayer()
		exploration := r.xExploration
		if mover == game.O {
			exploration = r.oExploration
		}
		cell, err := r.agent.SelectMove(h, mover, exploration)
		if err != nil {
			return nil, game.Ongoing, err
		}
		h = append(h, game.Move{Player: mover, Cell: cell})
	}
}
