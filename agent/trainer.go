package agent

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"tictactoe/game"
)

// Terminal reward shape. A win at ply t is worth winReward plus paceBonus
// per ply the game finished early; the loser's last ply costs the mirror
// amount. Every other ply, and every ply of a draw, carries zero reward.
const (
	winReward = 100.0
	paceBonus = 5.0
	maxPlies  = 9
)

// Train folds one finished game into the value table. Each ply i receives a
// one-step update toward its shaped terminal reward plus the discounted
// best estimate at the same side's next decision point, the position two
// plies later. Plies are processed in play order, so later plies of the
// same game read estimates already refreshed by earlier ones. Training
// twice on the same game moves the estimates further.
//
// The transcript must replay cleanly and end in the claimed outcome;
// otherwise the table is left untouched and ErrIllegalHistory,
// ErrNotTerminal or ErrOutcomeMismatch is returned.
func (a *Agent) Train(h game.History, outcome game.Outcome) error {
	if !outcome.Terminal() {
		return fmt.Errorf("%w: refusing to train toward %s", ErrNotTerminal, outcome)
	}
	boards, err := h.Positions()
	if err != nil {
		return err
	}
	final := boards[len(boards)-1].Outcome()
	if !final.Terminal() {
		return fmt.Errorf("%w: game still ongoing after %d plies", ErrNotTerminal, len(h))
	}
	if final != outcome {
		return fmt.Errorf("%w: transcript ends %s, caller reported %s", ErrOutcomeMismatch, final, outcome)
	}

	winner, decided := outcome.Winner()

	a.mu.Lock()
	defer a.mu.Unlock()

	n := len(h)
	for i, mv := range h {
		ply := i + 1
		var reward float64
		if decided {
			switch {
			case mv.Player == winner && i == n-1:
				reward = winReward + float64(maxPlies-ply)*paceBonus
			case mv.Player != winner && i == n-2:
				reward = -(winReward + float64(maxPlies-ply)*paceBonus)
			}
		}

		// The mover's next decision point is two plies on, after the
		// opponent has replied. Nothing to bootstrap from once the game
		// has ended.
		var future float64
		if i+2 < n {
			next := boards[i+2]
			future = a.table.MaxOver(next.Key(), next.LegalCells())
		}

		key := boards[i].Key()
		q := a.table.Get(key, mv.Cell)
		a.table.Set(key, mv.Cell, q+a.alpha*(reward+a.gamma*future-q))
	}

	a.stats.Games++
	switch outcome {
	case game.XWins:
		a.stats.XWins++
	case game.OWins:
		a.stats.OWins++
	case game.Draw:
		a.stats.Draws++
	}

	log.Debug().
		Int("plies", n).
		Str("outcome", outcome.String()).
		Msg("trained on finished game")
	return nil
}
