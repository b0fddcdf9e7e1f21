package agent

import (
	"fmt"

	"lukechampine.com/frand"

	"tictactoe/game"
)

// SelectMove picks a cell for mover given the transcript so far. With
// probability exploration it plays a uniformly random open cell; otherwise
// it plays the open cell with the highest stored estimate, lowest index
// winning ties. Selection never modifies the table, so concurrent calls
// only contend on the table's read lock.
func (a *Agent) SelectMove(h game.History, mover game.Mark, exploration float64) (int, error) {
	board, err := h.Board()
	if err != nil {
		return 0, err
	}
	if out := board.Outcome(); out.Terminal() {
		return 0, fmt.Errorf("%w: game already decided (%s)", ErrInvalidTurn, out)
	}
	if turn := h.NextPlayer(); mover != turn {
		return 0, fmt.Errorf("%w: %s to move, not %s", ErrInvalidTurn, turn, mover)
	}

	cells := board.LegalCells()
	if exploration > 0 && frand.Float64() < exploration {
		return cells[frand.Intn(len(cells))], nil
	}

	key := board.Key()
	best := cells[0]
	bestValue := a.table.Get(key, cells[0])
	for _, c := range cells[1:] {
		if v := a.table.Get(key, c); v > bestValue {
			best, bestValue = c, v
		}
	}
	return best, nil
}
