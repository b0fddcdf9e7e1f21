package agent

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tictactoe/game"
)

/**
Move selection:
- greedy (exploration 0):
	- picks the open cell with the highest estimate
	- breaks ties toward the lowest cell index
	- ignores estimates on occupied cells
	- picks the least bad cell when everything is negative
- exploring (exploration 1): any open cell, never an occupied one
- rejections:
	- finished game -> ErrInvalidTurn
	- side not on turn -> ErrInvalidTurn
	- impossible transcript -> ErrIllegalHistory
*/

func TestSelectMoveGreedy(t *testing.T) {
	opening := game.History{
		{Player: game.X, Cell: 0},
		{Player: game.O, Cell: 1},
	}
	key := game.Key("XO.......") // position after the opening

	t.Run("picks the highest estimate", func(t *testing.T) {
		a := New(nil)
		a.Table().Set(key, 4, 0.5)
		a.Table().Set(key, 8, 2.0)
		a.Table().Set(key, 2, 1.0)

		cell, err := a.SelectMove(opening, game.X, 0)

		require.NoError(t, err)
		require.Equal(t, 8, cell, "Should play the best valued open cell")
	})

	t.Run("breaks ties toward the lowest index", func(t *testing.T) {
		a := New(nil)
		a.Table().Set(key, 6, 2.0)
		a.Table().Set(key, 3, 2.0)

		cell, err := a.SelectMove(opening, game.X, 0)

		require.NoError(t, err)
		require.Equal(t, 3, cell, "Should prefer the lower cell index on equal estimates")
	})

	t.Run("fresh table plays the first open cell", func(t *testing.T) {
		a := New(nil)

		cell, err := a.SelectMove(opening, game.X, 0)

		require.NoError(t, err)
		require.Equal(t, 2, cell, "Should fall back to the lowest open cell at all zeros")
	})

	t.Run("never takes the occupied center after a center opening", func(t *testing.T) {
		h := game.History{{Player: game.X, Cell: 4}}
		a := New(nil)

		for i := 0; i < 20; i++ {
			cell, err := a.SelectMove(h, game.O, 0)
			require.NoError(t, err)
			require.Equal(t, 0, cell, "Should settle on the lowest open cell at all zeros")
		}
	})

	t.Run("ignores estimates on occupied cells", func(t *testing.T) {
		a := New(nil)
		a.Table().Set(key, 0, 99.0) // cell 0 is taken by X
		a.Table().Set(key, 5, 1.0)

		cell, err := a.SelectMove(opening, game.X, 0)

		require.NoError(t, err)
		require.Equal(t, 5, cell, "Should never propose an occupied cell")
	})

	t.Run("plays the least bad cell when all estimates are negative", func(t *testing.T) {
		h := game.History{
			{Player: game.X, Cell: 0},
			{Player: game.O, Cell: 1},
			{Player: game.X, Cell: 2},
			{Player: game.O, Cell: 4},
		}
		k := game.Key("XOX.O....")
		a := New(nil)
		for cell, v := range map[int]float64{3: -5, 5: -2, 6: -9, 7: -1, 8: -3} {
			a.Table().Set(k, cell, v)
		}

		cell, err := a.SelectMove(h, game.X, 0)

		require.NoError(t, err)
		require.Equal(t, 7, cell, "Should maximize even among negative estimates")
	})
}

func TestSelectMoveExploring(t *testing.T) {
	t.Run("always plays an open cell", func(t *testing.T) {
		h := game.History{
			{Player: game.X, Cell: 0},
			{Player: game.O, Cell: 1},
			{Player: game.X, Cell: 2},
			{Player: game.O, Cell: 4},
		}
		open := map[int]bool{3: true, 5: true, 6: true, 7: true, 8: true}
		a := New(nil)

		for i := 0; i < 50; i++ {
			cell, err := a.SelectMove(h, game.X, 1)
			require.NoError(t, err)
			require.True(t, open[cell], "Should only ever propose open cells, got %d", cell)
		}
	})

	t.Run("single open cell leaves no choice", func(t *testing.T) {
		h := game.History{
			{Player: game.X, Cell: 0},
			{Player: game.O, Cell: 1},
			{Player: game.X, Cell: 2},
			{Player: game.O, Cell: 4},
			{Player: game.X, Cell: 5},
			{Player: game.O, Cell: 3},
			{Player: game.X, Cell: 7},
			{Player: game.O, Cell: 6},
		}

		cell, err := New(nil).SelectMove(h, game.X, 1)

		require.NoError(t, err)
		require.Equal(t, 8, cell)
	})
}

func TestSelectMoveRejections(t *testing.T) {
	t.Run("finished game", func(t *testing.T) {
		h := game.History{
			{Player: game.X, Cell: 0},
			{Player: game.O, Cell: 3},
			{Player: game.X, Cell: 1},
			{Player: game.O, Cell: 4},
			{Player: game.X, Cell: 2},
		}

		_, err := New(nil).SelectMove(h, game.O, 0)

		require.ErrorIs(t, err, ErrInvalidTurn, "Should refuse to move in a decided game")
	})

	t.Run("side not on turn", func(t *testing.T) {
		h := game.History{{Player: game.X, Cell: 0}}

		_, err := New(nil).SelectMove(h, game.X, 0)

		require.ErrorIs(t, err, ErrInvalidTurn, "Should refuse X moving twice in a row")
	})

	t.Run("impossible transcript", func(t *testing.T) {
		h := game.History{
			{Player: game.X, Cell: 4},
			{Player: game.O, Cell: 4},
		}

		_, err := New(nil).SelectMove(h, game.X, 0)

		require.ErrorIs(t, err, game.ErrIllegalHistory)
	})
}
