package agent

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tictactoe/game"
)

/**
Credit assignment over a finished game:
- win: winner's final ply pulled toward +(100 + 5 per spare ply),
  loser's last ply toward the mirror penalty, all other plies toward 0
- draw: every ply pulled toward 0 (fresh table stays at 0)
- bootstrap: a ply reads the best estimate two plies later (the same
  side's next decision point), skipping the opponent's reply
- plies are processed in play order, so a repeat pass sees the
  previous pass's values
- training twice moves estimates further (updates are not idempotent)
- rejections (table untouched): ongoing game, wrong reported outcome,
  impossible transcript
- concurrent trains are serialized
*/

// xWinsInFive: X takes the top row on ply 5.
// Positions along the way, as canonical keys:
//   .........  X........  X..O.....  XX.O.....  XX.OO....  XXXOO....
func xWinsInFive() game.History {
	return game.History{
		{Player: game.X, Cell: 0},
		{Player: game.O, Cell: 3},
		{Player: game.X, Cell: 1},
		{Player: game.O, Cell: 4},
		{Player: game.X, Cell: 2},
	}
}

func drawInNine() game.History {
	return game.History{
		{Player: game.X, Cell: 0},
		{Player: game.O, Cell: 1},
		{Player: game.X, Cell: 2},
		{Player: game.O, Cell: 4},
		{Player: game.X, Cell: 3},
		{Player: game.O, Cell: 5},
		{Player: game.X, Cell: 7},
		{Player: game.O, Cell: 6},
		{Player: game.X, Cell: 8},
	}
}

func TestTrainWin(t *testing.T) {
	t.Run("shapes the terminal plies", func(t *testing.T) {
		a := New(nil)

		require.NoError(t, a.Train(xWinsInFive(), game.XWins))

		// Winning ply at t=5: 0.1 * (100 + (9-5)*5) = 12.0
		require.InDelta(t, 12.0, a.Table().Get("XX.OO....", 2), 1e-9,
			"Should pull the winning ply toward +120")
		// Loser's last ply at t=4: 0.1 * -(100 + (9-4)*5) = -12.5
		require.InDelta(t, -12.5, a.Table().Get("XX.O.....", 4), 1e-9,
			"Should pull the ply that allowed the win toward -125")
		// Earlier plies target 0 on a fresh table.
		require.Zero(t, a.Table().Get(".........", 0))
		require.Zero(t, a.Table().Get("X..O.....", 1))
	})

	t.Run("counts the game", func(t *testing.T) {
		a := New(nil)

		require.NoError(t, a.Train(xWinsInFive(), game.XWins))

		s := a.Stats()
		require.Equal(t, 1, s.Games)
		require.Equal(t, 1, s.XWins)
		require.Zero(t, s.OWins)
		require.Zero(t, s.Draws)
		require.Positive(t, s.Entries)
	})

	t.Run("O win uses its own pace bonus", func(t *testing.T) {
		// O takes the middle row on ply 6; X's ply 5 let it happen.
		h := game.History{
			{Player: game.X, Cell: 0},
			{Player: game.O, Cell: 3},
			{Player: game.X, Cell: 1},
			{Player: game.O, Cell: 4},
			{Player: game.X, Cell: 8},
			{Player: game.O, Cell: 5},
		}
		a := New(nil)

		require.NoError(t, a.Train(h, game.OWins))

		// t=6: 0.1 * (100 + (9-6)*5) = 11.5
		require.InDelta(t, 11.5, a.Table().Get("XX.OO...X", 5), 1e-9)
		// t=5: 0.1 * -(100 + (9-5)*5) = -12.0
		require.InDelta(t, -12.0, a.Table().Get("XX.OO....", 8), 1e-9)
		require.Equal(t, 1, a.Stats().OWins)
	})
}

func TestTrainDraw(t *testing.T) {
	a := New(nil)

	require.NoError(t, a.Train(drawInNine(), game.Draw))

	for key, row := range a.Table().Snapshot() {
		for cell, v := range row {
			require.Zero(t, v, "Should leave %s cell %d at 0 after a draw", key, cell)
		}
	}
	require.Equal(t, 1, a.Stats().Draws)
}

func TestTrainBootstrap(t *testing.T) {
	t.Run("reads the same side's next decision point", func(t *testing.T) {
		a := New(nil)
		// Seed the position after ply 4 with a known estimate on an open
		// cell the final ply does not touch.
		a.Table().Set("XX.OO....", 5, 50.0)

		require.NoError(t, a.Train(xWinsInFive(), game.XWins))

		// Ply 3, X playing cell 1 from X..O....., bootstraps from the
		// position after ply 4: 0.1 * (0 + 0.9*50) = 4.5
		require.InDelta(t, 4.5, a.Table().Get("X..O.....", 1), 1e-9,
			"Should discount the best estimate two plies ahead")
	})

	t.Run("terminal plies have nothing to bootstrap from", func(t *testing.T) {
		a := New(nil)
		require.NoError(t, a.Train(xWinsInFive(), game.XWins))

		// Only the shaped reward reaches the final two plies.
		require.InDelta(t, 12.0, a.Table().Get("XX.OO....", 2), 1e-9)
		require.InDelta(t, -12.5, a.Table().Get("XX.O.....", 4), 1e-9)
	})
}

func TestTrainRepeatPasses(t *testing.T) {
	t.Run("training twice moves estimates further", func(t *testing.T) {
		a := New(nil)

		require.NoError(t, a.Train(xWinsInFive(), game.XWins))
		require.NoError(t, a.Train(xWinsInFive(), game.XWins))

		// 12.0 + 0.1*(120 - 12.0) = 22.8
		require.InDelta(t, 22.8, a.Table().Get("XX.OO....", 2), 1e-9,
			"Should keep approaching the shaped reward")
		// -12.5 + 0.1*(-125 + 12.5) = -23.75
		require.InDelta(t, -23.75, a.Table().Get("XX.O.....", 4), 1e-9)
	})

	t.Run("later passes see earlier passes in play order", func(t *testing.T) {
		a := New(nil)

		require.NoError(t, a.Train(xWinsInFive(), game.XWins))
		require.NoError(t, a.Train(xWinsInFive(), game.XWins))

		// On the second pass, ply 3 bootstraps from the winning ply's
		// first-pass estimate: 0.1 * (0 + 0.9*12.0) = 1.08
		require.InDelta(t, 1.08, a.Table().Get("X..O.....", 1), 1e-9,
			"Should read the estimate written by the previous pass")
	})
}

func TestTrainRejections(t *testing.T) {
	ongoing := game.History{
		{Player: game.X, Cell: 0},
		{Player: game.O, Cell: 3},
	}

	t.Run("ongoing game", func(t *testing.T) {
		a := New(nil)

		err := a.Train(ongoing, game.XWins)

		require.ErrorIs(t, err, ErrNotTerminal, "Should refuse an unfinished transcript")
		require.Zero(t, a.Table().Entries(), "Should leave the table untouched")
		require.Zero(t, a.Stats().Games)
	})

	t.Run("ongoing claimed outcome", func(t *testing.T) {
		a := New(nil)

		err := a.Train(xWinsInFive(), game.Ongoing)

		require.ErrorIs(t, err, ErrNotTerminal)
	})

	t.Run("reported outcome contradicts the transcript", func(t *testing.T) {
		a := New(nil)

		err := a.Train(xWinsInFive(), game.OWins)

		require.ErrorIs(t, err, ErrOutcomeMismatch)
		require.Zero(t, a.Table().Entries())
	})

	t.Run("impossible transcript", func(t *testing.T) {
		a := New(nil)
		h := game.History{
			{Player: game.X, Cell: 0},
			{Player: game.X, Cell: 1},
		}

		err := a.Train(h, game.XWins)

		require.ErrorIs(t, err, game.ErrIllegalHistory)
		require.Zero(t, a.Table().Entries())
	})
}

func TestTrainConcurrent(t *testing.T) {
	// Meaningful under -race: batches from multiple goroutines.
	a := New(nil)
	games := []struct {
		h   game.History
		out game.Outcome
	}{
		{xWinsInFive(), game.XWins},
		{drawInNine(), game.Draw},
		{xWinsInFive(), game.XWins},
		{drawInNine(), game.Draw},
	}

	var wg sync.WaitGroup
	for _, g := range games {
		wg.Add(1)
		go func(h game.History, out game.Outcome) {
			defer wg.Done()
			require.NoError(t, a.Train(h, out))
		}(g.h, g.out)
	}
	wg.Wait()

	s := a.Stats()
	require.Equal(t, 4, s.Games)
	require.Equal(t, 2, s.XWins)
	require.Equal(t, 2, s.Draws)
}
