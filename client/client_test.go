package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"tictactoe/agent"
	"tictactoe/config"
	"tictactoe/game"
	"tictactoe/server"
	"tictactoe/store"
)

/**
Client against a real server:
- GetMove round-trips the transcript, mover pin and exploration override
- Learn trains the server; Stats and Table reflect it
- server-side rejections surface as errors
*/

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		ListenAddr: "127.0.0.1:0",
		Alpha:      0.1,
		Gamma:      0.9,
		LogLevel:   "info",
		Store: config.Store{
			Backend: "file",
			Path:    filepath.Join(t.TempDir(), "state.json"),
		},
	}
	s := server.New(agent.New(nil), store.NewFileStore(cfg.Store.Path), cfg)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(ts.Close)
	return ts
}

func TestClientAgainstServer(t *testing.T) {
	ts := newServer(t)
	c := New(ts.URL)
	ctx := context.Background()

	t.Run("requests an opening move", func(t *testing.T) {
		cell, player, err := c.GetMove(ctx, nil, game.Empty, nil)

		require.NoError(t, err)
		require.Equal(t, 0, cell)
		require.Equal(t, game.X, player, "Should report X on turn for an empty board")
	})

	t.Run("pins the mover and exploration rate", func(t *testing.T) {
		h := game.History{{Player: game.X, Cell: 4}}
		zero := 0.0

		cell, player, err := c.GetMove(ctx, h, game.O, &zero)

		require.NoError(t, err)
		require.Equal(t, game.O, player)
		require.Equal(t, 0, cell)
	})

	t.Run("learns and reports it", func(t *testing.T) {
		h := game.History{
			{Player: game.X, Cell: 0},
			{Player: game.O, Cell: 3},
			{Player: game.X, Cell: 1},
			{Player: game.O, Cell: 4},
			{Player: game.X, Cell: 2},
		}
		require.NoError(t, c.Learn(ctx, h, game.XWins))

		stats, err := c.Stats(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, stats.Games)
		require.Equal(t, 1, stats.XWins)

		snap, err := c.Table(ctx)
		require.NoError(t, err)
		require.InDelta(t, 12.0, snap["XX.OO...."][2], 1e-9,
			"Should see the trained estimate through the table endpoint")
	})

	t.Run("surfaces rejections", func(t *testing.T) {
		err := c.Learn(ctx, game.History{}, game.XWins)

		require.ErrorContains(t, err, "not terminal")
	})

	t.Run("health check", func(t *testing.T) {
		require.NoError(t, c.Health(ctx))
	})
}
