// Package client talks to a running agent server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tictactoe/agent"
	"tictactoe/game"
)

// Client handles HTTP communication with the agent server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the agent server at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type moveRequest struct {
	History game.History `json:"history"`
	Player  string       `json:"player,omitempty"`
	// Exploration overrides the server's configured rate when set.
	Exploration *float64 `json:"exploration_rate,omitempty"`
}

type moveResponse struct {
	Move   int       `json:"move"`
	Player game.Mark `json:"player"`
}

type learnRequest struct {
	History game.History `json:"history"`
	Winner  string       `json:"winner"`
}

// GetMove asks the server for a move in the game described by h. Pass
// game.Empty as mover to let the server derive the side on turn, and a
// nil exploration to use the server's configured rate.
func (c *Client) GetMove(ctx context.Context, h game.History, mover game.Mark, exploration *float64) (int, game.Mark, error) {
	req := moveRequest{History: h, Exploration: exploration}
	if h == nil {
		req.History = game.History{}
	}
	if mover != game.Empty {
		req.Player = mover.String()
	}

	var resp moveResponse
	if err := c.post(ctx, "/get_move", req, &resp); err != nil {
		return 0, game.Empty, err
	}
	return resp.Move, resp.Player, nil
}

// Learn reports a finished game so the server can train on it.
func (c *Client) Learn(ctx context.Context, h game.History, outcome game.Outcome) error {
	req := learnRequest{History: h, Winner: outcome.String()}
	if h == nil {
		req.History = game.History{}
	}
	return c.post(ctx, "/learn", req, nil)
}

// Table fetches the server's full value table.
func (c *Client) Table(ctx context.Context) (agent.Snapshot, error) {
	var snap agent.Snapshot
	if err := c.get(ctx, "/", &snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Stats fetches the server's training counters.
func (c *Client) Stats(ctx context.Context) (agent.Stats, error) {
	var stats agent.Stats
	if err := c.get(ctx, "/stats", &stats); err != nil {
		return agent.Stats{}, err
	}
	return stats, nil
}

// Health reports whether the server is up.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, req, out any) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	return c.do(httpReq, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	httpReq, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(httpReq, out)
}

func (c *Client) do(httpReq *http.Request, out any) error {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var wire struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &wire); err == nil && wire.Error != "" {
		return fmt.Errorf("server rejected request: %s", wire.Error)
	}
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
}
