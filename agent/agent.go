package agent

import (
	"errors"
	"sync"
)

// Default learning hyperparameters.
const (
	DefaultAlpha = 0.1 // learning rate
	DefaultGamma = 0.9 // discount factor
)

var (
	// ErrInvalidTurn means a move was requested on a finished game or for
	// the side not on turn.
	ErrInvalidTurn = errors.New("invalid turn")
	// ErrNotTerminal means training was requested on an unfinished game.
	ErrNotTerminal = errors.New("not terminal")
	// ErrOutcomeMismatch means the reported result does not match the
	// transcript's final position.
	ErrOutcomeMismatch = errors.New("outcome mismatch")
)

type Option func(a *Agent)

func WithAlpha(alpha float64) Option {
	return func(a *Agent) {
		if alpha > 0 && alpha <= 1 {
			a.alpha = alpha
		}
	}
}

func WithGamma(gamma float64) Option {
	return func(a *Agent) {
		if gamma >= 0 && gamma <= 1 {
			a.gamma = gamma
		}
	}
}

// Agent couples the shared value table with the hyperparameters used to
// update it. One Agent plays both sides of the board.
type Agent struct {
	table *ValueTable
	alpha float64
	gamma float64

	mu    sync.Mutex // serializes Train batches and guards the counters
	stats Stats
}

// Stats is a point-in-time summary of what the agent has seen and learned.
type Stats struct {
	Games     int `json:"games"`
	XWins     int `json:"x_wins"`
	OWins     int `json:"o_wins"`
	Draws     int `json:"draws"`
	Positions int `json:"positions"`
	Entries   int `json:"entries"`
}

func New(table *ValueTable, options ...Option) *Agent {
	if table == nil {
		table = NewValueTable()
	}
	a := &Agent{ // Default values
		table: table,
		alpha: DefaultAlpha,
		gamma: DefaultGamma,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

// Table exposes the underlying value table, mainly for persistence.
func (a *Agent) Table() *ValueTable {
	return a.table
}

func (a *Agent) Alpha() float64 {
	return a.alpha
}

func (a *Agent) Gamma() float64 {
	return a.gamma
}

// Stats returns the training counters plus the current table size.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	s := a.stats
	a.mu.Unlock()
	s.Positions = a.table.Positions()
	s.Entries = a.table.Entries()
	return s
}
