package game

import (
	"errors"
	"fmt"
)

// ErrIllegalHistory flags a transcript that could not have occurred in a
// real game: broken alternation, a reused or out-of-range cell, or play
// continuing after the game is decided.
var ErrIllegalHistory = errors.New("illegal history")

// Move is a single ply of a game.
type Move struct {
	Player Mark `json:"player"`
	Cell   int  `json:"turn"` // wire name "turn" is historical, it carries the cell index 0-8
}

// History is a full or partial game transcript, plies in play order.
type History []Move

// NextPlayer returns the side to move after the recorded plies. X opens.
func (h History) NextPlayer() Mark {
	if len(h)%2 == 0 {
		return X
	}
	return O
}

// Positions replays the transcript and returns every board it passes
// through: Positions()[i] is the board after i plies, so the first entry is
// always the empty board and the last is the final position. Replay stops
// at the first impossible ply with ErrIllegalHistory.
func (h History) Positions() ([]Board, error) {
	boards := make([]Board, 0, len(h)+1)
	var b Board
	boards = append(boards, b)
	turn := X
	for i, mv := range h {
		if b.Outcome().Terminal() {
			return nil, fmt.Errorf("%w: ply %d follows a decided game", ErrIllegalHistory, i)
		}
		if mv.Cell < 0 || mv.Cell >= len(b) {
			return nil, fmt.Errorf("%w: ply %d plays cell %d", ErrIllegalHistory, i, mv.Cell)
		}
		if mv.Player != turn {
			return nil, fmt.Errorf("%w: ply %d played by %s, expected %s", ErrIllegalHistory, i, mv.Player, turn)
		}
		if b[mv.Cell] != Empty {
			return nil, fmt.Errorf("%w: ply %d reuses cell %d", ErrIllegalHistory, i, mv.Cell)
		}
		b[mv.Cell] = mv.Player
		boards = append(boards, b)
		turn = turn.Other()
	}
	return boards, nil
}

// Board returns the final position of the transcript.
func (h History) Board() (Board, error) {
	boards, err := h.Positions()
	if err != nil {
		return Board{}, err
	}
	return boards[len(boards)-1], nil
}

// Outcome classifies the final position of the transcript.
func (h History) Outcome() (Outcome, error) {
	b, err := h.Board()
	if err != nil {
		return Ongoing, err
	}
	return b.Outcome(), nil
}

// Encode returns the canonical key of the final position.
func (h History) Encode() (Key, error) {
	b, err := h.Board()
	if err != nil {
		return "", err
	}
	return b.Key(), nil
}
