package game

import (
	"encoding/json"
	"fmt"
)

// Mark identifies which side occupies a cell. X always opens.
type Mark uint8

const (
	Empty Mark = iota
	X
	O
)

// Other returns the opposing mark. The opponent of Empty is Empty.
func (m Mark) Other() Mark {
	switch m {
	case X:
		return O
	case O:
		return X
	}
	return Empty
}

func (m Mark) String() string {
	return string(m.token())
}

func (m Mark) token() byte {
	switch m {
	case X:
		return 'X'
	case O:
		return 'O'
	}
	return '.'
}

// ParseMark reads the wire form of a side, "X" or "O".
func ParseMark(s string) (Mark, error) {
	switch s {
	case "X":
		return X, nil
	case "O":
		return O, nil
	}
	return Empty, fmt.Errorf("unknown player %q", s)
}

func (m Mark) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Mark) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	mark, err := ParseMark(s)
	if err != nil {
		return err
	}
	*m = mark
	return nil
}

// Key is the canonical encoding of a position: nine characters, cells 0-8
// in row-major order, 'X', 'O' or '.' per cell. Two move orders that reach
// the same occupancy produce the same Key.
type Key string

// Board holds the occupancy of the nine cells. The zero value is the empty
// board.
type Board [9]Mark

// Key returns the canonical encoding of the board.
func (b Board) Key() Key {
	var enc [9]byte
	for i, m := range b {
		enc[i] = m.token()
	}
	return Key(enc[:])
}

// LegalCells returns the open cells in ascending order.
func (b Board) LegalCells() []int {
	cells := make([]int, 0, len(b))
	for i, m := range b {
		if m == Empty {
			cells = append(cells, i)
		}
	}
	return cells
}

// Full reports whether every cell is occupied.
func (b Board) Full() bool {
	for _, m := range b {
		if m == Empty {
			return false
		}
	}
	return true
}

// The eight straight lines of the grid: rows, columns, diagonals.
var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// Outcome classifies the board: a completed line wins for that line's mark,
// a full board without one is a draw, anything else is ongoing.
func (b Board) Outcome() Outcome {
	for _, ln := range winLines {
		m := b[ln[0]]
		if m != Empty && b[ln[1]] == m && b[ln[2]] == m {
			if m == X {
				return XWins
			}
			return OWins
		}
	}
	if b.Full() {
		return Draw
	}
	return Ongoing
}

// Outcome is the result of a game, or Ongoing if it has not finished.
type Outcome int

const (
	Ongoing Outcome = iota
	XWins
	OWins
	Draw
)

// Terminal reports whether the game is over.
func (o Outcome) Terminal() bool {
	return o != Ongoing
}

// Winner returns the winning mark, if there is one. Draws and ongoing games
// have none.
func (o Outcome) Winner() (Mark, bool) {
	switch o {
	case XWins:
		return X, true
	case OWins:
		return O, true
	}
	return Empty, false
}

func (o Outcome) String() string {
	switch o {
	case XWins:
		return "X"
	case OWins:
		return "O"
	case Draw:
		return "draw"
	}
	return "ongoing"
}

// ParseOutcome reads the wire form used by the learn endpoint: "X", "O" or
// "draw".
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "X":
		return XWins, nil
	case "O":
		return OWins, nil
	case "draw":
		return Draw, nil
	}
	return Ongoing, fmt.Errorf("unknown outcome %q", s)
}
