package agent

import (
	"math"
	"sync"

	"golang.org/x/exp/maps"

	"tictactoe/game"
)

// Snapshot is a point-in-time copy of the value table, keyed by canonical
// board key then cell index. It is also the persisted form.
type Snapshot map[game.Key]map[int]float64

// ValueTable holds the action-value estimates shared by both sides of the
// board. Lookups take the read lock; whole-game update batches are
// serialized one level up by the Agent.
type ValueTable struct {
	mu     sync.RWMutex
	values map[game.Key]map[int]float64
	dirty  bool
}

func NewValueTable() *ValueTable {
	return &ValueTable{values: make(map[game.Key]map[int]float64)}
}

// Get returns the stored estimate for (key, cell), or 0 when the pair has
// never been updated.
func (t *ValueTable) Get(key game.Key, cell int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.values[key][cell]
}

// Set stores an estimate and marks the table dirty.
func (t *ValueTable) Set(key game.Key, cell int, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	row, ok := t.values[key]
	if !ok {
		row = make(map[int]float64)
		t.values[key] = row
	}
	row[cell] = value
	t.dirty = true
}

// MaxOver returns the highest estimate at key among the given cells,
// counting never-updated cells as 0. Returns 0 when cells is empty.
func (t *ValueTable) MaxOver(key game.Key, cells []int) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(cells) == 0 {
		return 0
	}
	row := t.values[key]
	best := math.Inf(-1)
	for _, c := range cells {
		if v := row[c]; v > best {
			best = v
		}
	}
	return best
}

// Positions returns the number of distinct board keys in the table.
func (t *ValueTable) Positions() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

// Entries returns the number of stored (key, cell) estimates.
func (t *ValueTable) Entries() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for _, row := range t.values {
		n += len(row)
	}
	return n
}

// Dirty reports whether the table changed since the last TakeDirty.
func (t *ValueTable) Dirty() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dirty
}

// MarkDirty requeues the table for persistence, typically after a failed
// save of a TakeDirty copy.
func (t *ValueTable) MarkDirty() {
	t.mu.Lock()
	t.dirty = true
	t.mu.Unlock()
}

// Snapshot returns a deep copy of the table contents.
func (t *ValueTable) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.copyLocked()
}

// TakeDirty atomically copies the table and clears the dirty flag, or
// reports false when nothing changed since the last take. The copy can be
// persisted without holding any lock.
func (t *ValueTable) TakeDirty() (Snapshot, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.dirty {
		return nil, false
	}
	t.dirty = false
	return t.copyLocked(), true
}

// Restore replaces the table contents with a loaded snapshot and clears
// the dirty flag. Null rows, which a hand-edited state file can carry,
// are dropped so later writes never land in a nil map.
func (t *ValueTable) Restore(snap Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = make(map[game.Key]map[int]float64, len(snap))
	for key, row := range snap {
		if row == nil {
			continue
		}
		t.values[key] = maps.Clone(row)
	}
	t.dirty = false
}

func (t *ValueTable) copyLocked() Snapshot {
	snap := make(Snapshot, len(t.values))
	for key, row := range t.values {
		snap[key] = maps.Clone(row)
	}
	return snap
}
