package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"tictactoe/agent"
	"tictactoe/game"
)

// SQLiteStore keeps one row per (board key, cell) estimate. Saves rewrite
// the whole table in a transaction; a full tic-tac-toe table is a few
// thousand rows, so this stays cheap.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS estimates (
		board_key TEXT,  -- canonical 9-character position
		cell INTEGER,    -- 0-8
		value REAL,
		PRIMARY KEY (board_key, cell)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (agent.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT board_key, cell, value FROM estimates")
	if err != nil {
		return nil, fmt.Errorf("failed to query estimates: %w", err)
	}
	defer rows.Close()

	snap := agent.Snapshot{}
	for rows.Next() {
		var (
			key   string
			cell  int
			value float64
		)
		if err := rows.Scan(&key, &cell, &value); err != nil {
			return nil, err
		}
		row, ok := snap[game.Key(key)]
		if !ok {
			row = make(map[int]float64)
			snap[game.Key(key)] = row
		}
		row[cell] = value
	}
	return snap, rows.Err()
}

func (s *SQLiteStore) Save(ctx context.Context, snap agent.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM estimates"); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO estimates (board_key, cell, value) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for key, row := range snap {
		for cell, value := range row {
			if _, err := stmt.ExecContext(ctx, string(key), cell, value); err != nil {
				return fmt.Errorf("failed to insert %s cell %d: %w", key, cell, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
