package database

import (
	"context"
	"database/sql"
	"fmt"
)

// CursorRepository - Postgres-реализация domain.CursorStore.
// Одна строка (id = 1), двигаем через GREATEST: конкурентные инвокации
// могут писать наперегонки, но курсор назад не уедет никогда.
type CursorRepository struct {
	db *DB
}

func NewCursorRepository(db *DB) *CursorRepository {
	return &CursorRepository{db: db}
}

func (r *CursorRepository) Current(ctx context.Context) (int64, error) {
	query := `SELECT last_event_id FROM feed_cursor WHERE id = 1`

	var id int64
	err := r.db.QueryRowContext(ctx, query).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil // Цикл еще ни разу не бегал
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cursor: %w", err)
	}
	return id, nil
}

func (r *CursorRepository) Advance(ctx context.Context, id int64) error {
	query := `
		INSERT INTO feed_cursor (id, last_event_id, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET last_event_id = GREATEST(feed_cursor.last_event_id, EXCLUDED.last_event_id),
		    updated_at    = NOW()
	`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to advance cursor: %w", err)
	}
	return nil
}
