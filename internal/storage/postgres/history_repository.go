package postgres

import (
	"context"
	"fmt"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

func (r *HistoryRepository) ListByClient(ctx context.Context, clientRef int64) ([]domain.HistoryEntry, error) {
	const query = `
SELECT id, client_ref, slot_id, assigned_at
FROM assignment_history
WHERE client_ref = $1
ORDER BY assigned_at DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, clientRef)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.ClientRef, &e.SlotID, &e.AssignedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate history: %w", rows.Err())
	}
	return entries, nil
}

func (r *HistoryRepository) InsertEntry(ctx context.Context, entry domain.HistoryEntry) error {
	const stmt = `
INSERT INTO assignment_history (id, client_ref, slot_id, assigned_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, stmt, entry.ID, entry.ClientRef, entry.SlotID, entry.AssignedAt)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}
