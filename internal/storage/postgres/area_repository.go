package postgres

import (
	"context"
	"fmt"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AreaRepository struct {
	pool *pgxpool.Pool
}

func NewAreaRepository(pool *pgxpool.Pool) *AreaRepository {
	return &AreaRepository{pool: pool}
}

func (r *AreaRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *AreaRepository) InsertArea(ctx context.Context, area domain.Area) error {
	const stmt = `
INSERT INTO areas (name, total_slots, created_at)
VALUES ($1, $2, $3)`
	_, err := r.exec(ctx, stmt, area.Name, area.TotalSlots, area.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateArea
		}
		return fmt.Errorf("insert area: %w", err)
	}
	return nil
}

func (r *AreaRepository) GetAreaForUpdate(ctx context.Context, name string) (domain.Area, error) {
	const query = `SELECT name, total_slots, created_at FROM areas WHERE name = $1 FOR UPDATE`
	var a domain.Area
	err := r.queryRow(ctx, query, name).Scan(&a.Name, &a.TotalSlots, &a.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Area{}, domain.ErrUnknownArea
		}
		return domain.Area{}, fmt.Errorf("get area: %w", err)
	}
	return a, nil
}

func (r *AreaRepository) UpdateAreaCapacity(ctx context.Context, name string, totalSlots int) error {
	const stmt = `UPDATE areas SET total_slots = $2 WHERE name = $1`
	tag, err := r.exec(ctx, stmt, name, totalSlots)
	if err != nil {
		return fmt.Errorf("update area capacity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownArea
	}
	return nil
}

func (r *AreaRepository) InsertSlots(ctx context.Context, area string, numbers []int) ([]string, error) {
	return insertSlots(ctx, r, area, numbers)
}

func (r *AreaRepository) ListAreas(ctx context.Context) ([]domain.AreaStats, error) {
	const query = `
SELECT a.name,
       a.total_slots,
       a.created_at,
       COUNT(s.id),
       COUNT(s.id) FILTER (WHERE s.car_ref IS NOT NULL OR s.client_ref IS NOT NULL OR s.tire_set_ref IS NOT NULL)
FROM areas a
LEFT JOIN slots s ON s.area_name = a.name
GROUP BY a.name, a.total_slots, a.created_at
ORDER BY a.name ASC`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	defer rows.Close()

	var areas []domain.AreaStats
	for rows.Next() {
		var a domain.AreaStats
		if err := rows.Scan(&a.Name, &a.TotalSlots, &a.CreatedAt, &a.LiveSlots, &a.OccupiedSlots); err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		areas = append(areas, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate areas: %w", rows.Err())
	}
	return areas, nil
}

func (r *AreaRepository) DeleteArea(ctx context.Context, name string) error {
	// Slots go with the area via ON DELETE CASCADE.
	const stmt = `DELETE FROM areas WHERE name = $1`
	tag, err := r.exec(ctx, stmt, name)
	if err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUnknownArea
	}
	return nil
}

func (r *AreaRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *AreaRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *AreaRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
