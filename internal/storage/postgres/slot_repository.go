package postgres

import (
	"context"
	"fmt"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotColumns = `id, area_name, slot_number, car_ref, client_ref, tire_set_ref, version, created_at, updated_at`

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

func (r *SlotRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SlotRepository) GetAreaForUpdate(ctx context.Context, name string) (domain.Area, error) {
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

func (r *SlotRepository) ListSlotNumbers(ctx context.Context, area string) ([]int, error) {
	const query = `SELECT slot_number FROM slots WHERE area_name = $1 ORDER BY slot_number ASC`
	rows, err := r.query(ctx, query, area)
	if err != nil {
		return nil, fmt.Errorf("list slot numbers: %w", err)
	}
	defer rows.Close()

	var numbers []int
	for rows.Next() {
		var n int
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan slot number: %w", err)
		}
		numbers = append(numbers, n)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate slot numbers: %w", rows.Err())
	}
	return numbers, nil
}

func (r *SlotRepository) InsertSlots(ctx context.Context, area string, numbers []int) ([]string, error) {
	return insertSlots(ctx, r, area, numbers)
}

func (r *SlotRepository) UpdateAreaCapacity(ctx context.Context, name string, totalSlots int) error {
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

func (r *SlotRepository) GetSlot(ctx context.Context, id string) (domain.Slot, error) {
	const query = `SELECT ` + slotColumns + ` FROM slots WHERE id = $1`
	slot, err := scanSlot(r.queryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Slot{}, domain.ErrSlotNotFound
		}
		return domain.Slot{}, fmt.Errorf("get slot: %w", err)
	}
	return slot, nil
}

func (r *SlotRepository) DeleteSlot(ctx context.Context, id string) error {
	const stmt = `DELETE FROM slots WHERE id = $1`
	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSlotNotFound
	}
	return nil
}

func (r *SlotRepository) ListSlotsForArea(ctx context.Context, area string) ([]domain.Slot, error) {
	const existsQuery = `SELECT EXISTS (SELECT 1 FROM areas WHERE name = $1)`
	var exists bool
	if err := r.queryRow(ctx, existsQuery, area).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check area: %w", err)
	}
	if !exists {
		return nil, domain.ErrUnknownArea
	}

	const query = `SELECT ` + slotColumns + ` FROM slots WHERE area_name = $1 ORDER BY slot_number ASC`
	rows, err := r.query(ctx, query, area)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate slots: %w", rows.Err())
	}
	return slots, nil
}

// UpdateSlotRefs applies a partial reference update guarded by the slot's
// version token. RowsAffected 0 means either the slot is gone or the token is
// stale; a follow-up existence check tells the two apart.
func (r *SlotRepository) UpdateSlotRefs(ctx context.Context, id string, patch domain.RefPatch, expectedVersion int64) (domain.Slot, error) {
	const stmt = `
UPDATE slots SET
	car_ref      = CASE WHEN $3 THEN $4 ELSE car_ref END,
	client_ref   = CASE WHEN $5 THEN $6 ELSE client_ref END,
	tire_set_ref = CASE WHEN $7 THEN $8 ELSE tire_set_ref END,
	version      = version + 1,
	updated_at   = NOW()
WHERE id = $1 AND version = $2
RETURNING ` + slotColumns

	slot, err := scanSlot(r.queryRow(ctx, stmt, id, expectedVersion,
		patch.Car.Set, patch.Car.Ref,
		patch.Client.Set, patch.Client.Ref,
		patch.TireSet.Set, patch.TireSet.Ref,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			const existsQuery = `SELECT EXISTS (SELECT 1 FROM slots WHERE id = $1)`
			var exists bool
			if err := r.queryRow(ctx, existsQuery, id).Scan(&exists); err != nil {
				return domain.Slot{}, fmt.Errorf("check slot: %w", err)
			}
			if !exists {
				return domain.Slot{}, domain.ErrSlotNotFound
			}
			return domain.Slot{}, domain.ErrAssignmentConflict
		}
		return domain.Slot{}, fmt.Errorf("update slot refs: %w", err)
	}
	return slot, nil
}

func (r *SlotRepository) ClearSlotRefs(ctx context.Context, id string) (domain.Slot, error) {
	const stmt = `
UPDATE slots SET
	car_ref      = NULL,
	client_ref   = NULL,
	tire_set_ref = NULL,
	version      = version + 1,
	updated_at   = NOW()
WHERE id = $1
RETURNING ` + slotColumns

	slot, err := scanSlot(r.queryRow(ctx, stmt, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Slot{}, domain.ErrSlotNotFound
		}
		return domain.Slot{}, fmt.Errorf("clear slot refs: %w", err)
	}
	return slot, nil
}

func (r *SlotRepository) ListEmptySlots(ctx context.Context) ([]domain.Slot, error) {
	const query = `
SELECT ` + slotColumns + `
FROM slots
WHERE car_ref IS NULL AND client_ref IS NULL AND tire_set_ref IS NULL
ORDER BY area_name ASC, slot_number ASC`
	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list empty slots: %w", err)
	}
	defer rows.Close()

	var slots []domain.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate empty slots: %w", rows.Err())
	}
	return slots, nil
}

func scanSlot(row pgx.Row) (domain.Slot, error) {
	var s domain.Slot
	err := row.Scan(&s.ID, &s.Area, &s.Number, &s.CarRef, &s.ClientRef, &s.TireSetRef, &s.Version, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

type rowQuerier interface {
	queryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertSlots creates empty slots for each number not already present and
// returns the ids it actually created. Existing numbers are skipped so the
// call stays idempotent under retries.
func insertSlots(ctx context.Context, q rowQuerier, area string, numbers []int) ([]string, error) {
	const stmt = `
INSERT INTO slots (id, area_name, slot_number)
VALUES ($1, $2, $3)
ON CONFLICT DO NOTHING
RETURNING id`

	created := make([]string, 0, len(numbers))
	for _, n := range numbers {
		id := domain.FormatSlotID(area, n)
		var got string
		err := q.queryRow(ctx, stmt, id, area, n).Scan(&got)
		if err == pgx.ErrNoRows {
			continue
		}
		if err != nil {
			if isUniqueViolation(err) {
				return nil, domain.ErrDuplicateSlot
			}
			if isForeignKeyViolation(err) {
				return nil, domain.ErrUnknownArea
			}
			return nil, fmt.Errorf("insert slot %s: %w", id, err)
		}
		created = append(created, got)
	}
	return created, nil
}

func (r *SlotRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SlotRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *SlotRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
