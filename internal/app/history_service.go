package app

import (
	"context"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/clock"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
	"github.com/google/uuid"
)

type HistoryRepository interface {
	ListByClient(ctx context.Context, clientRef int64) ([]domain.HistoryEntry, error)
	InsertEntry(ctx context.Context, entry domain.HistoryEntry) error
}

// HistoryService reads the append-only assignment log. The core never writes
// history on its own: RecordAssignment exists for the layer driving a
// successful assignment to call afterwards.
type HistoryService struct {
	repo  HistoryRepository
	clock clock.Clock
}

func NewHistoryService(repo HistoryRepository, clk clock.Clock) *HistoryService {
	return &HistoryService{
		repo:  repo,
		clock: clk,
	}
}

// HistoryFor returns the customer's prior slot assignments, most recent
// first. An unknown customer yields an empty list, not an error.
func (s *HistoryService) HistoryFor(ctx context.Context, clientRef int64) ([]domain.HistoryEntry, error) {
	if clientRef <= 0 {
		return nil, domain.ErrInvalidClientRef
	}
	return s.repo.ListByClient(ctx, clientRef)
}

// RecordAssignment appends one log entry for a completed assignment.
func (s *HistoryService) RecordAssignment(ctx context.Context, clientRef int64, slotID string) (domain.HistoryEntry, error) {
	if clientRef <= 0 {
		return domain.HistoryEntry{}, domain.ErrInvalidClientRef
	}
	if _, _, err := domain.ParseSlotID(slotID); err != nil {
		return domain.HistoryEntry{}, err
	}

	entry := domain.HistoryEntry{
		ID:         uuid.NewString(),
		ClientRef:  clientRef,
		SlotID:     slotID,
		AssignedAt: s.clock.Now(),
	}
	if err := s.repo.InsertEntry(ctx, entry); err != nil {
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}
