package app

import (
	"context"
	"sort"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
)

type AssignmentRepository interface {
	GetSlot(ctx context.Context, id string) (domain.Slot, error)
	// UpdateSlotRefs applies a partial reference update if and only if the
	// slot's version still matches expectedVersion.
	UpdateSlotRefs(ctx context.Context, id string, patch domain.RefPatch, expectedVersion int64) (domain.Slot, error)
	// ClearSlotRefs nulls all references unconditionally.
	ClearSlotRefs(ctx context.Context, id string) (domain.Slot, error)
	ListEmptySlots(ctx context.Context) ([]domain.Slot, error)
}

// HistoryReader is the read side of the external assignment log, used to bias
// slot suggestions toward a customer's previous locations.
type HistoryReader interface {
	HistoryFor(ctx context.Context, clientRef int64) ([]domain.HistoryEntry, error)
}

// AssignmentService applies and removes occupant triples on slots. Assigning
// is split into CheckOverwrite and ConfirmAssign so the decision to overwrite
// an occupied slot is always explicit: the confirm step re-validates with the
// version token observed by the check, so a concurrent write is rejected
// instead of silently lost.
type AssignmentService struct {
	repo    AssignmentRepository
	history HistoryReader
}

func NewAssignmentService(repo AssignmentRepository, history HistoryReader) *AssignmentService {
	return &AssignmentService{
		repo:    repo,
		history: history,
	}
}

// OverwriteCheck tells a caller what a write to the slot would replace.
type OverwriteCheck struct {
	SlotID   string
	Occupied bool
	Prior    domain.Refs
	Version  int64
}

// CheckOverwrite reports whether the slot is occupied, by whom, and the
// version token a subsequent ConfirmAssign must present. It performs no write.
func (s *AssignmentService) CheckOverwrite(ctx context.Context, slotID string) (OverwriteCheck, error) {
	slot, err := s.repo.GetSlot(ctx, slotID)
	if err != nil {
		return OverwriteCheck{}, err
	}
	return OverwriteCheck{
		SlotID:   slot.ID,
		Occupied: slot.Occupied(),
		Prior:    slot.Refs(),
		Version:  slot.Version,
	}, nil
}

type ConfirmAssignInput struct {
	SlotID  string
	Patch   domain.RefPatch
	Version int64
}

// ConfirmAssign writes the occupant references onto the slot. The patch must
// assign at least one reference (a patch that only clears must use Clear
// instead), and Version must match the token from CheckOverwrite; a stale
// token means the slot changed in between and the write is rejected with
// ErrAssignmentConflict.
func (s *AssignmentService) ConfirmAssign(ctx context.Context, in ConfirmAssignInput) (domain.Slot, error) {
	if !in.Patch.AssignsAnything() {
		return domain.Slot{}, domain.ErrEmptyAssignment
	}
	return s.repo.UpdateSlotRefs(ctx, in.SlotID, in.Patch, in.Version)
}

// Clear empties the slot unconditionally. Clearing an already-empty slot is
// a no-op that still succeeds.
func (s *AssignmentService) Clear(ctx context.Context, slotID string) (domain.Slot, error) {
	return s.repo.ClearSlotRefs(ctx, slotID)
}

// RankCandidateSlots returns the currently empty slots ordered for
// suggestion: slots the customer has used before first, most recent first,
// then the rest by area and number. The ranking is advisory; any slot may
// still be chosen.
func (s *AssignmentService) RankCandidateSlots(ctx context.Context, clientRef int64) ([]domain.Slot, error) {
	if clientRef <= 0 {
		return nil, domain.ErrInvalidClientRef
	}

	empty, err := s.repo.ListEmptySlots(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.HistoryFor(ctx, clientRef)
	if err != nil {
		return nil, err
	}

	// Rank of each slot id in the customer's history, most recent = 0.
	// Only the most recent occurrence of a repeated slot counts.
	recency := make(map[string]int, len(entries))
	for i, e := range entries {
		if _, ok := recency[e.SlotID]; !ok {
			recency[e.SlotID] = i
		}
	}

	var known, rest []domain.Slot
	for _, slot := range empty {
		if _, ok := recency[slot.ID]; ok {
			known = append(known, slot)
		} else {
			rest = append(rest, slot)
		}
	}

	sort.SliceStable(known, func(i, j int) bool {
		return recency[known[i].ID] < recency[known[j].ID]
	})
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].Area != rest[j].Area {
			return rest[i].Area < rest[j].Area
		}
		return rest[i].Number < rest[j].Number
	})

	return append(known, rest...), nil
}
