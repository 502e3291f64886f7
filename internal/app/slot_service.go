package app

import (
	"context"
	"errors"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
)

type SlotRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetAreaForUpdate(ctx context.Context, name string) (domain.Area, error)
	ListSlotNumbers(ctx context.Context, area string) ([]int, error)
	InsertSlots(ctx context.Context, area string, numbers []int) ([]string, error)
	UpdateAreaCapacity(ctx context.Context, name string, totalSlots int) error
	GetSlot(ctx context.Context, id string) (domain.Slot, error)
	DeleteSlot(ctx context.Context, id string) error
	ListSlotsForArea(ctx context.Context, area string) ([]domain.Slot, error)
}

// SlotService owns slot lifecycle: gap-filled creation, lookup, listing and
// deletion. All writes for one area serialize on the area row.
type SlotService struct {
	repo SlotRepository
}

func NewSlotService(repo SlotRepository) *SlotService {
	return &SlotService{repo: repo}
}

type CreateSlotsInput struct {
	Area  string
	Count int
}

type CreateSlotsResult struct {
	CreatedIDs  []string
	HolesReused int
	Minted      int
	TotalSlots  int
}

// createSlotsAttempts bounds the recompute-and-retry loop entered when a
// writer outside this service races an insert on the same identifier.
const createSlotsAttempts = 2

// CreateSlots materializes Count additional slots for an area, reusing
// deletion holes before extending capacity. Requesting zero or fewer slots
// succeeds as a no-op.
func (s *SlotService) CreateSlots(ctx context.Context, in CreateSlotsInput) (CreateSlotsResult, error) {
	name := domain.NormalizeAreaName(in.Area)
	if name == "" {
		return CreateSlotsResult{}, domain.ErrUnknownArea
	}
	if in.Count <= 0 {
		area, err := s.getArea(ctx, name)
		if err != nil {
			return CreateSlotsResult{}, err
		}
		return CreateSlotsResult{TotalSlots: area.TotalSlots}, nil
	}

	var result CreateSlotsResult
	var err error
	for attempt := 0; attempt < createSlotsAttempts; attempt++ {
		result, err = s.createSlotsOnce(ctx, name, in.Count)
		if !errors.Is(err, domain.ErrDuplicateSlot) {
			break
		}
	}
	return result, err
}

func (s *SlotService) createSlotsOnce(ctx context.Context, area string, count int) (CreateSlotsResult, error) {
	var result CreateSlotsResult
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		a, err := s.repo.GetAreaForUpdate(txCtx, area)
		if err != nil {
			return err
		}
		numbers, err := s.repo.ListSlotNumbers(txCtx, area)
		if err != nil {
			return err
		}

		plan := planSlotNumbers(numbers, a.TotalSlots, count)
		created, err := s.repo.InsertSlots(txCtx, area, plan.Numbers)
		if err != nil {
			return err
		}
		// A planned number that was not created means another writer took it
		// between our snapshot and the insert; recompute with a fresh view.
		if len(created) != len(plan.Numbers) {
			return domain.ErrDuplicateSlot
		}

		result = CreateSlotsResult{
			CreatedIDs:  created,
			HolesReused: plan.HolesReused,
			Minted:      plan.Minted,
			TotalSlots:  a.TotalSlots,
		}
		if plan.NewCapacity > a.TotalSlots {
			if err := s.repo.UpdateAreaCapacity(txCtx, area, plan.NewCapacity); err != nil {
				return err
			}
			result.TotalSlots = plan.NewCapacity
		}
		return nil
	})
	if err != nil {
		return CreateSlotsResult{}, err
	}
	return result, nil
}

func (s *SlotService) getArea(ctx context.Context, name string) (domain.Area, error) {
	var area domain.Area
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		area, err = s.repo.GetAreaForUpdate(txCtx, name)
		return err
	})
	return area, err
}

// GetSlot returns a slot by id.
func (s *SlotService) GetSlot(ctx context.Context, id string) (domain.Slot, error) {
	if _, _, err := domain.ParseSlotID(id); err != nil {
		return domain.Slot{}, err
	}
	return s.repo.GetSlot(ctx, id)
}

// DeleteSlot removes a slot entirely, leaving a hole for later reuse. Area
// capacity is not touched.
func (s *SlotService) DeleteSlot(ctx context.Context, id string) error {
	if _, _, err := domain.ParseSlotID(id); err != nil {
		return err
	}
	return s.repo.DeleteSlot(ctx, id)
}

// ListSlotsForArea returns the area's slots ordered by number.
func (s *SlotService) ListSlotsForArea(ctx context.Context, area string) ([]domain.Slot, error) {
	name := domain.NormalizeAreaName(area)
	if name == "" {
		return nil, domain.ErrUnknownArea
	}
	return s.repo.ListSlotsForArea(ctx, name)
}
