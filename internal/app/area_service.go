package app

import (
	"context"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/clock"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
)

type AreaRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	InsertArea(ctx context.Context, area domain.Area) error
	GetAreaForUpdate(ctx context.Context, name string) (domain.Area, error)
	UpdateAreaCapacity(ctx context.Context, name string, totalSlots int) error
	InsertSlots(ctx context.Context, area string, numbers []int) ([]string, error)
	ListAreas(ctx context.Context) ([]domain.AreaStats, error)
	DeleteArea(ctx context.Context, name string) error
}

// AreaService manages the catalogue of storage areas and their capacities.
type AreaService struct {
	repo  AreaRepository
	clock clock.Clock
}

func NewAreaService(repo AreaRepository, clk clock.Clock) *AreaService {
	return &AreaService{
		repo:  repo,
		clock: clk,
	}
}

type CreateAreaInput struct {
	Name     string
	Capacity int
}

// CreateArea registers a new area and materializes its slots 1..Capacity,
// all empty.
func (s *AreaService) CreateArea(ctx context.Context, in CreateAreaInput) (domain.Area, error) {
	name := domain.NormalizeAreaName(in.Name)
	if name == "" {
		return domain.Area{}, domain.ErrAreaNameRequired
	}
	if in.Capacity <= 0 {
		return domain.Area{}, domain.ErrInvalidCapacity
	}

	area := domain.Area{
		Name:       name,
		TotalSlots: in.Capacity,
		CreatedAt:  s.clock.Now(),
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.InsertArea(txCtx, area); err != nil {
			return err
		}
		numbers := make([]int, in.Capacity)
		for i := range numbers {
			numbers[i] = i + 1
		}
		_, err := s.repo.InsertSlots(txCtx, name, numbers)
		return err
	})
	if err != nil {
		return domain.Area{}, err
	}
	return area, nil
}

type ExtendAreaInput struct {
	Name            string
	AdditionalCount int
}

// ExtendArea raises an area's capacity by AdditionalCount and creates the new
// empty slots. Returns the new total. Extensions for the same area serialize
// on the area row so concurrent calls never mint overlapping ranges.
func (s *AreaService) ExtendArea(ctx context.Context, in ExtendAreaInput) (int, error) {
	name := domain.NormalizeAreaName(in.Name)
	if name == "" {
		return 0, domain.ErrUnknownArea
	}
	if in.AdditionalCount <= 0 {
		return 0, domain.ErrInvalidCapacity
	}

	var newTotal int
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		area, err := s.repo.GetAreaForUpdate(txCtx, name)
		if err != nil {
			return err
		}

		newTotal = area.TotalSlots + in.AdditionalCount
		numbers := make([]int, 0, in.AdditionalCount)
		for n := area.TotalSlots + 1; n <= newTotal; n++ {
			numbers = append(numbers, n)
		}
		if _, err := s.repo.InsertSlots(txCtx, name, numbers); err != nil {
			return err
		}
		return s.repo.UpdateAreaCapacity(txCtx, name, newTotal)
	})
	if err != nil {
		return 0, err
	}
	return newTotal, nil
}

// ListAreas returns all areas ordered by name, with occupancy counts.
// Ordering is a display convenience.
func (s *AreaService) ListAreas(ctx context.Context) ([]domain.AreaStats, error) {
	return s.repo.ListAreas(ctx)
}

// DeleteArea removes an area and all of its slots. This is a rare
// administrative action; normal operation only deletes individual slots.
func (s *AreaService) DeleteArea(ctx context.Context, name string) error {
	normalized := domain.NormalizeAreaName(name)
	if normalized == "" {
		return domain.ErrUnknownArea
	}
	return s.repo.DeleteArea(ctx, normalized)
}
