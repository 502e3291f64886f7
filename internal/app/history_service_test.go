package app

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/clock"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
)

func TestHistoryService_HistoryFor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("returns entries most recent first", func(t *testing.T) {
		repo := newFakeHistoryRepo(
			domain.HistoryEntry{ClientRef: 42, SlotID: "A_001", AssignedAt: now.AddDate(-1, 0, 0)},
			domain.HistoryEntry{ClientRef: 42, SlotID: "B_003", AssignedAt: now},
			domain.HistoryEntry{ClientRef: 7, SlotID: "A_002", AssignedAt: now},
		)
		svc := NewHistoryService(repo, clock.NewFixed(now))

		entries, err := svc.HistoryFor(context.Background(), 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].SlotID != "B_003" || entries[1].SlotID != "A_001" {
			t.Fatalf("expected most-recent-first ordering, got %+v", entries)
		}
	})

	t.Run("unknown customer yields empty list", func(t *testing.T) {
		svc := NewHistoryService(newFakeHistoryRepo(), clock.NewFixed(now))
		entries, err := svc.HistoryFor(context.Background(), 999)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected empty history, got %+v", entries)
		}
	})

	t.Run("invalid client ref", func(t *testing.T) {
		svc := NewHistoryService(newFakeHistoryRepo(), clock.NewFixed(now))
		if _, err := svc.HistoryFor(context.Background(), -1); err != domain.ErrInvalidClientRef {
			t.Fatalf("expected ErrInvalidClientRef, got %v", err)
		}
	})
}

func TestHistoryService_RecordAssignment(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("appends a timestamped entry", func(t *testing.T) {
		repo := newFakeHistoryRepo()
		svc := NewHistoryService(repo, clock.NewFixed(now))

		entry, err := svc.RecordAssignment(context.Background(), 42, "A_001")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if entry.ID == "" {
			t.Fatalf("expected entry id to be set")
		}
		if entry.AssignedAt != now {
			t.Fatalf("expected assigned_at %v, got %v", now, entry.AssignedAt)
		}
		if len(repo.entries) != 1 {
			t.Fatalf("expected 1 stored entry, got %d", len(repo.entries))
		}
	})

	t.Run("rejects malformed slot id", func(t *testing.T) {
		svc := NewHistoryService(newFakeHistoryRepo(), clock.NewFixed(now))
		if _, err := svc.RecordAssignment(context.Background(), 42, "garbage"); err != domain.ErrInvalidSlotID {
			t.Fatalf("expected ErrInvalidSlotID, got %v", err)
		}
	})

	t.Run("rejects invalid client ref", func(t *testing.T) {
		svc := NewHistoryService(newFakeHistoryRepo(), clock.NewFixed(now))
		if _, err := svc.RecordAssignment(context.Background(), 0, "A_001"); err != domain.ErrInvalidClientRef {
			t.Fatalf("expected ErrInvalidClientRef, got %v", err)
		}
	})
}

type fakeHistoryRepo struct {
	entries []domain.HistoryEntry
}

func newFakeHistoryRepo(entries ...domain.HistoryEntry) *fakeHistoryRepo {
	return &fakeHistoryRepo{entries: entries}
}

func (f *fakeHistoryRepo) ListByClient(_ context.Context, clientRef int64) ([]domain.HistoryEntry, error) {
	var out []domain.HistoryEntry
	for _, e := range f.entries {
		if e.ClientRef == clientRef {
			out = append(out, e)
		}
	}
	// Most recent first, as the backing query orders it.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AssignedAt.After(out[j].AssignedAt)
	})
	return out, nil
}

func (f *fakeHistoryRepo) InsertEntry(_ context.Context, entry domain.HistoryEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}
