package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/app"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
)

func ref(v int64) *int64 { return &v }

type fakeSlotManager struct {
	slot domain.Slot
	err  error
}

func (f *fakeSlotManager) GetSlot(_ context.Context, _ string) (domain.Slot, error) {
	return f.slot, f.err
}

func (f *fakeSlotManager) DeleteSlot(_ context.Context, _ string) error {
	return f.err
}

type fakeAssigner struct {
	check    app.OverwriteCheck
	slot     domain.Slot
	err      error
	lastPush app.ConfirmAssignInput
}

func (f *fakeAssigner) CheckOverwrite(_ context.Context, _ string) (app.OverwriteCheck, error) {
	return f.check, f.err
}

func (f *fakeAssigner) ConfirmAssign(_ context.Context, in app.ConfirmAssignInput) (domain.Slot, error) {
	f.lastPush = in
	if f.err != nil {
		return domain.Slot{}, f.err
	}
	return f.slot, nil
}

func (f *fakeAssigner) Clear(_ context.Context, _ string) (domain.Slot, error) {
	return f.slot, f.err
}

type fakeHistoryRecorder struct {
	recorded []string
	err      error
}

func (f *fakeHistoryRecorder) RecordAssignment(_ context.Context, clientRef int64, slotID string) (domain.HistoryEntry, error) {
	if f.err != nil {
		return domain.HistoryEntry{}, f.err
	}
	f.recorded = append(f.recorded, slotID)
	return domain.HistoryEntry{ID: "h1", ClientRef: clientRef, SlotID: slotID}, nil
}

func TestHandleSlots_Get(t *testing.T) {
	t.Parallel()

	manager := &fakeSlotManager{slot: domain.Slot{
		ID:        "A_002",
		Area:      "A",
		Number:    2,
		ClientRef: ref(42),
		Version:   3,
	}}
	handler := HandleSlots(manager, &fakeAssigner{}, &fakeHistoryRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/slots/A_002", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got slotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID != "A_002" || !got.Occupied || got.ClientRef == nil || *got.ClientRef != 42 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestHandleSlots_GetErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{name: "not found", serviceErr: domain.ErrSlotNotFound, expectedStatus: http.StatusNotFound},
		{name: "malformed id", serviceErr: domain.ErrInvalidSlotID, expectedStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := HandleSlots(&fakeSlotManager{err: tt.serviceErr}, &fakeAssigner{}, &fakeHistoryRecorder{})
			req := httptest.NewRequest(http.MethodGet, "/slots/whatever", nil)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleSlots_Occupancy(t *testing.T) {
	t.Parallel()

	assigner := &fakeAssigner{check: app.OverwriteCheck{
		SlotID:   "A_001",
		Occupied: true,
		Prior:    domain.Refs{Client: ref(7)},
		Version:  5,
	}}
	handler := HandleSlots(&fakeSlotManager{}, assigner, &fakeHistoryRecorder{})

	req := httptest.NewRequest(http.MethodGet, "/slots/A_001/occupancy", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got occupancyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !got.Occupied || got.Version != 5 || got.Prior.ClientRef == nil || *got.Prior.ClientRef != 7 {
		t.Fatalf("unexpected response: %+v", got)
	}
	if got.Prior.CarRef != nil {
		t.Fatal("expected empty car ref")
	}
}

func TestHandleSlots_Assign(t *testing.T) {
	t.Parallel()

	t.Run("absent field leaves ref unchanged", func(t *testing.T) {
		t.Parallel()

		assigner := &fakeAssigner{slot: domain.Slot{ID: "A_001", Area: "A", Number: 1, ClientRef: ref(42), Version: 1}}
		history := &fakeHistoryRecorder{}
		handler := HandleSlots(&fakeSlotManager{}, assigner, history)

		body := `{"client_ref":42,"version":0}`
		req := httptest.NewRequest(http.MethodPost, "/slots/A_001/assign", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		patch := assigner.lastPush.Patch
		if !patch.Client.Set || patch.Client.Ref == nil || *patch.Client.Ref != 42 {
			t.Fatalf("expected client ref set to 42, got %+v", patch.Client)
		}
		if patch.Car.Set || patch.TireSet.Set {
			t.Fatalf("expected car and tire set untouched, got %+v", patch)
		}
		if len(history.recorded) != 1 || history.recorded[0] != "A_001" {
			t.Fatalf("expected history entry for A_001, got %v", history.recorded)
		}
	})

	t.Run("explicit null clears the ref", func(t *testing.T) {
		t.Parallel()

		assigner := &fakeAssigner{slot: domain.Slot{ID: "A_001", Area: "A", Number: 1, CarRef: ref(9), Version: 1}}
		history := &fakeHistoryRecorder{}
		handler := HandleSlots(&fakeSlotManager{}, assigner, history)

		body := `{"client_ref":null,"car_ref":9,"version":0}`
		req := httptest.NewRequest(http.MethodPost, "/slots/A_001/assign", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		patch := assigner.lastPush.Patch
		if !patch.Client.Set || patch.Client.Ref != nil {
			t.Fatalf("expected client ref cleared, got %+v", patch.Client)
		}
		if !patch.Car.Set || patch.Car.Ref == nil || *patch.Car.Ref != 9 {
			t.Fatalf("expected car ref set to 9, got %+v", patch.Car)
		}
		if len(history.recorded) != 0 {
			t.Fatalf("expected no history entry without a client ref, got %v", history.recorded)
		}
	})

	t.Run("stale version token", func(t *testing.T) {
		t.Parallel()

		handler := HandleSlots(&fakeSlotManager{}, &fakeAssigner{err: domain.ErrAssignmentConflict}, &fakeHistoryRecorder{})
		req := httptest.NewRequest(http.MethodPost, "/slots/A_001/assign", strings.NewReader(`{"client_ref":42,"version":1}`))
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("empty assignment", func(t *testing.T) {
		t.Parallel()

		handler := HandleSlots(&fakeSlotManager{}, &fakeAssigner{err: domain.ErrEmptyAssignment}, &fakeHistoryRecorder{})
		req := httptest.NewRequest(http.MethodPost, "/slots/A_001/assign", strings.NewReader(`{"version":0}`))
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		handler := HandleSlots(&fakeSlotManager{}, &fakeAssigner{}, &fakeHistoryRecorder{})
		req := httptest.NewRequest(http.MethodPost, "/slots/A_001/assign", strings.NewReader(`{"client_ref":`))
		rec := httptest.NewRecorder()
		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestHandleSlots_Clear(t *testing.T) {
	t.Parallel()

	assigner := &fakeAssigner{slot: domain.Slot{ID: "A_001", Area: "A", Number: 1, Version: 2}}
	handler := HandleSlots(&fakeSlotManager{}, assigner, &fakeHistoryRecorder{})

	req := httptest.NewRequest(http.MethodPost, "/slots/A_001/clear", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got slotResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Occupied {
		t.Fatalf("expected cleared slot, got %+v", got)
	}
}

func TestHandleSlots_Routing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{name: "unknown action", method: http.MethodPost, path: "/slots/A_001/promote", expectedStatus: http.StatusNotFound},
		{name: "wrong method on assign", method: http.MethodGet, path: "/slots/A_001/assign", expectedStatus: http.StatusMethodNotAllowed},
		{name: "missing id", method: http.MethodGet, path: "/slots/", expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := HandleSlots(&fakeSlotManager{}, &fakeAssigner{}, &fakeHistoryRecorder{})
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}
