package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/app"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/observability/metrics"
)

// SlotManager covers slot lookup and deletion.
type SlotManager interface {
	GetSlot(ctx context.Context, id string) (domain.Slot, error)
	DeleteSlot(ctx context.Context, id string) error
}

// Assigner covers the two-phase assignment flow and clearing.
type Assigner interface {
	CheckOverwrite(ctx context.Context, slotID string) (app.OverwriteCheck, error)
	ConfirmAssign(ctx context.Context, in app.ConfirmAssignInput) (domain.Slot, error)
	Clear(ctx context.Context, slotID string) (domain.Slot, error)
}

// HistoryRecorder appends to the assignment log after a confirmed write.
type HistoryRecorder interface {
	RecordAssignment(ctx context.Context, clientRef int64, slotID string) (domain.HistoryEntry, error)
}

// HandleSlots returns the handler for /slots/{id} and its actions
// /occupancy, /assign and /clear.
func HandleSlots(slots SlotManager, assigner Assigner, history HistoryRecorder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, action, ok := parseSlotPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodGet:
			getSlot(w, r, slots, id)
		case action == "" && r.Method == http.MethodDelete:
			deleteSlot(w, r, slots, id)
		case action == "occupancy" && r.Method == http.MethodGet:
			checkOccupancy(w, r, assigner, id)
		case action == "assign" && r.Method == http.MethodPost:
			confirmAssign(w, r, assigner, history, id)
		case action == "clear" && r.Method == http.MethodPost:
			clearSlot(w, r, assigner, id)
		case action == "" || action == "occupancy" || action == "assign" || action == "clear":
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func parseSlotPath(path string) (id, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "slots" || parts[1] == "" {
		return "", "", false
	}
	id = parts[1]
	if len(parts) == 3 {
		action = parts[2]
	}
	return id, action, true
}

type slotResponse struct {
	ID         string    `json:"id"`
	Area       string    `json:"area"`
	Number     int       `json:"number"`
	CarRef     *int64    `json:"car_ref"`
	ClientRef  *int64    `json:"client_ref"`
	TireSetRef *int64    `json:"tire_set_ref"`
	Occupied   bool      `json:"occupied"`
	Version    int64     `json:"version"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func toSlotResponse(slot domain.Slot) slotResponse {
	return slotResponse{
		ID:         slot.ID,
		Area:       slot.Area,
		Number:     slot.Number,
		CarRef:     slot.CarRef,
		ClientRef:  slot.ClientRef,
		TireSetRef: slot.TireSetRef,
		Occupied:   slot.Occupied(),
		Version:    slot.Version,
		UpdatedAt:  slot.UpdatedAt,
	}
}

func getSlot(w http.ResponseWriter, r *http.Request, svc SlotManager, id string) {
	slot, err := svc.GetSlot(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toSlotResponse(slot))
}

func deleteSlot(w http.ResponseWriter, r *http.Request, svc SlotManager, id string) {
	if err := svc.DeleteSlot(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type occupancyResponse struct {
	SlotID   string `json:"slot_id"`
	Occupied bool   `json:"occupied"`
	Prior    struct {
		CarRef     *int64 `json:"car_ref"`
		ClientRef  *int64 `json:"client_ref"`
		TireSetRef *int64 `json:"tire_set_ref"`
	} `json:"prior"`
	Version int64 `json:"version"`
}

// checkOccupancy is the precondition step of an assignment: it tells the
// operator what a write would overwrite and hands out the version token the
// confirm step must present.
func checkOccupancy(w http.ResponseWriter, r *http.Request, svc Assigner, id string) {
	check, err := svc.CheckOverwrite(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := occupancyResponse{
		SlotID:   check.SlotID,
		Occupied: check.Occupied,
		Version:  check.Version,
	}
	resp.Prior.CarRef = check.Prior.Car
	resp.Prior.ClientRef = check.Prior.Client
	resp.Prior.TireSetRef = check.Prior.TireSet

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// optionalRef distinguishes an absent JSON field (leave unchanged) from an
// explicit null (clear the reference).
type optionalRef struct {
	set   bool
	value *int64
}

func (o *optionalRef) UnmarshalJSON(b []byte) error {
	o.set = true
	if string(b) == "null" {
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.value = &v
	return nil
}

func (o optionalRef) change() domain.RefChange {
	return domain.RefChange{Set: o.set, Ref: o.value}
}

type assignRequest struct {
	CarRef     optionalRef `json:"car_ref"`
	ClientRef  optionalRef `json:"client_ref"`
	TireSetRef optionalRef `json:"tire_set_ref"`
	Version    int64       `json:"version"`
}

func confirmAssign(w http.ResponseWriter, r *http.Request, svc Assigner, history HistoryRecorder, id string) {
	var req assignRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	slot, err := svc.ConfirmAssign(r.Context(), app.ConfirmAssignInput{
		SlotID: id,
		Patch: domain.RefPatch{
			Car:     req.CarRef.change(),
			Client:  req.ClientRef.change(),
			TireSet: req.TireSetRef.change(),
		},
		Version: req.Version,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAssignmentConflict) {
			metrics.ObserveAssignment(metrics.ResultConflict)
		} else {
			metrics.ObserveAssignment(metrics.ResultError)
		}
		writeDomainError(w, err)
		return
	}
	metrics.ObserveAssignment(metrics.ResultOK)

	// The core never writes history itself; appending after a successful
	// client assignment is this layer's job.
	if slot.ClientRef != nil {
		if _, err := history.RecordAssignment(r.Context(), *slot.ClientRef, slot.ID); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toSlotResponse(slot))
}

func clearSlot(w http.ResponseWriter, r *http.Request, svc Assigner, id string) {
	slot, err := svc.Clear(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(toSlotResponse(slot))
}
