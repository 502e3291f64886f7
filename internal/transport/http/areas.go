package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/app"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/observability/metrics"
)

// AreaManager is the minimal interface needed by the area handlers.
type AreaManager interface {
	CreateArea(ctx context.Context, in app.CreateAreaInput) (domain.Area, error)
	ExtendArea(ctx context.Context, in app.ExtendAreaInput) (int, error)
	ListAreas(ctx context.Context) ([]domain.AreaStats, error)
	DeleteArea(ctx context.Context, name string) error
}

// SlotProvisioner creates and lists slots within an area.
type SlotProvisioner interface {
	CreateSlots(ctx context.Context, in app.CreateSlotsInput) (app.CreateSlotsResult, error)
	ListSlotsForArea(ctx context.Context, area string) ([]domain.Slot, error)
}

// HandleAreas returns the handler for the /areas collection.
func HandleAreas(svc AreaManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			createArea(w, r, svc)
		case http.MethodGet:
			listAreas(w, r, svc)
		default:
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		}
	}
}

// HandleAreaItem returns the handler for /areas/{name} and its
// sub-resources /extend and /slots.
func HandleAreaItem(areas AreaManager, slots SlotProvisioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name, action, ok := parseAreaPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch {
		case action == "" && r.Method == http.MethodDelete:
			deleteArea(w, r, areas, name)
		case action == "extend" && r.Method == http.MethodPost:
			extendArea(w, r, areas, name)
		case action == "slots" && r.Method == http.MethodPost:
			createSlots(w, r, slots, name)
		case action == "slots" && r.Method == http.MethodGet:
			listAreaSlots(w, r, slots, name)
		case action == "" || action == "extend" || action == "slots":
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func parseAreaPath(path string) (name, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "areas" || parts[1] == "" {
		return "", "", false
	}
	name = parts[1]
	if len(parts) == 3 {
		action = parts[2]
	}
	return name, action, true
}

type createAreaRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type areaResponse struct {
	Name       string    `json:"name"`
	TotalSlots int       `json:"total_slots"`
	CreatedAt  time.Time `json:"created_at"`
}

func createArea(w http.ResponseWriter, r *http.Request, svc AreaManager) {
	var req createAreaRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	area, err := svc.CreateArea(r.Context(), app.CreateAreaInput{
		Name:     req.Name,
		Capacity: req.Capacity,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(areaResponse{
		Name:       area.Name,
		TotalSlots: area.TotalSlots,
		CreatedAt:  area.CreatedAt,
	})
}

type areaStatsResponse struct {
	Name          string    `json:"name"`
	TotalSlots    int       `json:"total_slots"`
	LiveSlots     int       `json:"live_slots"`
	OccupiedSlots int       `json:"occupied_slots"`
	CreatedAt     time.Time `json:"created_at"`
}

func listAreas(w http.ResponseWriter, r *http.Request, svc AreaManager) {
	areas, err := svc.ListAreas(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]areaStatsResponse, 0, len(areas))
	for _, a := range areas {
		out = append(out, areaStatsResponse{
			Name:          a.Name,
			TotalSlots:    a.TotalSlots,
			LiveSlots:     a.LiveSlots,
			OccupiedSlots: a.OccupiedSlots,
			CreatedAt:     a.CreatedAt,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

type extendAreaRequest struct {
	Count int `json:"count"`
}

type extendAreaResponse struct {
	Name       string `json:"name"`
	TotalSlots int    `json:"total_slots"`
}

func extendArea(w http.ResponseWriter, r *http.Request, svc AreaManager, name string) {
	var req extendAreaRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	total, err := svc.ExtendArea(r.Context(), app.ExtendAreaInput{
		Name:            name,
		AdditionalCount: req.Count,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(extendAreaResponse{
		Name:       domain.NormalizeAreaName(name),
		TotalSlots: total,
	})
}

func deleteArea(w http.ResponseWriter, r *http.Request, svc AreaManager, name string) {
	if err := svc.DeleteArea(r.Context(), name); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type createSlotsRequest struct {
	Count int `json:"count"`
}

type createSlotsResponse struct {
	CreatedIDs  []string `json:"created_ids"`
	HolesReused int      `json:"holes_reused"`
	Minted      int      `json:"minted"`
	TotalSlots  int      `json:"total_slots"`
}

func createSlots(w http.ResponseWriter, r *http.Request, svc SlotProvisioner, name string) {
	var req createSlotsRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}

	res, err := svc.CreateSlots(r.Context(), app.CreateSlotsInput{
		Area:  name,
		Count: req.Count,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	metrics.ObserveGapFill(res.HolesReused, res.Minted)

	created := res.CreatedIDs
	if created == nil {
		created = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createSlotsResponse{
		CreatedIDs:  created,
		HolesReused: res.HolesReused,
		Minted:      res.Minted,
		TotalSlots:  res.TotalSlots,
	})
}

func listAreaSlots(w http.ResponseWriter, r *http.Request, svc SlotProvisioner, name string) {
	slots, err := svc.ListSlotsForArea(r.Context(), name)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]slotResponse, 0, len(slots))
	for _, slot := range slots {
		out = append(out, toSlotResponse(slot))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}
