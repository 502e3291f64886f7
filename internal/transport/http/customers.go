package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
)

// HistoryProvider reads a customer's past slot assignments.
type HistoryProvider interface {
	HistoryFor(ctx context.Context, clientRef int64) ([]domain.HistoryEntry, error)
}

// SlotRanker suggests empty slots for a customer.
type SlotRanker interface {
	RankCandidateSlots(ctx context.Context, clientRef int64) ([]domain.Slot, error)
}

// HandleCustomers returns the handler for /customers/{id}/history and
// /customers/{id}/suggestions.
func HandleCustomers(history HistoryProvider, ranker SlotRanker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clientRef, action, ok := parseCustomerPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		switch action {
		case "history":
			customerHistory(w, r, history, clientRef)
		case "suggestions":
			customerSuggestions(w, r, ranker, clientRef)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func parseCustomerPath(path string) (clientRef int64, action string, ok bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "customers" {
		return 0, "", false
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id < 1 {
		return 0, "", false
	}
	return id, parts[2], true
}

type historyEntryResponse struct {
	SlotID     string    `json:"slot_id"`
	AssignedAt time.Time `json:"assigned_at"`
}

func customerHistory(w http.ResponseWriter, r *http.Request, svc HistoryProvider, clientRef int64) {
	entries, err := svc.HistoryFor(r.Context(), clientRef)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]historyEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, historyEntryResponse{
			SlotID:     e.SlotID,
			AssignedAt: e.AssignedAt,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func customerSuggestions(w http.ResponseWriter, r *http.Request, svc SlotRanker, clientRef int64) {
	slots, err := svc.RankCandidateSlots(r.Context(), clientRef)
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
