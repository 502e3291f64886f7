package http

import (
	"encoding/json"
	"net/http"

	"github.com/Hirotaka-0926/tire-strage-system-sub000/internal/domain"
)

const (
	codeMethodNotAllowed    = "method_not_allowed"
	codeNotFound            = "not_found"
	codeInvalidRequestBody  = "invalid_request_body"
	codeAreaNameRequired    = "area_name_required"
	codeAreaNotFound        = "area_not_found"
	codeAreaAlreadyExists   = "area_already_exists"
	codeInvalidCapacity     = "invalid_capacity"
	codeSlotNotFound        = "slot_not_found"
	codeSlotAlreadyExists   = "slot_already_exists"
	codeInvalidSlotID       = "invalid_slot_id"
	codeEmptyAssignment     = "empty_assignment"
	codeAssignmentConflict  = "assignment_conflict"
	codeInvalidClientRef    = "invalid_client_ref"
	codeForbidden           = "forbidden"
	codeInternalError       = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps core errors onto HTTP statuses and stable codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrAreaNameRequired:
		writeError(w, http.StatusBadRequest, codeAreaNameRequired, err.Error())
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrInvalidSlotID:
		writeError(w, http.StatusBadRequest, codeInvalidSlotID, err.Error())
	case domain.ErrEmptyAssignment:
		writeError(w, http.StatusBadRequest, codeEmptyAssignment, err.Error())
	case domain.ErrInvalidClientRef:
		writeError(w, http.StatusBadRequest, codeInvalidClientRef, err.Error())
	case domain.ErrUnknownArea:
		writeError(w, http.StatusNotFound, codeAreaNotFound, err.Error())
	case domain.ErrSlotNotFound:
		writeError(w, http.StatusNotFound, codeSlotNotFound, err.Error())
	case domain.ErrDuplicateArea:
		writeError(w, http.StatusConflict, codeAreaAlreadyExists, err.Error())
	case domain.ErrDuplicateSlot:
		writeError(w, http.StatusConflict, codeSlotAlreadyExists, err.Error())
	case domain.ErrAssignmentConflict:
		writeError(w, http.StatusConflict, codeAssignmentConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}
