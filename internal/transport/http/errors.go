package http

import (
	"encoding/json"
	"net/http"

	"github.com/caiowilker/rifa-project/internal/domain"
)

const (
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeValidationFailed   = "validation_failed"
	codeHolderNameRequired = "holder_name_required"
	codeContactRequired    = "holder_contact_required"
	codeEmptyBatch         = "empty_batch"
	codeUnknownNumbers     = "unknown_numbers"
	codeTicketConflict     = "ticket_conflict"
	codeInvalidNumber      = "invalid_number"
	codeTicketNotFound     = "ticket_not_found"
	codeTicketNotPaid      = "ticket_not_paid"
	codeNoEligibleTickets  = "no_eligible_tickets"
	codeMissingPaymentID   = "missing_payment_id"
	codeInvalidReference   = "invalid_reference"
	codeUpstreamPayment    = "upstream_payment_error"
	codeInternalError      = "internal_error"
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

type conflictEntry struct {
	Number int    `json:"number"`
	Reason string `json:"reason"`
}

type conflictResponse struct {
	Error     string          `json:"error"`
	Code      string          `json:"code"`
	Conflicts []conflictEntry `json:"conflicts"`
}

// writeConflict reports exactly which numbers blocked a reservation and
// why, so the buyer can adjust the selection without guessing.
func writeConflict(w http.ResponseWriter, err *domain.BatchConflictError) {
	entries := make([]conflictEntry, len(err.Conflicts))
	for i, c := range err.Conflicts {
		entries[i] = conflictEntry{Number: c.Number, Reason: string(c.Reason)}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusConflict)
	_ = json.NewEncoder(w).Encode(conflictResponse{
		Error:     err.Error(),
		Code:      codeTicketConflict,
		Conflicts: entries,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
