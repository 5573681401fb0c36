package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrHolderNameRequired    = errors.New("holder name required")
	ErrHolderContactRequired = errors.New("holder contact required")
	ErrEmptyBatch            = errors.New("ticket batch is empty")
	ErrInvalidReference      = errors.New("invalid payment reference")
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrTicketNotPaid         = errors.New("ticket not paid")
	ErrNoEligibleTickets     = errors.New("no sold tickets eligible for the draw")
)

type ConflictReason string

const (
	ConflictSold     ConflictReason = "sold"
	ConflictReserved ConflictReason = "reserved"
)

// NumberConflict names one ticket number that blocked a reservation and why.
type NumberConflict struct {
	Number int
	Reason ConflictReason
}

// BatchConflictError reports every number in a reservation batch that is
// already taken. The whole batch is rejected; callers use the per-number
// reasons to adjust their selection.
type BatchConflictError struct {
	Conflicts []NumberConflict
}

func (e *BatchConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%d (%s)", c.Number, c.Reason)
	}
	return "tickets unavailable: " + strings.Join(parts, ", ")
}

// UnknownNumbersError reports requested numbers outside the provisioned range.
type UnknownNumbersError struct {
	Numbers []int
}

func (e *UnknownNumbersError) Error() string {
	parts := make([]string, len(e.Numbers))
	for i, n := range e.Numbers {
		parts[i] = strconv.Itoa(n)
	}
	return "unknown ticket numbers: " + strings.Join(parts, ", ")
}
