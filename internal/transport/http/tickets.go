package http

import (
	"context"
	"net/http"

	"github.com/caiowilker/rifa-project/internal/app"
)

// TicketLister produces the public state of every number.
type TicketLister interface {
	List(ctx context.Context) ([]app.TicketView, error)
}

// HandleListTickets returns all numbers ordered ascending with their
// current status; stale reservations already show as available.
func HandleListTickets(svc TicketLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		views, err := svc.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "failed to list tickets")
			return
		}

		out := make([]ticketEntry, len(views))
		for i, v := range views {
			out[i] = ticketEntry{Number: v.Number, Status: string(v.Status)}
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type ticketEntry struct {
	Number int    `json:"number"`
	Status string `json:"status"`
}
