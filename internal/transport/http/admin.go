package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/caiowilker/rifa-project/internal/domain"
	"github.com/gorilla/mux"
)

// WinnerDrawer selects a uniformly random winner among sold tickets.
type WinnerDrawer interface {
	Draw(ctx context.Context) (domain.Ticket, error)
}

// SoldLookup returns holder details for a paid number.
type SoldLookup interface {
	LookupSold(ctx context.Context, number int) (domain.Ticket, error)
}

// HandleDraw picks a winner among sold tickets.
func HandleDraw(svc WinnerDrawer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		winner, err := svc.Draw(r.Context())
		if err != nil {
			if errors.Is(err, domain.ErrNoEligibleTickets) {
				writeError(w, http.StatusBadRequest, codeNoEligibleTickets, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "failed to draw a winner")
			return
		}
		writeJSON(w, http.StatusOK, winnerResponse{
			Number:  winner.Number,
			Name:    winner.HolderName,
			Contact: winner.HolderContact,
		})
	}
}

// HandleLookupWinner returns holder details for a specific sold number.
func HandleLookupWinner(svc SoldLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := mux.Vars(r)["number"]
		number, err := strconv.Atoi(raw)
		if err != nil || number <= 0 {
			writeError(w, http.StatusBadRequest, codeInvalidNumber, "invalid ticket number")
			return
		}

		ticket, err := svc.LookupSold(r.Context(), number)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTicketNotFound):
				writeError(w, http.StatusNotFound, codeTicketNotFound, err.Error())
			case errors.Is(err, domain.ErrTicketNotPaid):
				writeError(w, http.StatusNotFound, codeTicketNotPaid, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "failed to look up ticket")
			}
			return
		}
		writeJSON(w, http.StatusOK, winnerResponse{
			Number:  ticket.Number,
			Name:    ticket.HolderName,
			Contact: ticket.HolderContact,
		})
	}
}

type winnerResponse struct {
	Number  int    `json:"number"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}
