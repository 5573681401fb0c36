package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caiowilker/rifa-project/internal/app"
	"github.com/caiowilker/rifa-project/internal/domain"
)

type stubLister struct {
	views []app.TicketView
	err   error
}

func (s *stubLister) List(_ context.Context) ([]app.TicketView, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.views, nil
}

func TestHandleListTickets(t *testing.T) {
	t.Parallel()

	t.Run("returns ordered statuses", func(t *testing.T) {
		svc := &stubLister{views: []app.TicketView{
			{Number: 1, Status: domain.TicketStatusAvailable},
			{Number: 2, Status: domain.TicketStatusReserved},
			{Number: 3, Status: domain.TicketStatusSold},
		}}

		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		rec := httptest.NewRecorder()

		HandleListTickets(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var entries []ticketEntry
		if err := json.NewDecoder(rec.Body).Decode(&entries); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		if entries[1].Number != 2 || entries[1].Status != "reserved" {
			t.Fatalf("unexpected entry: %+v", entries[1])
		}
	})

	t.Run("store failure", func(t *testing.T) {
		svc := &stubLister{err: errors.New("connection reset")}

		req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
		rec := httptest.NewRecorder()

		HandleListTickets(svc).ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected status 500, got %d", rec.Code)
		}
	})
}
