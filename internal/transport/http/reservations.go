package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/caiowilker/rifa-project/internal/app"
	"github.com/caiowilker/rifa-project/internal/domain"
	"github.com/caiowilker/rifa-project/internal/payment/mercadopago"
	"github.com/go-playground/validator/v10"
)

// TicketReserver is the minimal interface needed to reserve a batch.
type TicketReserver interface {
	Reserve(ctx context.Context, in app.ReserveInput) (app.Reservation, error)
}

// CheckoutCreator creates the external payment for a reservation.
type CheckoutCreator interface {
	CreateCheckout(ctx context.Context, in mercadopago.CheckoutInput) (mercadopago.Checkout, error)
}

// HandleCreateReservation reserves the requested numbers and hands back a
// checkout link for the total due. The reservation is committed before the
// checkout is created; if the payment processor is unreachable the
// reservation stands and simply lapses after its TTL.
func HandleCreateReservation(svc TicketReserver, gateway CheckoutCreator, validate *validator.Validate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeValidationFailed, err.Error())
			return
		}

		res, err := svc.Reserve(r.Context(), app.ReserveInput{
			HolderName:    req.Name,
			HolderContact: req.Contact,
			Numbers:       req.Numbers,
		})
		if err != nil {
			var conflict *domain.BatchConflictError
			var unknown *domain.UnknownNumbersError
			switch {
			case errors.As(err, &conflict):
				writeConflict(w, conflict)
			case errors.As(err, &unknown):
				writeError(w, http.StatusBadRequest, codeUnknownNumbers, unknown.Error())
			case errors.Is(err, domain.ErrHolderNameRequired):
				writeError(w, http.StatusBadRequest, codeHolderNameRequired, err.Error())
			case errors.Is(err, domain.ErrHolderContactRequired):
				writeError(w, http.StatusBadRequest, codeContactRequired, err.Error())
			case errors.Is(err, domain.ErrEmptyBatch):
				writeError(w, http.StatusBadRequest, codeEmptyBatch, err.Error())
			default:
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
			return
		}

		checkout, err := gateway.CreateCheckout(r.Context(), mercadopago.CheckoutInput{
			Title:     checkoutTitle(res.Numbers),
			PayerName: req.Name,
			Amount:    res.Total,
			Reference: res.Reference.String(),
		})
		if err != nil {
			writeError(w, http.StatusBadGateway, codeUpstreamPayment, "failed to create payment checkout")
			return
		}

		writeJSON(w, http.StatusCreated, createReservationResponse{
			Numbers:     res.Numbers,
			Total:       res.Total,
			CheckoutURL: checkout.InitPoint,
			Simulated:   checkout.Simulated,
			ExpiresAt:   res.ExpiresAt,
		})
	}
}

func checkoutTitle(numbers []int) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = strconv.Itoa(n)
	}
	return "Rifa número(s): " + strings.Join(parts, ", ")
}

type createReservationRequest struct {
	Name    string `json:"name" validate:"required"`
	Contact string `json:"contact" validate:"required"`
	Numbers []int  `json:"numbers" validate:"required,min=1,dive,min=1"`
}

type createReservationResponse struct {
	Numbers     []int     `json:"numbers"`
	Total       int64     `json:"total"`
	CheckoutURL string    `json:"checkout_url"`
	Simulated   bool      `json:"simulated,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}
