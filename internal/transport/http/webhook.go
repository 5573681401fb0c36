package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/caiowilker/rifa-project/internal/app"
	"github.com/caiowilker/rifa-project/internal/domain"
	"github.com/caiowilker/rifa-project/internal/payment/mercadopago"
	"github.com/sirupsen/logrus"
)

// PaymentFetcher resolves a notification's payment id to its outcome.
type PaymentFetcher interface {
	GetPayment(ctx context.Context, id string) (mercadopago.Payment, error)
}

// PaymentConfirmer applies a payment outcome to the referenced tickets.
type PaymentConfirmer interface {
	Confirm(ctx context.Context, in app.ConfirmInput) (app.ConfirmResult, error)
}

// HandlePaymentWebhook consumes Mercado Pago's asynchronous notification.
// Delivery is at-least-once, so everything the system has already handled
// semantically — non-approved outcomes included — answers 200; only a
// missing id or an unparseable reference is reported back as a client
// error for the processor's retry mechanism.
func HandlePaymentWebhook(gateway PaymentFetcher, svc PaymentConfirmer, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req webhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		paymentID := req.Data.ID.String()
		if paymentID == "" {
			writeError(w, http.StatusBadRequest, codeMissingPaymentID, "missing payment id")
			return
		}

		payment, err := gateway.GetPayment(r.Context(), paymentID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "failed to fetch payment")
			return
		}

		result, err := svc.Confirm(r.Context(), app.ConfirmInput{
			Reference: payment.ExternalReference,
			Status:    payment.Status,
		})
		if err != nil {
			if errors.Is(err, domain.ErrInvalidReference) {
				logger.WithFields(logrus.Fields{
					"payment_id": paymentID,
					"reference":  payment.ExternalReference,
				}).Warn("payment notification with unparseable reference")
				writeError(w, http.StatusBadRequest, codeInvalidReference, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "failed to confirm payment")
			return
		}

		entry := logger.WithFields(logrus.Fields{
			"payment_id": paymentID,
			"status":     payment.Status,
			"numbers":    result.Numbers,
		})
		if result.Confirmed {
			entry.WithField("updated", result.Updated).Info("payment confirmed")
		} else {
			entry.Info("payment not approved, no tickets changed")
		}

		w.WriteHeader(http.StatusOK)
	}
}

type webhookRequest struct {
	Data struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}
