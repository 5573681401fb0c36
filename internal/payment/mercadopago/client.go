// Package mercadopago is the adapter for the Mercado Pago REST API: it
// creates checkout preferences for reservations and resolves webhook payment
// ids back to their status and external reference. Only the two calls the
// service consumes are implemented.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// StatusApproved is the transaction status Mercado Pago reports for a
// completed payment.
const StatusApproved = "approved"

// simulatedInitPoint stands in for a real checkout link when no access
// token is configured, so the flow stays testable without credentials.
const simulatedInitPoint = "https://www.mercadopago.com.br/sandbox/checkout/simulado"

type Client struct {
	baseURL         string
	accessToken     string
	notificationURL string
	logger          *logrus.Logger
	hc              *http.Client
}

func NewClient(baseURL, accessToken, notificationURL string, logger *logrus.Logger, hc *http.Client) *Client {
	return &Client{
		baseURL:         baseURL,
		accessToken:     accessToken,
		notificationURL: notificationURL,
		logger:          logger,
		hc:              hc,
	}
}

type CheckoutInput struct {
	Title     string
	PayerName string
	Amount    int64
	Reference string
}

type Checkout struct {
	InitPoint string
	Simulated bool
}

type preferenceItem struct {
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

type preferencePayer struct {
	Name string `json:"name"`
}

type paymentTypeRef struct {
	ID string `json:"id"`
}

type preferencePaymentMethods struct {
	ExcludedPaymentTypes   []paymentTypeRef `json:"excluded_payment_types"`
	DefaultPaymentMethodID string           `json:"default_payment_method_id"`
}

type preferenceRequest struct {
	Items             []preferenceItem         `json:"items"`
	Payer             preferencePayer          `json:"payer"`
	PaymentMethods    preferencePaymentMethods `json:"payment_methods"`
	NotificationURL   string                   `json:"notification_url"`
	ExternalReference string                   `json:"external_reference"`
}

type preferenceResponse struct {
	InitPoint string `json:"init_point"`
}

// CreateCheckout registers a checkout preference and returns the link the
// buyer completes the payment at. Pix is the default payment method and
// credit cards are excluded. Without an access token a simulated sandbox
// link is returned instead of calling the API.
func (c *Client) CreateCheckout(ctx context.Context, in CheckoutInput) (Checkout, error) {
	if c.accessToken == "" {
		return Checkout{InitPoint: simulatedInitPoint, Simulated: true}, nil
	}

	reqBody := preferenceRequest{
		Items: []preferenceItem{{
			Title:     in.Title,
			Quantity:  1,
			UnitPrice: in.Amount,
		}},
		Payer: preferencePayer{Name: in.PayerName},
		PaymentMethods: preferencePaymentMethods{
			ExcludedPaymentTypes:   []paymentTypeRef{{ID: "credit_card"}},
			DefaultPaymentMethodID: "pix",
		},
		NotificationURL:   c.notificationURL,
		ExternalReference: in.Reference,
	}

	var resp preferenceResponse
	if err := c.post(ctx, "/checkout/preferences", reqBody, &resp); err != nil {
		c.logger.WithError(err).Error("create mercadopago preference")
		return Checkout{}, fmt.Errorf("create checkout preference: %w", err)
	}
	return Checkout{InitPoint: resp.InitPoint}, nil
}

// Payment is the subset of a Mercado Pago payment the confirmation flow
// needs: its outcome and the reference issued at reservation time.
type Payment struct {
	ID                string
	Status            string
	ExternalReference string
}

// GetPayment resolves a webhook's payment id to the payment's current state.
// The id stays a string end to end; Mercado Pago serializes it as a number.
func (c *Client) GetPayment(ctx context.Context, id string) (Payment, error) {
	var body struct {
		Status            string `json:"status"`
		ExternalReference string `json:"external_reference"`
	}
	if err := c.get(ctx, "/v1/payments/"+id, &body); err != nil {
		c.logger.WithError(err).WithField("payment_id", id).Error("fetch mercadopago payment")
		return Payment{}, fmt.Errorf("get payment %s: %w", id, err)
	}
	return Payment{ID: id, Status: body.Status, ExternalReference: body.ExternalReference}, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mercadopago responded %d: %s", resp.StatusCode, respBody)
	}
	return json.Unmarshal(respBody, out)
}
