// Package mercadopago talks to the Mercado Pago REST API for PIX, card and
// recurring (preapproval) charges.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/paylane/internal/gateway/domain"
)

const (
	Provider       = "mercadopago"
	DefaultBaseURL = "https://api.mercadopago.com"

	defaultTimeout     = 12 * time.Second
	defaultDescription = "Payment"
	defaultBackURL     = "https://www.mercadopago.com.br"
)

var (
	errRequestFailed   = errors.New("mercadopago_request_failed")
	errResponseInvalid = errors.New("mercadopago_response_invalid")
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return Provider
}

func (f *Factory) NewGateway(cfg domain.Config) (domain.Gateway, error) {
	token := strings.TrimSpace(cfg.MercadoPagoToken)
	if token == "" {
		return nil, domain.ErrInvalidConfig
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.MercadoPagoBaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Gateway{token: token, baseURL: baseURL, client: client}, nil
}

type Gateway struct {
	token   string
	baseURL string
	client  *http.Client
}

type payer struct {
	Email string `json:"email"`
}

type paymentRequest struct {
	TransactionAmount float64        `json:"transaction_amount"`
	Description       string         `json:"description"`
	PaymentMethodID   string         `json:"payment_method_id"`
	Payer             payer          `json:"payer"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

type paymentResponse struct {
	ID                 json.Number `json:"id"`
	Status             string      `json:"status"`
	PointOfInteraction struct {
		TransactionData struct {
			TicketURL    string `json:"ticket_url"`
			QRCode       string `json:"qr_code"`
			QRCodeBase64 string `json:"qr_code_base64"`
		} `json:"transaction_data"`
	} `json:"point_of_interaction"`
}

type autoRecurring struct {
	Frequency         int     `json:"frequency"`
	FrequencyType     string  `json:"frequency_type"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
}

type preapprovalRequest struct {
	Reason        string        `json:"reason"`
	AutoRecurring autoRecurring `json:"auto_recurring"`
	PayerEmail    string        `json:"payer_email"`
	BackURL       string        `json:"back_url"`
	Status        string        `json:"status,omitempty"`
}

type preapprovalResponse struct {
	ID              string `json:"id"`
	Status          string `json:"status"`
	NextPaymentDate string `json:"next_payment_date"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (g *Gateway) Provider() string { return Provider }

func (g *Gateway) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = defaultDescription
	}
	body := paymentRequest{
		TransactionAmount: req.Amount.Float64(),
		Description:       description,
		PaymentMethodID:   mapPaymentMethod(req.Method),
		Payer:             payer{Email: payerEmail(req.CustomerID)},
		Metadata:          req.Metadata,
	}

	var out paymentResponse
	if _, err := g.do(ctx, http.MethodPost, "/v1/payments", body, &out); err != nil {
		return nil, domain.NewError(Provider, "create_payment", err)
	}
	if out.ID.String() == "" {
		return nil, domain.NewError(Provider, "create_payment", errResponseInvalid)
	}

	data := out.PointOfInteraction.TransactionData
	return &domain.PaymentResponse{
		ExternalID: out.ID.String(),
		Status:     mapStatus(out.Status),
		PaymentURL: data.TicketURL,
		QRCode:     data.QRCode,
		PixKey:     data.QRCodeBase64,
	}, nil
}

func (g *Gateway) GetPaymentStatus(ctx context.Context, externalID string) (string, error) {
	var out paymentResponse
	if _, err := g.do(ctx, http.MethodGet, "/v1/payments/"+externalID, nil, &out); err != nil {
		return "", domain.NewError(Provider, "get_payment_status", err)
	}
	return mapStatus(out.Status), nil
}

func (g *Gateway) CancelPayment(ctx context.Context, externalID string) (bool, error) {
	return g.cancel(ctx, "/v1/payments/"+externalID, "cancel_payment")
}

func (g *Gateway) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionResponse, error) {
	frequency, frequencyType := mapBillingCycle(req.BillingCycle)
	reason := strings.TrimSpace(req.Description)
	if reason == "" {
		reason = "Subscription for " + req.PlanName
	}
	body := preapprovalRequest{
		Reason: reason,
		AutoRecurring: autoRecurring{
			Frequency:         frequency,
			FrequencyType:     frequencyType,
			TransactionAmount: req.Amount.Float64(),
			CurrencyID:        req.Amount.Currency,
		},
		PayerEmail: payerEmail(req.CustomerID),
		BackURL:    defaultBackURL,
	}

	var out preapprovalResponse
	if _, err := g.do(ctx, http.MethodPost, "/preapproval", body, &out); err != nil {
		return nil, domain.NewError(Provider, "create_subscription", err)
	}
	if out.ID == "" {
		return nil, domain.NewError(Provider, "create_subscription", errResponseInvalid)
	}

	resp := &domain.SubscriptionResponse{ExternalID: out.ID, Status: out.Status}
	if out.NextPaymentDate != "" {
		if next, err := time.Parse(time.RFC3339, out.NextPaymentDate); err == nil {
			resp.NextBillingDate = next.UTC()
		}
	}
	return resp, nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, externalID string) (bool, error) {
	return g.cancel(ctx, "/preapproval/"+externalID, "cancel_subscription")
}

// cancel reports false without error when the provider refuses the request.
func (g *Gateway) cancel(ctx context.Context, path, operation string) (bool, error) {
	status, err := g.do(ctx, http.MethodPut, path, map[string]string{"status": "cancelled"}, nil)
	if err != nil {
		if status >= http.StatusBadRequest {
			return false, nil
		}
		return false, domain.NewError(Provider, operation, err)
	}
	return true, nil
}

func (g *Gateway) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost {
		req.Header.Set("X-Idempotency-Key", uuid.NewString())
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return resp.StatusCode, fmt.Errorf("%w: status %d", errRequestFailed, resp.StatusCode)
		}
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = strings.TrimSpace(apiErr.Error)
		}
		if message == "" {
			return resp.StatusCode, fmt.Errorf("%w: status %d", errRequestFailed, resp.StatusCode)
		}
		return resp.StatusCode, fmt.Errorf("%w: %s", errRequestFailed, message)
	}

	if out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("%w: %v", errResponseInvalid, err)
	}
	return resp.StatusCode, nil
}

func payerEmail(customerID string) string {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		customerID = "anonymous"
	}
	return "customer-" + customerID + "@example.com"
}

func mapPaymentMethod(method string) string {
	switch method {
	case "pix":
		return "pix"
	case "credit_card":
		return "visa"
	case "debit_card":
		return "debvisa"
	case "bank_transfer":
		return "account_money"
	default:
		return "pix"
	}
}

func mapBillingCycle(cycle string) (int, string) {
	switch cycle {
	case "quarterly":
		return 3, "months"
	case "yearly":
		return 12, "months"
	default:
		return 1, "months"
	}
}

func mapStatus(status string) string {
	switch strings.ToLower(status) {
	case "approved", "authorized":
		return domain.StatusApproved
	case "pending", "in_process", "in_mediation":
		return domain.StatusPending
	case "rejected":
		return domain.StatusRejected
	case "cancelled":
		return domain.StatusCancelled
	case "refunded", "charged_back":
		return domain.StatusRefunded
	default:
		return domain.StatusPending
	}
}
