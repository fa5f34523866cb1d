// Package stripe settles card payments and recurring charges through the
// Stripe API using stripe-go.
package stripe

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	stripeapi "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/smallbiznis/paylane/internal/gateway/domain"
)

const (
	Provider = "stripe"

	defaultTimeout = 12 * time.Second
	customerPrefix = "cus_"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Provider() string {
	return Provider
}

func (f *Factory) NewGateway(cfg domain.Config) (domain.Gateway, error) {
	key := strings.TrimSpace(cfg.StripeSecretKey)
	if key == "" {
		return nil, domain.ErrInvalidConfig
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	backend := stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		HTTPClient: httpClient,
	})
	api := client.New(key, &stripeapi.Backends{API: backend, Connect: backend, Uploads: backend})
	return &Gateway{api: api}, nil
}

type Gateway struct {
	api *client.API
}

func (g *Gateway) Provider() string { return Provider }

func (g *Gateway) CreatePayment(ctx context.Context, req domain.PaymentRequest) (*domain.PaymentResponse, error) {
	params := &stripeapi.PaymentIntentParams{
		Amount:             stripeapi.Int64(req.Amount.MinorUnits()),
		Currency:           stripeapi.String(strings.ToLower(req.Amount.Currency)),
		PaymentMethodTypes: stripeapi.StringSlice([]string{mapPaymentMethod(req.Method)}),
	}
	params.Context = ctx
	if description := strings.TrimSpace(req.Description); description != "" {
		params.Description = stripeapi.String(description)
	}
	if strings.HasPrefix(req.CustomerID, customerPrefix) {
		params.Customer = stripeapi.String(req.CustomerID)
	} else if req.CustomerID != "" {
		params.AddMetadata("customer_id", req.CustomerID)
	}
	for key, value := range stringMetadata(req.Metadata) {
		params.AddMetadata(key, value)
	}

	intent, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, domain.NewError(Provider, "create_payment", err)
	}
	resp := &domain.PaymentResponse{
		ExternalID: intent.ID,
		Status:     mapPaymentIntentStatus(intent.Status),
	}
	if intent.NextAction != nil && intent.NextAction.RedirectToURL != nil {
		resp.PaymentURL = intent.NextAction.RedirectToURL.URL
	}
	return resp, nil
}

func (g *Gateway) GetPaymentStatus(ctx context.Context, externalID string) (string, error) {
	params := &stripeapi.PaymentIntentParams{}
	params.Context = ctx
	intent, err := g.api.PaymentIntents.Get(externalID, params)
	if err != nil {
		return "", domain.NewError(Provider, "get_payment_status", err)
	}
	return mapPaymentIntentStatus(intent.Status), nil
}

func (g *Gateway) CancelPayment(ctx context.Context, externalID string) (bool, error) {
	params := &stripeapi.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := g.api.PaymentIntents.Cancel(externalID, params); err != nil {
		return refused(err, "cancel_payment")
	}
	return true, nil
}

func (g *Gateway) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.SubscriptionResponse, error) {
	customerID, err := g.ensureCustomer(ctx, req.CustomerID)
	if err != nil {
		return nil, domain.NewError(Provider, "create_customer", err)
	}

	productParams := &stripeapi.ProductParams{Name: stripeapi.String(req.PlanName)}
	productParams.Context = ctx
	product, err := g.api.Products.New(productParams)
	if err != nil {
		return nil, domain.NewError(Provider, "create_product", err)
	}

	interval, count := mapBillingCycle(req.BillingCycle)
	params := &stripeapi.SubscriptionParams{
		Customer:        stripeapi.String(customerID),
		PaymentBehavior: stripeapi.String("default_incomplete"),
		Items: []*stripeapi.SubscriptionItemsParams{{
			PriceData: &stripeapi.SubscriptionItemPriceDataParams{
				Currency:   stripeapi.String(strings.ToLower(req.Amount.Currency)),
				Product:    stripeapi.String(product.ID),
				UnitAmount: stripeapi.Int64(req.Amount.MinorUnits()),
				Recurring: &stripeapi.SubscriptionItemPriceDataRecurringParams{
					Interval:      stripeapi.String(interval),
					IntervalCount: stripeapi.Int64(count),
				},
			},
		}},
	}
	params.Context = ctx
	if description := strings.TrimSpace(req.Description); description != "" {
		params.Description = stripeapi.String(description)
	}

	sub, err := g.api.Subscriptions.New(params)
	if err != nil {
		return nil, domain.NewError(Provider, "create_subscription", err)
	}
	resp := &domain.SubscriptionResponse{
		ExternalID: sub.ID,
		Status:     string(sub.Status),
	}
	if sub.CurrentPeriodEnd > 0 {
		resp.NextBillingDate = time.Unix(sub.CurrentPeriodEnd, 0).UTC()
	}
	return resp, nil
}

func (g *Gateway) CancelSubscription(ctx context.Context, externalID string) (bool, error) {
	params := &stripeapi.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := g.api.Subscriptions.Cancel(externalID, params); err != nil {
		return refused(err, "cancel_subscription")
	}
	return true, nil
}

func (g *Gateway) ensureCustomer(ctx context.Context, customerID string) (string, error) {
	if strings.HasPrefix(customerID, customerPrefix) {
		return customerID, nil
	}
	params := &stripeapi.CustomerParams{}
	params.Context = ctx
	if customerID != "" {
		params.Description = stripeapi.String("paylane customer " + customerID)
		params.AddMetadata("customer_id", customerID)
	}
	customer, err := g.api.Customers.New(params)
	if err != nil {
		return "", err
	}
	return customer.ID, nil
}

// refused turns a 4xx API error into a plain false.
func refused(err error, operation string) (bool, error) {
	var apiErr *stripeapi.Error
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode >= http.StatusBadRequest && apiErr.HTTPStatusCode < http.StatusInternalServerError {
		return false, nil
	}
	return false, domain.NewError(Provider, operation, err)
}

func mapPaymentMethod(method string) string {
	switch method {
	case "pix":
		return "pix"
	case "bank_transfer":
		return "customer_balance"
	default:
		return "card"
	}
}

func mapBillingCycle(cycle string) (string, int64) {
	switch cycle {
	case "quarterly":
		return "month", 3
	case "yearly":
		return "year", 1
	default:
		return "month", 1
	}
}

func mapPaymentIntentStatus(status stripeapi.PaymentIntentStatus) string {
	switch status {
	case stripeapi.PaymentIntentStatusSucceeded:
		return domain.StatusApproved
	case stripeapi.PaymentIntentStatusCanceled:
		return domain.StatusCancelled
	default:
		return domain.StatusPending
	}
}

func stringMetadata(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for key, value := range in {
		if s, ok := value.(string); ok {
			out[key] = s
		}
	}
	return out
}
