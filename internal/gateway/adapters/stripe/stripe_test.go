package stripe

import (
	"errors"
	"testing"

	stripeapi "github.com/stripe/stripe-go/v78"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smallbiznis/paylane/internal/gateway/domain"
)

func TestNewGatewayRequiresSecretKey(t *testing.T) {
	_, err := NewFactory().NewGateway(domain.Config{})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	gw, err := NewFactory().NewGateway(domain.Config{StripeSecretKey: "sk_test_123"})
	require.NoError(t, err)
	assert.Equal(t, Provider, gw.Provider())
}

func TestMapPaymentIntentStatus(t *testing.T) {
	cases := []struct {
		in   stripeapi.PaymentIntentStatus
		want string
	}{
		{stripeapi.PaymentIntentStatusSucceeded, domain.StatusApproved},
		{stripeapi.PaymentIntentStatusCanceled, domain.StatusCancelled},
		{stripeapi.PaymentIntentStatusProcessing, domain.StatusPending},
		{stripeapi.PaymentIntentStatusRequiresPaymentMethod, domain.StatusPending},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, mapPaymentIntentStatus(tc.in), string(tc.in))
	}
}

func TestMapBillingCycle(t *testing.T) {
	interval, count := mapBillingCycle("monthly")
	assert.Equal(t, "month", interval)
	assert.EqualValues(t, 1, count)

	interval, count = mapBillingCycle("quarterly")
	assert.Equal(t, "month", interval)
	assert.EqualValues(t, 3, count)

	interval, count = mapBillingCycle("yearly")
	assert.Equal(t, "year", interval)
	assert.EqualValues(t, 1, count)
}

func TestRefused(t *testing.T) {
	ok, err := refused(&stripeapi.Error{HTTPStatusCode: 400, Msg: "already canceled"}, "cancel_payment")
	assert.False(t, ok)
	assert.NoError(t, err)

	ok, err = refused(errors.New("connection reset"), "cancel_payment")
	assert.False(t, ok)
	assert.ErrorIs(t, err, domain.ErrGateway)
}

func TestStringMetadataDropsNonStrings(t *testing.T) {
	out := stringMetadata(map[string]any{"order": "A-1", "qty": 2})
	assert.Equal(t, map[string]string{"order": "A-1"}, out)
}
