package domain

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/entity"
	"github.com/smallbiznis/paylane/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

var created = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

func newPayment(status Status) Payment {
	sub := snowflake.ID(7)
	return Payment{
		Record:         entity.NewRecord(1, created),
		ApplicationID:  2,
		ExternalID:     "ext-1",
		Amount:         money.MustNew("100", "BRL"),
		Method:         MethodPix,
		Status:         status,
		Metadata:       datatypes.JSONMap{"order": "A-1"},
		SubscriptionID: &sub,
	}
}

func TestCancelFromPending(t *testing.T) {
	p := newPayment(StatusPending)
	later := created.Add(time.Hour)

	cancelled, err := p.Cancel(later)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, later, cancelled.UpdatedAt)
	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, created, p.UpdatedAt)
}

func TestCancelRequiresPending(t *testing.T) {
	for _, status := range []Status{StatusApproved, StatusRejected, StatusCancelled, StatusRefunded} {
		_, err := newPayment(status).Cancel(created)
		assert.ErrorIs(t, err, ErrInvalidTransition, string(status))
	}
}

func TestApproveAndRejectAreTotal(t *testing.T) {
	for _, status := range []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusRefunded} {
		p := newPayment(status)

		approved := p.Approve(created.Add(time.Minute))
		assert.Equal(t, StatusApproved, approved.Status)
		assert.Equal(t, p.ID, approved.ID)
		assert.True(t, p.Amount.Equals(approved.Amount))
		assert.Equal(t, p.Method, approved.Method)
		assert.Equal(t, p.ApplicationID, approved.ApplicationID)

		rejected := p.Reject(created.Add(time.Minute))
		assert.Equal(t, StatusRejected, rejected.Status)
		assert.Equal(t, p.ID, rejected.ID)
		assert.Equal(t, status, p.Status)
	}
}

func TestTransitionDoesNotShareMetadata(t *testing.T) {
	p := newPayment(StatusPending)
	approved := p.Approve(created)
	approved.Metadata["order"] = "changed"
	*approved.SubscriptionID = 99

	assert.Equal(t, "A-1", p.Metadata["order"])
	assert.Equal(t, snowflake.ID(7), *p.SubscriptionID)
}

func TestMethodValid(t *testing.T) {
	assert.True(t, MethodPix.Valid())
	assert.True(t, MethodBankTransfer.Valid())
	assert.False(t, Method("boleto").Valid())
}
