package domain

import (
	"testing"
	"time"

	"github.com/smallbiznis/paylane/internal/entity"
	"github.com/smallbiznis/paylane/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newSubscription(cycle BillingCycle, next time.Time) Subscription {
	return Subscription{
		Record:          entity.NewRecord(1, day(2023, 12, 1)),
		ApplicationID:   2,
		PlanName:        "Premium",
		Amount:          money.MustNew("29.90", "BRL"),
		BillingCycle:    cycle,
		Status:          StatusActive,
		StartDate:       day(2023, 12, 1),
		NextBillingDate: next,
		CustomerID:      "cust-1",
	}
}

func TestCalculateNextBillingDate(t *testing.T) {
	cases := []struct {
		cycle BillingCycle
		want  time.Time
	}{
		{BillingCycleMonthly, day(2024, 2, 1)},
		{BillingCycleQuarterly, day(2024, 4, 1)},
		{BillingCycleYearly, day(2025, 1, 1)},
	}
	for _, tc := range cases {
		sub := newSubscription(tc.cycle, day(2024, 1, 1))
		got, err := sub.CalculateNextBillingDate()
		require.NoError(t, err)
		assert.True(t, tc.want.Equal(got), "%s: got %s", tc.cycle, got)
		assert.Equal(t, day(2024, 1, 1), sub.NextBillingDate)
	}
}

func TestCalculateNextBillingDateInvalidCycle(t *testing.T) {
	_, err := newSubscription("weekly", day(2024, 1, 1)).CalculateNextBillingDate()
	assert.ErrorIs(t, err, ErrInvalidBillingCycle)
}

func TestCancelAndSuspendAreUnconditional(t *testing.T) {
	at := day(2024, 1, 15)
	for _, status := range []Status{StatusActive, StatusCancelled, StatusSuspended, StatusExpired} {
		sub := newSubscription(BillingCycleMonthly, day(2024, 2, 1))
		sub.Status = status

		cancelled := sub.Cancel(at)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, at, cancelled.UpdatedAt)

		suspended := sub.Suspend(at)
		assert.Equal(t, StatusSuspended, suspended.Status)
		assert.Equal(t, status, sub.Status)
	}
}

func TestRenewAdvancesOneCycle(t *testing.T) {
	sub := newSubscription(BillingCycleQuarterly, day(2024, 1, 1))
	renewed, err := sub.Renew(day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, day(2024, 4, 1), renewed.NextBillingDate)
	assert.Equal(t, StatusActive, renewed.Status)
	assert.Equal(t, day(2024, 1, 1), sub.NextBillingDate)
}

func TestIsDueForRenewal(t *testing.T) {
	sub := newSubscription(BillingCycleMonthly, day(2024, 2, 1))
	assert.False(t, sub.IsDueForRenewal(day(2024, 1, 31)))
	assert.True(t, sub.IsDueForRenewal(day(2024, 2, 1)))
	assert.True(t, sub.IsDueForRenewal(day(2024, 3, 1)))

	assert.False(t, sub.Suspend(day(2024, 1, 1)).IsDueForRenewal(day(2024, 3, 1)))
}

func TestMonthEndOverflowFollowsAddDate(t *testing.T) {
	next, err := BillingCycleMonthly.Next(day(2024, 1, 31))
	require.NoError(t, err)
	assert.Equal(t, day(2024, 3, 2), next)
}
