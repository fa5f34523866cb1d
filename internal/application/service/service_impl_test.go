package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/paylane/internal/application/domain"
	"github.com/smallbiznis/paylane/internal/application/repository"
	"github.com/smallbiznis/paylane/internal/clock"
	"github.com/smallbiznis/paylane/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    dbtest.Open(t, &domain.Application{}),
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	})
	return svc, fake
}

func TestCreateGeneratesKeyAndStoresHash(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "  shop  "})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.APIKey, apiKeyPrefix))
	assert.Equal(t, "shop", created.Name)
	assert.True(t, created.IsActive)

	app, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HashAPIKey(created.APIKey), app.APIKeyHash)
	assert.NotEqual(t, created.APIKey, app.APIKeyHash)
}

func TestCreateAcceptsProvidedKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "shop", APIKey: "my-key"})
	require.NoError(t, err)
	assert.Equal(t, "my-key", created.APIKey)

	app, err := svc.Authenticate(ctx, "my-key")
	require.NoError(t, err)
	assert.Equal(t, created.ID, app.ID.String())

	_, err = svc.Create(ctx, domain.CreateRequest{Name: "other", APIKey: "my-key"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestCreateRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Create(context.Background(), domain.CreateRequest{Name: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidName)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	_, err = svc.Authenticate(ctx, "unknown")
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)

	inactive := false
	_, err = svc.Create(ctx, domain.CreateRequest{Name: "paused", APIKey: "paused-key", IsActive: &inactive})
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "paused-key")
	assert.ErrorIs(t, err, domain.ErrInactive)
}

func TestDeactivate(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, domain.CreateRequest{Name: "shop", APIKey: "key"})
	require.NoError(t, err)

	fake.Advance(time.Hour)
	app, err := svc.Deactivate(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, app.IsActive)
	assert.Equal(t, fake.Now(), app.UpdatedAt)
	assert.True(t, created.CreatedAt.Equal(app.CreatedAt))

	_, err = svc.Authenticate(ctx, "key")
	assert.ErrorIs(t, err, domain.ErrInactive)

	apps, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.False(t, apps[0].IsActive)
}

func TestGetUnknown(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Get(context.Background(), "12345")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = svc.Get(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
