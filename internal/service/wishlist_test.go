package service

import (
	"context"
	"testing"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlist(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := NewWishlistService(env.cakes, repository.NewWishlistRepository(env.db))

	cake := env.seedCake(t, "seller-1", "Vanilla", "10.00")

	err := svc.AddToWishlist(ctx, customer.ID, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.AddToWishlist(ctx, customer.ID, cake.ID))
	err = svc.AddToWishlist(ctx, customer.ID, cake.ID)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	items, err := svc.GetWishlist(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Cake)
	assert.Equal(t, "Vanilla", items[0].Cake.Name)

	require.NoError(t, svc.RemoveFromWishlist(ctx, customer.ID, cake.ID))
	err = svc.RemoveFromWishlist(ctx, customer.ID, cake.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
