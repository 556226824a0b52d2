package service

import (
	"context"
	"testing"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddReview_OrderReviewFansOut(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	b := env.seedCake(t, "seller-1", "Lemon", "5.00")
	order := env.deliveredOrder(t, customer, a, b)

	review, err := env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, Rating: 4, Comment: "great"})
	require.NoError(t, err)
	assert.True(t, review.IsOrderReview)
	assert.Equal(t, model.ReviewOrder, review.Kind)

	all, err := env.review.ListUserReviews(ctx, customer.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)

	fallbacks := map[string]*model.Review{}
	for _, r := range all {
		if r.Kind == model.ReviewCake {
			fallbacks[r.CakeID] = r
		}
	}
	require.Len(t, fallbacks, 2)
	for _, cakeID := range []string{a.ID, b.ID} {
		r := fallbacks[cakeID]
		require.NotNil(t, r)
		assert.Equal(t, 4, r.Rating)
		assert.Equal(t, "great", r.Comment)
		assert.True(t, r.IsFallback)
		assert.Equal(t, order.ID, r.OrderID)
	}

	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, Rating: 2})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAddReview_FanOutKeepsExistingCakeReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	b := env.seedCake(t, "seller-1", "Lemon", "5.00")
	order := env.deliveredOrder(t, customer, a, b)

	specific, err := env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, CakeID: a.ID, Rating: 5, Comment: "best vanilla"})
	require.NoError(t, err)

	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, Rating: 3, Comment: "ok"})
	require.NoError(t, err)

	aReviews, err := env.reviews.ListByCake(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, aReviews, 1)
	assert.Equal(t, specific.ID, aReviews[0].ID)
	assert.Equal(t, 5, aReviews[0].Rating)
	assert.False(t, aReviews[0].IsFallback)

	bReviews, err := env.reviews.ListByCake(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, bReviews, 1)
	assert.Equal(t, 3, bReviews[0].Rating)
	assert.True(t, bReviews[0].IsFallback)
}

func TestAddReview_RequiresDeliveredOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	order := env.placeOrder(t, customer, model.PaymentCashOnDelivery, a)
	order = env.advanceTo(t, order, model.StatusReady)

	inputs := []ReviewInput{
		{OrderID: order.ID, CakeID: a.ID, Rating: 5},
		{OrderID: order.ID, Rating: 5},
		{OrderID: order.ID, SellerID: "seller-1", SellerRating: 5},
	}
	for _, in := range inputs {
		_, err := env.review.AddReview(ctx, customer, in)
		assert.ErrorIs(t, err, apperr.ErrState)
	}

	reviews, err := env.review.ListUserReviews(ctx, customer.ID)
	require.NoError(t, err)
	assert.Empty(t, reviews)
}

func TestAddReview_RequiresOwnOrder(t *testing.T) {
	env := newTestEnv(t)

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	order := env.deliveredOrder(t, customer, a)

	stranger := model.Principal{ID: "customer-2", Role: model.RoleCustomer}
	_, err := env.review.AddReview(context.Background(), stranger, ReviewInput{OrderID: order.ID, Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrState)
}

func TestAddReview_CakeMustBeInOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	other := env.seedCake(t, "seller-1", "Lemon", "5.00")
	order := env.deliveredOrder(t, customer, a)

	_, err := env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, CakeID: other.ID, Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrState)

	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, CakeID: a.ID, Rating: 5})
	require.NoError(t, err)

	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, CakeID: a.ID, Rating: 4})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAddReview_SellerReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	order := env.deliveredOrder(t, customer, a)
	env.emitter.reset()

	_, err := env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, SellerID: "seller-9", SellerRating: 5})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	review, err := env.review.AddReview(ctx, customer, ReviewInput{
		OrderID:       order.ID,
		SellerID:      "seller-1",
		SellerRating:  5,
		SellerComment: "fast",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ReviewSeller, review.Kind)
	assert.Equal(t, 5, review.Rating)
	assert.Len(t, env.emitter.to("seller-1"), 1)

	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, SellerID: "seller-1", SellerRating: 1})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestAddReview_InvalidPayload(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.review.AddReview(ctx, customer, ReviewInput{Rating: 5})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	order := env.deliveredOrder(t, customer, a)
	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, Rating: 9})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestGetCakeReviews_OneEntryPerCustomerOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	first := env.deliveredOrder(t, customer, a)
	second := env.deliveredOrder(t, customer, a)

	_, err := env.review.AddReview(ctx, customer, ReviewInput{OrderID: first.ID, CakeID: a.ID, Rating: 5})
	require.NoError(t, err)
	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: first.ID, Rating: 4})
	require.NoError(t, err)
	_, err = env.review.AddReview(ctx, customer, ReviewInput{OrderID: second.ID, Rating: 2})
	require.NoError(t, err)

	reviews, err := env.review.GetCakeReviews(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 2)

	byOrder := map[string]int{}
	for _, r := range reviews {
		byOrder[r.OrderID] = r.Rating
	}
	assert.Equal(t, 5, byOrder[first.ID])
	assert.Equal(t, 2, byOrder[second.ID])
}

func TestGetCakeReviews_FallsBackToOrderReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	order := env.deliveredOrder(t, customer, a)

	// an order review stored without its fan-out, as older data may be
	require.NoError(t, env.reviews.Create(ctx, nil, &model.Review{
		ID:            "legacy",
		Kind:          model.ReviewOrder,
		UserID:        customer.ID,
		OrderID:       order.ID,
		Rating:        3,
		IsOrderReview: true,
	}))

	reviews, err := env.review.GetCakeReviews(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "legacy", reviews[0].ID)
}

func TestSellerReviewReads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	order := env.deliveredOrder(t, customer, a)
	_, err := env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, Rating: 4})
	require.NoError(t, err)

	cakeReviews, err := env.review.ListSellerReviews(ctx, "seller-1")
	require.NoError(t, err)
	assert.Len(t, cakeReviews, 1)

	orderReviews, err := env.review.ListSellerOrderReviews(ctx, "seller-1")
	require.NoError(t, err)
	require.Len(t, orderReviews, 1)
	assert.True(t, orderReviews[0].IsOrderReview)

	recent, err := env.review.ListRecentReviews(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)

	none, err := env.review.ListSellerReviews(ctx, "seller-2")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestDeleteReview(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a := env.seedCake(t, "seller-1", "Vanilla", "10.00")
	order := env.deliveredOrder(t, customer, a)
	review, err := env.review.AddReview(ctx, customer, ReviewInput{OrderID: order.ID, CakeID: a.ID, Rating: 4})
	require.NoError(t, err)

	err = env.review.DeleteReview(ctx, model.Principal{ID: "customer-2", Role: model.RoleCustomer}, review.ID)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	require.NoError(t, env.review.DeleteReview(ctx, model.Principal{ID: "admin", Role: model.RoleAdmin}, review.ID))

	err = env.review.DeleteReview(ctx, customer, review.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
