package service

import (
	"context"
	"fmt"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ReviewInput selects the review shape by which fields are set:
// order review (OrderID + Rating), seller review (OrderID + SellerID + SellerRating)
// or cake review (OrderID + CakeID + Rating).
type ReviewInput struct {
	OrderID       string
	CakeID        string
	SellerID      string
	Rating        int
	Comment       string
	SellerRating  int
	SellerComment string
}

type ReviewService interface {
	AddReview(ctx context.Context, user model.Principal, in ReviewInput) (*model.Review, error)
	GetCakeReviews(ctx context.Context, cakeID string) ([]*model.Review, error)
	ListUserReviews(ctx context.Context, userID string) ([]*model.Review, error)
	ListSellerReviews(ctx context.Context, sellerID string) ([]*model.Review, error)
	ListSellerOrderReviews(ctx context.Context, sellerID string) ([]*model.Review, error)
	ListRecentReviews(ctx context.Context, limit int) ([]*model.Review, error)
	DeleteReview(ctx context.Context, actor model.Principal, reviewID string) error
}

type reviewServiceImpl struct {
	db         *gorm.DB
	cakeRepo   repository.CakeRepository
	orderRepo  repository.OrderRepository
	reviewRepo repository.ReviewRepository
	notifier   Emitter
	logger     *zap.Logger
}

func NewReviewService(
	db *gorm.DB,
	cakeRepo repository.CakeRepository,
	orderRepo repository.OrderRepository,
	reviewRepo repository.ReviewRepository,
	notifier Emitter,
	logger *zap.Logger,
) ReviewService {
	return &reviewServiceImpl{
		db:         db,
		cakeRepo:   cakeRepo,
		orderRepo:  orderRepo,
		reviewRepo: reviewRepo,
		notifier:   notifier,
		logger:     logger,
	}
}

func validRating(r int) bool {
	return r >= 1 && r <= 5
}

func (s *reviewServiceImpl) AddReview(ctx context.Context, user model.Principal, in ReviewInput) (*model.Review, error) {
	switch {
	case in.OrderID != "" && in.CakeID == "" && in.SellerID == "" && in.Rating != 0:
		return s.addOrderReview(ctx, user, in)
	case in.OrderID != "" && in.CakeID == "" && in.SellerID != "" && in.SellerRating != 0:
		return s.addSellerReview(ctx, user, in)
	case in.OrderID != "" && in.CakeID != "" && in.Rating != 0:
		return s.addCakeReview(ctx, user, in)
	}
	return nil, apperr.Validation("invalid review payload")
}

// deliveredOrder is the eligibility gate every review goes through.
func (s *reviewServiceImpl) deliveredOrder(ctx context.Context, tx *gorm.DB, userID, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.FindForCustomer(ctx, tx, userID, orderID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.State("you can only review your own delivered orders")
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	if order.Status != model.StatusDelivered {
		return nil, apperr.State("you can only review delivered orders")
	}
	return order, nil
}

func (s *reviewServiceImpl) addOrderReview(ctx context.Context, user model.Principal, in ReviewInput) (*model.Review, error) {
	if !validRating(in.Rating) {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	var (
		order     *model.Order
		review    *model.Review
		fallbacks int
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = s.deliveredOrder(ctx, tx, user.ID, in.OrderID)
		if err != nil {
			return err
		}

		exists, err := s.reviewRepo.Exists(ctx, tx, user.ID, order.ID, model.ReviewOrder, "")
		if err != nil {
			return fmt.Errorf("check order review: %w", err)
		}
		if exists {
			return apperr.Conflict("you have already reviewed this order")
		}

		review = &model.Review{
			ID:            uuid.NewString(),
			Kind:          model.ReviewOrder,
			UserID:        user.ID,
			OrderID:       order.ID,
			Rating:        in.Rating,
			Comment:       in.Comment,
			IsOrderReview: true,
		}
		if err := s.reviewRepo.Create(ctx, tx, review); err != nil {
			return fmt.Errorf("store order review: %w", err)
		}

		// every cake without its own review for this order inherits the order review
		for _, it := range order.Items {
			has, err := s.reviewRepo.Exists(ctx, tx, user.ID, order.ID, model.ReviewCake, it.CakeID)
			if err != nil {
				return fmt.Errorf("check cake review: %w", err)
			}
			if has {
				continue
			}

			err = s.reviewRepo.Create(ctx, tx, &model.Review{
				ID:         uuid.NewString(),
				Kind:       model.ReviewCake,
				UserID:     user.ID,
				OrderID:    order.ID,
				CakeID:     it.CakeID,
				SellerID:   it.SellerID,
				Rating:     in.Rating,
				Comment:    in.Comment,
				IsFallback: true,
			})
			if err != nil {
				return fmt.Errorf("store fallback review: %w", err)
			}
			fallbacks++
		}
		return nil
	})
	if err != nil {
		return nil, reviewError(err)
	}

	s.logger.Info("order reviewed",
		zap.String("order_id", order.ID),
		zap.String("user_id", user.ID),
		zap.Int("fallback_reviews", fallbacks))

	for _, sellerID := range order.SellerIDs() {
		s.notifier.Emit(ctx, sellerID, model.NotifyReview,
			fmt.Sprintf("%s reviewed an order with your cakes (%d/5)", user.DisplayName(), in.Rating),
			map[string]any{"orderId": order.ID, "reviewId": review.ID})
	}

	return review, nil
}

func (s *reviewServiceImpl) addSellerReview(ctx context.Context, user model.Principal, in ReviewInput) (*model.Review, error) {
	if !validRating(in.SellerRating) {
		return nil, apperr.Validation("seller rating must be between 1 and 5")
	}

	var review *model.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.deliveredOrder(ctx, tx, user.ID, in.OrderID)
		if err != nil {
			return err
		}
		if !order.HasSeller(in.SellerID) {
			return apperr.Validation("seller has no cakes in this order")
		}

		exists, err := s.reviewRepo.Exists(ctx, tx, user.ID, order.ID, model.ReviewSeller, "")
		if err != nil {
			return fmt.Errorf("check seller review: %w", err)
		}
		if exists {
			return apperr.Conflict("you have already reviewed this seller for this order")
		}

		review = &model.Review{
			ID:       uuid.NewString(),
			Kind:     model.ReviewSeller,
			UserID:   user.ID,
			OrderID:  order.ID,
			SellerID: in.SellerID,
			Rating:   in.SellerRating,
			Comment:  in.SellerComment,
		}
		return s.reviewRepo.Create(ctx, tx, review)
	})
	if err != nil {
		return nil, reviewError(err)
	}

	s.notifier.Emit(ctx, in.SellerID, model.NotifyReview,
		fmt.Sprintf("%s rated you %d/5", user.DisplayName(), in.SellerRating),
		map[string]any{"orderId": in.OrderID, "reviewId": review.ID})

	return review, nil
}

func (s *reviewServiceImpl) addCakeReview(ctx context.Context, user model.Principal, in ReviewInput) (*model.Review, error) {
	if !validRating(in.Rating) {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}

	var review *model.Review
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := s.deliveredOrder(ctx, tx, user.ID, in.OrderID)
		if err != nil {
			return err
		}

		var line *model.OrderItem
		for i := range order.Items {
			if order.Items[i].CakeID == in.CakeID {
				line = &order.Items[i]
				break
			}
		}
		if line == nil {
			return apperr.State("you can only review cakes you received in a delivered order")
		}

		exists, err := s.reviewRepo.Exists(ctx, tx, user.ID, order.ID, model.ReviewCake, in.CakeID)
		if err != nil {
			return fmt.Errorf("check cake review: %w", err)
		}
		if exists {
			return apperr.Conflict("you have already reviewed this cake for this order")
		}

		review = &model.Review{
			ID:       uuid.NewString(),
			Kind:     model.ReviewCake,
			UserID:   user.ID,
			OrderID:  order.ID,
			CakeID:   in.CakeID,
			SellerID: line.SellerID,
			Rating:   in.Rating,
			Comment:  in.Comment,
		}
		return s.reviewRepo.Create(ctx, tx, review)
	})
	if err != nil {
		return nil, reviewError(err)
	}

	s.notifier.Emit(ctx, review.SellerID, model.NotifyReview,
		fmt.Sprintf("%s reviewed one of your cakes (%d/5)", user.DisplayName(), in.Rating),
		map[string]any{"cakeId": in.CakeID, "reviewId": review.ID})

	return review, nil
}

func reviewError(err error) error {
	if repository.IsDuplicate(err) {
		return apperr.Conflict("review already exists")
	}
	return err
}

// GetCakeReviews returns the cake's reviews plus, for delivered orders whose
// customer left no review of the cake, that customer's order review. Each
// (customer, order) pair appears once.
func (s *reviewServiceImpl) GetCakeReviews(ctx context.Context, cakeID string) ([]*model.Review, error) {
	cakeReviews, err := s.reviewRepo.ListByCake(ctx, cakeID)
	if err != nil {
		return nil, fmt.Errorf("list cake reviews: %w", err)
	}

	orders, err := s.orderRepo.ListDeliveredWithCake(ctx, cakeID)
	if err != nil {
		return nil, fmt.Errorf("list delivered orders: %w", err)
	}

	type key struct{ user, order string }
	seen := make(map[key]struct{}, len(cakeReviews))
	reviews := make([]*model.Review, 0, len(cakeReviews))
	for _, r := range cakeReviews {
		k := key{r.UserID, r.OrderID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		reviews = append(reviews, r)
	}

	for _, order := range orders {
		k := key{order.CustomerID, order.ID}
		if _, ok := seen[k]; ok {
			continue
		}

		r, err := s.reviewRepo.FindOrderReview(ctx, order.CustomerID, order.ID)
		if repository.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find order review: %w", err)
		}
		seen[k] = struct{}{}
		reviews = append(reviews, r)
	}

	return reviews, nil
}

func (s *reviewServiceImpl) ListUserReviews(ctx context.Context, userID string) ([]*model.Review, error) {
	return s.reviewRepo.ListByUser(ctx, userID)
}

func (s *reviewServiceImpl) ListSellerReviews(ctx context.Context, sellerID string) ([]*model.Review, error) {
	cakeIDs, err := s.cakeRepo.FindIDsBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list seller cakes: %w", err)
	}
	return s.reviewRepo.ListByCakes(ctx, cakeIDs)
}

func (s *reviewServiceImpl) ListSellerOrderReviews(ctx context.Context, sellerID string) ([]*model.Review, error) {
	orderIDs, err := s.orderRepo.DeliveredIDsBySeller(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("list delivered orders: %w", err)
	}
	return s.reviewRepo.ListOrderReviews(ctx, orderIDs)
}

func (s *reviewServiceImpl) ListRecentReviews(ctx context.Context, limit int) ([]*model.Review, error) {
	return s.reviewRepo.ListRecent(ctx, limit)
}

func (s *reviewServiceImpl) DeleteReview(ctx context.Context, actor model.Principal, reviewID string) error {
	review, err := s.reviewRepo.FindByID(ctx, reviewID)
	if err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotFound("review not found")
		}
		return fmt.Errorf("find review: %w", err)
	}
	if !actor.IsAdmin() && review.UserID != actor.ID {
		return apperr.Forbidden("you can only delete your own reviews")
	}

	if err := s.reviewRepo.Delete(ctx, reviewID); err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotFound("review not found")
		}
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
