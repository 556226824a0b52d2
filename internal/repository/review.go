package repository

import (
	"context"

	"cake-marketplace/internal/model"

	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, tx *gorm.DB, review *model.Review) error
	FindByID(ctx context.Context, reviewID string) (*model.Review, error)
	Exists(ctx context.Context, tx *gorm.DB, userID, orderID string, kind model.ReviewKind, cakeID string) (bool, error)
	FindOrderReview(ctx context.Context, userID, orderID string) (*model.Review, error)
	ListByCake(ctx context.Context, cakeID string) ([]*model.Review, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Review, error)
	ListByCakes(ctx context.Context, cakeIDs []string) ([]*model.Review, error)
	ListOrderReviews(ctx context.Context, orderIDs []string) ([]*model.Review, error)
	ListRecent(ctx context.Context, limit int) ([]*model.Review, error)
	Delete(ctx context.Context, reviewID string) error
	DeleteByOrder(ctx context.Context, tx *gorm.DB, orderID string) error
}

type reviewRepoImpl struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepoImpl{
		db: db,
	}
}

func (r *reviewRepoImpl) Create(ctx context.Context, tx *gorm.DB, review *model.Review) error {
	return pick(r.db, tx).WithContext(ctx).Create(review).Error
}

func (r *reviewRepoImpl) FindByID(ctx context.Context, reviewID string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Where("id = ?", reviewID).
		First(&review).Error
	if err != nil {
		return nil, err
	}

	return &review, nil
}

func (r *reviewRepoImpl) Exists(ctx context.Context, tx *gorm.DB, userID, orderID string, kind model.ReviewKind, cakeID string) (bool, error) {
	var count int64
	err := pick(r.db, tx).WithContext(ctx).
		Model(&model.Review{}).
		Where("user_id = ? AND order_id = ? AND kind = ? AND cake_id = ?", userID, orderID, kind, cakeID).
		Count(&count).Error

	return count > 0, err
}

func (r *reviewRepoImpl) FindOrderReview(ctx context.Context, userID, orderID string) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND order_id = ? AND kind = ?", userID, orderID, model.ReviewOrder).
		First(&review).Error
	if err != nil {
		return nil, err
	}

	return &review, nil
}

func (r *reviewRepoImpl) ListByCake(ctx context.Context, cakeID string) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("kind = ? AND cake_id = ?", model.ReviewCake, cakeID).
		Order("created_at ASC").
		Find(&reviews).Error

	return reviews, err
}

func (r *reviewRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.Review, error) {
	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&reviews).Error

	return reviews, err
}

func (r *reviewRepoImpl) ListByCakes(ctx context.Context, cakeIDs []string) ([]*model.Review, error) {
	if len(cakeIDs) == 0 {
		return nil, nil
	}

	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("kind = ? AND cake_id IN ?", model.ReviewCake, cakeIDs).
		Order("created_at DESC").
		Find(&reviews).Error

	return reviews, err
}

func (r *reviewRepoImpl) ListOrderReviews(ctx context.Context, orderIDs []string) ([]*model.Review, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}

	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("kind = ? AND order_id IN ?", model.ReviewOrder, orderIDs).
		Order("created_at DESC").
		Find(&reviews).Error

	return reviews, err
}

func (r *reviewRepoImpl) ListRecent(ctx context.Context, limit int) ([]*model.Review, error) {
	if limit <= 0 {
		limit = 10
	}

	var reviews []*model.Review
	err := r.db.WithContext(ctx).
		Where("is_fallback = ?", false).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error

	return reviews, err
}

func (r *reviewRepoImpl) Delete(ctx context.Context, reviewID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", reviewID).
		Delete(&model.Review{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reviewRepoImpl) DeleteByOrder(ctx context.Context, tx *gorm.DB, orderID string) error {
	return pick(r.db, tx).WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.Review{}).Error
}
