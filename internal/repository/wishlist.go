package repository

import (
	"context"

	"cake-marketplace/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WishlistRepository interface {
	// Add reports false when the cake was already on the wishlist.
	Add(ctx context.Context, item *model.WishlistItem) (bool, error)
	Remove(ctx context.Context, userID, cakeID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*model.WishlistItem, error)
}

type wishlistRepoImpl struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) WishlistRepository {
	return &wishlistRepoImpl{
		db: db,
	}
}

func (r *wishlistRepoImpl) Add(ctx context.Context, item *model.WishlistItem) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "cake_id"}},
			DoNothing: true,
		}).
		Omit("Cake").
		Create(item)

	return result.RowsAffected > 0, result.Error
}

func (r *wishlistRepoImpl) Remove(ctx context.Context, userID, cakeID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND cake_id = ?", userID, cakeID).
		Delete(&model.WishlistItem{})

	return result.RowsAffected > 0, result.Error
}

func (r *wishlistRepoImpl) ListByUser(ctx context.Context, userID string) ([]*model.WishlistItem, error) {
	var items []*model.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Cake").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error

	return items, err
}
