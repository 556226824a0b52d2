package repository

import (
	"context"
	"errors"
	"time"

	"cake-marketplace/internal/model"

	"gorm.io/gorm"
)

var ErrVersionConflict = errors.New("cart was modified concurrently")

type CartRepository interface {
	FindByCustomer(ctx context.Context, tx *gorm.DB, customerID string) (*model.Cart, error)
	FindWithCakes(ctx context.Context, customerID string) (*model.Cart, error)
	Create(ctx context.Context, tx *gorm.DB, cart *model.Cart) error
	AddItem(ctx context.Context, tx *gorm.DB, cartID, cakeID string) error
	IncrementItem(ctx context.Context, tx *gorm.DB, cartID, cakeID string) error
	RemoveItem(ctx context.Context, tx *gorm.DB, cartID, cakeID string) (bool, error)
	CountItems(ctx context.Context, tx *gorm.DB, cartID string) (int64, error)
	Touch(ctx context.Context, tx *gorm.DB, cart *model.Cart, sellerID string) error
	DeleteByCustomer(ctx context.Context, tx *gorm.DB, customerID string) error
}

type cartRepoImpl struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepoImpl{
		db: db,
	}
}

func (r *cartRepoImpl) FindByCustomer(ctx context.Context, tx *gorm.DB, customerID string) (*model.Cart, error) {
	var cart model.Cart
	err := pick(r.db, tx).WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		First(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) FindWithCakes(ctx context.Context, customerID string) (*model.Cart, error) {
	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Items.Cake").
		Where("customer_id = ?", customerID).
		First(&cart).Error

	if err != nil {
		return nil, err
	}

	return &cart, nil
}

func (r *cartRepoImpl) Create(ctx context.Context, tx *gorm.DB, cart *model.Cart) error {
	return pick(r.db, tx).WithContext(ctx).Omit("Items").Create(cart).Error
}

func (r *cartRepoImpl) AddItem(ctx context.Context, tx *gorm.DB, cartID, cakeID string) error {
	return pick(r.db, tx).WithContext(ctx).Create(&model.CartItem{
		CartID:   cartID,
		CakeID:   cakeID,
		Quantity: 1,
	}).Error
}

func (r *cartRepoImpl) IncrementItem(ctx context.Context, tx *gorm.DB, cartID, cakeID string) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ? AND cake_id = ?", cartID, cakeID).
		Update("quantity", gorm.Expr("quantity + ?", 1)).Error
}

func (r *cartRepoImpl) RemoveItem(ctx context.Context, tx *gorm.DB, cartID, cakeID string) (bool, error) {
	result := pick(r.db, tx).WithContext(ctx).
		Where("cart_id = ? AND cake_id = ?", cartID, cakeID).
		Delete(&model.CartItem{})

	return result.RowsAffected > 0, result.Error
}

func (r *cartRepoImpl) CountItems(ctx context.Context, tx *gorm.DB, cartID string) (int64, error) {
	var count int64
	err := pick(r.db, tx).WithContext(ctx).
		Model(&model.CartItem{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error

	return count, err
}

// Touch records the cart's seller and bumps its version, failing with
// ErrVersionConflict when another writer got there first.
func (r *cartRepoImpl) Touch(ctx context.Context, tx *gorm.DB, cart *model.Cart, sellerID string) error {
	result := pick(r.db, tx).WithContext(ctx).
		Model(&model.Cart{}).
		Where("id = ? AND version = ?", cart.ID, cart.Version).
		Updates(map[string]interface{}{
			"seller_id":  sellerID,
			"version":    cart.Version + 1,
			"updated_at": time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrVersionConflict
	}

	cart.SellerID = sellerID
	cart.Version++
	return nil
}

func (r *cartRepoImpl) DeleteByCustomer(ctx context.Context, tx *gorm.DB, customerID string) error {
	db := pick(r.db, tx).WithContext(ctx)

	var cartIDs []string
	if err := db.Model(&model.Cart{}).Where("customer_id = ?", customerID).Pluck("id", &cartIDs).Error; err != nil {
		return err
	}
	if len(cartIDs) == 0 {
		return nil
	}

	if err := db.Where("cart_id IN ?", cartIDs).Delete(&model.CartItem{}).Error; err != nil {
		return err
	}
	return db.Where("id IN ?", cartIDs).Delete(&model.Cart{}).Error
}
