package repository

import (
	"context"
	"errors"
	"time"

	"cake-marketplace/internal/model"

	"gorm.io/gorm"
)

// ErrStaleStatus means the order was no longer in the expected status.
var ErrStaleStatus = errors.New("order status changed concurrently")

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error)
	FindForCustomer(ctx context.Context, tx *gorm.DB, customerID, orderID string) (*model.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*model.Order, error)
	ListBySeller(ctx context.Context, sellerID string) ([]*model.Order, error)
	ListAll(ctx context.Context) ([]*model.Order, error)
	ListDeliveredWithCake(ctx context.Context, cakeID string) ([]*model.Order, error)
	DeliveredIDsBySeller(ctx context.Context, sellerID string) ([]string, error)
	TransitionStatus(ctx context.Context, tx *gorm.DB, orderID string, from, to model.OrderStatus, changedBy string) error
	UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.PaymentStatus) error
	SetPaymentReference(ctx context.Context, tx *gorm.DB, orderID, reference string) error
	Delete(ctx context.Context, tx *gorm.DB, orderID string) error
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return pick(r.db, tx).WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, orderID string) (*model.Order, error) {
	var order model.Order
	err := withLines(pick(r.db, tx).WithContext(ctx)).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindForCustomer(ctx context.Context, tx *gorm.DB, customerID, orderID string) (*model.Order, error) {
	var order model.Order
	err := withLines(pick(r.db, tx).WithContext(ctx)).
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) ListByCustomer(ctx context.Context, customerID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := withLines(r.db.WithContext(ctx)).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error

	return orders, err
}

func (r *orderRepoImpl) ListBySeller(ctx context.Context, sellerID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := withLines(r.db.WithContext(ctx)).
		Where("id IN (?)", r.db.Model(&model.OrderItem{}).Select("order_id").Where("seller_id = ?", sellerID)).
		Order("created_at DESC").
		Find(&orders).Error

	return orders, err
}

func (r *orderRepoImpl) ListAll(ctx context.Context) ([]*model.Order, error) {
	var orders []*model.Order
	err := withLines(r.db.WithContext(ctx)).
		Order("created_at DESC").
		Find(&orders).Error

	return orders, err
}

func (r *orderRepoImpl) ListDeliveredWithCake(ctx context.Context, cakeID string) ([]*model.Order, error) {
	var orders []*model.Order
	err := r.db.WithContext(ctx).
		Where("status = ?", model.StatusDelivered).
		Where("id IN (?)", r.db.Model(&model.OrderItem{}).Select("order_id").Where("cake_id = ?", cakeID)).
		Order("created_at ASC").
		Find(&orders).Error

	return orders, err
}

func (r *orderRepoImpl) DeliveredIDsBySeller(ctx context.Context, sellerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("status = ?", model.StatusDelivered).
		Where("id IN (?)", r.db.Model(&model.OrderItem{}).Select("order_id").Where("seller_id = ?", sellerID)).
		Pluck("id", &ids).Error

	return ids, err
}

// TransitionStatus moves the order from -> to only if it is still in from, and
// appends the change to the status history.
func (r *orderRepoImpl) TransitionStatus(ctx context.Context, tx *gorm.DB, orderID string, from, to model.OrderStatus, changedBy string) error {
	db := pick(r.db, tx).WithContext(ctx)
	now := time.Now()

	result := db.Model(&model.Order{}).
		Where("id = ? AND status = ?", orderID, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}

	return db.Create(&model.OrderStatusEvent{
		OrderID:   orderID,
		Status:    to,
		ChangedBy: changedBy,
		At:        now,
	}).Error
}

func (r *orderRepoImpl) UpdatePaymentStatus(ctx context.Context, tx *gorm.DB, orderID string, status model.PaymentStatus) error {
	result := pick(r.db, tx).WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *orderRepoImpl) SetPaymentReference(ctx context.Context, tx *gorm.DB, orderID, reference string) error {
	return pick(r.db, tx).WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_reference": reference,
			"updated_at":        time.Now(),
		}).Error
}

func (r *orderRepoImpl) Delete(ctx context.Context, tx *gorm.DB, orderID string) error {
	db := pick(r.db, tx).WithContext(ctx)

	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
		return err
	}
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderStatusEvent{}).Error; err != nil {
		return err
	}

	result := db.Where("id = ?", orderID).Delete(&model.Order{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
