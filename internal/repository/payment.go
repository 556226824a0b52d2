package repository

import (
	"context"
	"errors"
	"time"

	"cake-marketplace/internal/model"

	"gorm.io/gorm"
)

// ErrAlreadySettled means another caller moved the payment out of pending first.
var ErrAlreadySettled = errors.New("payment already settled")

type PaymentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error
	FindByID(ctx context.Context, paymentID string) (*model.Payment, error)
	FindByReference(ctx context.Context, tx *gorm.DB, reference string) (*model.Payment, error)
	FindByOrder(ctx context.Context, tx *gorm.DB, orderID string) (*model.Payment, error)
	SaveInitialization(ctx context.Context, payment *model.Payment) error
	SetTransactionID(ctx context.Context, paymentID, transactionID string) error
	MarkPaid(ctx context.Context, tx *gorm.DB, paymentID, transactionID string, raw []byte, paidAt time.Time) error
	MarkFailed(ctx context.Context, tx *gorm.DB, paymentID, transactionID string, raw []byte) error
	DeleteByOrder(ctx context.Context, tx *gorm.DB, orderID string) error
}

type paymentRepoImpl struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepoImpl{
		db: db,
	}
}

func (r *paymentRepoImpl) Create(ctx context.Context, tx *gorm.DB, payment *model.Payment) error {
	return pick(r.db, tx).WithContext(ctx).Create(payment).Error
}

func (r *paymentRepoImpl) FindByID(ctx context.Context, paymentID string) (*model.Payment, error) {
	var payment model.Payment
	err := r.db.WithContext(ctx).
		Where("id = ?", paymentID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByReference(ctx context.Context, tx *gorm.DB, reference string) (*model.Payment, error) {
	var payment model.Payment
	err := pick(r.db, tx).WithContext(ctx).
		Where("reference = ?", reference).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) FindByOrder(ctx context.Context, tx *gorm.DB, orderID string) (*model.Payment, error) {
	var payment model.Payment
	err := pick(r.db, tx).WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *paymentRepoImpl) SaveInitialization(ctx context.Context, payment *model.Payment) error {
	return r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"reference":         payment.Reference,
			"authorization_url": payment.AuthorizationURL,
			"access_code":       payment.AccessCode,
			"updated_at":        time.Now(),
		}).Error
}

func (r *paymentRepoImpl) SetTransactionID(ctx context.Context, paymentID, transactionID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentPending).
		Updates(map[string]interface{}{
			"transaction_id": transactionID,
			"updated_at":     time.Now(),
		}).Error
}

func (r *paymentRepoImpl) MarkPaid(ctx context.Context, tx *gorm.DB, paymentID, transactionID string, raw []byte, paidAt time.Time) error {
	return r.settle(ctx, tx, paymentID, map[string]interface{}{
		"status":         model.PaymentPaid,
		"transaction_id": transactionID,
		"raw_response":   string(raw),
		"paid_at":        paidAt,
		"updated_at":     time.Now(),
	})
}

func (r *paymentRepoImpl) MarkFailed(ctx context.Context, tx *gorm.DB, paymentID, transactionID string, raw []byte) error {
	return r.settle(ctx, tx, paymentID, map[string]interface{}{
		"status":         model.PaymentFailed,
		"transaction_id": transactionID,
		"raw_response":   string(raw),
		"updated_at":     time.Now(),
	})
}

func (r *paymentRepoImpl) settle(ctx context.Context, tx *gorm.DB, paymentID string, fields map[string]interface{}) error {
	result := pick(r.db, tx).WithContext(ctx).
		Model(&model.Payment{}).
		Where("id = ? AND status = ?", paymentID, model.PaymentPending).
		Updates(fields)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadySettled
	}
	return nil
}

func (r *paymentRepoImpl) DeleteByOrder(ctx context.Context, tx *gorm.DB, orderID string) error {
	return pick(r.db, tx).WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.Payment{}).Error
}
