package repository

import (
	"context"

	"cake-marketplace/internal/model"

	"gorm.io/gorm"
)

type CakeFilter struct {
	Category      model.CakeCategory
	SellerID      string
	OnlyAvailable bool
}

type CakeRepository interface {
	Create(ctx context.Context, cake *model.Cake) error
	Save(ctx context.Context, cake *model.Cake) error
	Delete(ctx context.Context, cakeID string) error
	FindByID(ctx context.Context, tx *gorm.DB, cakeID string) (*model.Cake, error)
	FindMany(ctx context.Context, tx *gorm.DB, cakeIDs []string) ([]*model.Cake, error)
	FindIDsBySeller(ctx context.Context, sellerID string) ([]string, error)
	List(ctx context.Context, filter CakeFilter) ([]*model.Cake, error)
}

type cakeRepoImpl struct {
	db *gorm.DB
}

func NewCakeRepository(db *gorm.DB) CakeRepository {
	return &cakeRepoImpl{
		db: db,
	}
}

func (r *cakeRepoImpl) Create(ctx context.Context, cake *model.Cake) error {
	return r.db.WithContext(ctx).Create(cake).Error
}

func (r *cakeRepoImpl) Save(ctx context.Context, cake *model.Cake) error {
	return r.db.WithContext(ctx).Save(cake).Error
}

func (r *cakeRepoImpl) Delete(ctx context.Context, cakeID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", cakeID).
		Delete(&model.Cake{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *cakeRepoImpl) FindByID(ctx context.Context, tx *gorm.DB, cakeID string) (*model.Cake, error) {
	var cake model.Cake
	err := pick(r.db, tx).WithContext(ctx).
		Where("id = ?", cakeID).
		First(&cake).Error

	if err != nil {
		return nil, err
	}

	return &cake, nil
}

func (r *cakeRepoImpl) FindMany(ctx context.Context, tx *gorm.DB, cakeIDs []string) ([]*model.Cake, error) {
	var cakes []*model.Cake
	err := pick(r.db, tx).WithContext(ctx).
		Where("id IN ?", cakeIDs).
		Find(&cakes).
		Error

	if err != nil {
		return nil, err
	}

	return cakes, nil
}

func (r *cakeRepoImpl) FindIDsBySeller(ctx context.Context, sellerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.Cake{}).
		Where("seller_id = ?", sellerID).
		Pluck("id", &ids).
		Error

	return ids, err
}

func (r *cakeRepoImpl) List(ctx context.Context, filter CakeFilter) ([]*model.Cake, error) {
	q := r.db.WithContext(ctx).Model(&model.Cake{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.SellerID != "" {
		q = q.Where("seller_id = ?", filter.SellerID)
	}
	if filter.OnlyAvailable {
		q = q.Where("is_available = ?", true)
	}

	var cakes []*model.Cake
	if err := q.Order("created_at DESC").Find(&cakes).Error; err != nil {
		return nil, err
	}

	return cakes, nil
}
