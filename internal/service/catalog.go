package service

import (
	"context"
	"fmt"
	"strings"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CakeInput struct {
	Name        string
	Description string
	Category    model.CakeCategory
	Flavor      string
	Image       string
	Price       decimal.Decimal
	Stock       int
	IsFeatured  bool
}

type CatalogService interface {
	CreateCake(ctx context.Context, sellerID string, in CakeInput) (*model.Cake, error)
	UpdateCake(ctx context.Context, sellerID, cakeID string, in CakeInput) (*model.Cake, error)
	DeleteCake(ctx context.Context, sellerID, cakeID string) error
	GetCake(ctx context.Context, cakeID string) (*model.Cake, error)
	ListCakes(ctx context.Context, filter repository.CakeFilter) ([]*model.Cake, error)
	ListSellerCakes(ctx context.Context, sellerID string) ([]*model.Cake, error)
}

type catalogServiceImpl struct {
	cakeRepo repository.CakeRepository
	notifier Emitter
	logger   *zap.Logger
}

func NewCatalogService(cakeRepo repository.CakeRepository, notifier Emitter, logger *zap.Logger) CatalogService {
	return &catalogServiceImpl{
		cakeRepo: cakeRepo,
		notifier: notifier,
		logger:   logger,
	}
}

func validateCake(in *CakeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return apperr.Validation("cake name is required")
	}
	in.Price = in.Price.Round(2)
	if !in.Price.IsPositive() {
		return apperr.Validation("price must be greater than zero")
	}
	if in.Stock < 0 {
		return apperr.Validation("stock cannot be negative")
	}
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
	if !in.Category.Valid() {
		return apperr.Validation("unknown category %q", in.Category)
	}
	return nil
}

func (s *catalogServiceImpl) CreateCake(ctx context.Context, sellerID string, in CakeInput) (*model.Cake, error) {
	if err := validateCake(&in); err != nil {
		return nil, err
	}

	cake := &model.Cake{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Flavor:      in.Flavor,
		Image:       in.Image,
		Price:       in.Price,
		Stock:       in.Stock,
		IsAvailable: in.Stock > 0,
		IsFeatured:  in.IsFeatured,
		SellerID:    sellerID,
	}
	if err := s.cakeRepo.Create(ctx, cake); err != nil {
		return nil, fmt.Errorf("create cake: %w", err)
	}

	s.logger.Info("cake created", zap.String("cake_id", cake.ID), zap.String("seller_id", sellerID))
	s.notifier.Emit(ctx, sellerID, model.NotifyCake,
		fmt.Sprintf("Your cake %q is now listed", cake.Name),
		map[string]any{"cakeId": cake.ID})

	return cake, nil
}

func (s *catalogServiceImpl) ownedCake(ctx context.Context, sellerID, cakeID string) (*model.Cake, error) {
	cake, err := s.cakeRepo.FindByID(ctx, nil, cakeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("cake not found")
		}
		return nil, fmt.Errorf("find cake: %w", err)
	}
	if cake.SellerID != sellerID {
		return nil, apperr.NotFound("cake not found")
	}
	return cake, nil
}

func (s *catalogServiceImpl) UpdateCake(ctx context.Context, sellerID, cakeID string, in CakeInput) (*model.Cake, error) {
	if err := validateCake(&in); err != nil {
		return nil, err
	}

	cake, err := s.ownedCake(ctx, sellerID, cakeID)
	if err != nil {
		return nil, err
	}

	cake.Name = in.Name
	cake.Description = in.Description
	cake.Category = in.Category
	cake.Flavor = in.Flavor
	cake.Image = in.Image
	cake.Price = in.Price
	cake.Stock = in.Stock
	cake.IsAvailable = in.Stock > 0
	cake.IsFeatured = in.IsFeatured

	if err := s.cakeRepo.Save(ctx, cake); err != nil {
		return nil, fmt.Errorf("save cake: %w", err)
	}
	return cake, nil
}

func (s *catalogServiceImpl) DeleteCake(ctx context.Context, sellerID, cakeID string) error {
	if _, err := s.ownedCake(ctx, sellerID, cakeID); err != nil {
		return err
	}
	if err := s.cakeRepo.Delete(ctx, cakeID); err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotFound("cake not found")
		}
		return fmt.Errorf("delete cake: %w", err)
	}
	return nil
}

func (s *catalogServiceImpl) GetCake(ctx context.Context, cakeID string) (*model.Cake, error) {
	cake, err := s.cakeRepo.FindByID(ctx, nil, cakeID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperr.NotFound("cake not found")
		}
		return nil, fmt.Errorf("find cake: %w", err)
	}
	return cake, nil
}

func (s *catalogServiceImpl) ListCakes(ctx context.Context, filter repository.CakeFilter) ([]*model.Cake, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, apperr.Validation("unknown category %q", filter.Category)
	}
	return s.cakeRepo.List(ctx, filter)
}

func (s *catalogServiceImpl) ListSellerCakes(ctx context.Context, sellerID string) ([]*model.Cake, error) {
	return s.cakeRepo.List(ctx, repository.CakeFilter{SellerID: sellerID})
}
