package service

import (
	"context"
	"errors"
	"fmt"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errSingleSeller = apperr.Conflict("you can only add cakes from one seller per order")

type CartService interface {
	AddItem(ctx context.Context, customerID, cakeID string) (*model.Cart, error)
	RemoveItem(ctx context.Context, customerID, cakeID string) (*model.Cart, error)
	GetCart(ctx context.Context, customerID string) (*model.Cart, error)
	Clear(ctx context.Context, customerID string) error
}

type cartServiceImpl struct {
	db       *gorm.DB
	cakeRepo repository.CakeRepository
	cartRepo repository.CartRepository
	logger   *zap.Logger
}

func NewCartService(
	db *gorm.DB,
	cakeRepo repository.CakeRepository,
	cartRepo repository.CartRepository,
	logger *zap.Logger,
) CartService {
	return &cartServiceImpl{
		db:       db,
		cakeRepo: cakeRepo,
		cartRepo: cartRepo,
		logger:   logger,
	}
}

func (s *cartServiceImpl) AddItem(ctx context.Context, customerID, cakeID string) (*model.Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cake, err := s.cakeRepo.FindByID(ctx, tx, cakeID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("cake not found")
			}
			return fmt.Errorf("find cake: %w", err)
		}
		if cake.SellerID == "" {
			return apperr.Validation("cake is missing seller information")
		}

		cart, err := s.cartRepo.FindByCustomer(ctx, tx, customerID)
		if repository.IsNotFound(err) {
			cart = &model.Cart{ID: uuid.NewString(), CustomerID: customerID}
			err = s.cartRepo.Create(ctx, tx, cart)
		}
		if err != nil {
			return fmt.Errorf("load cart: %w", err)
		}

		if !cart.Accepts(cake.SellerID) {
			return errSingleSeller
		}

		if cart.Item(cakeID) != nil {
			err = s.cartRepo.IncrementItem(ctx, tx, cart.ID, cakeID)
		} else {
			err = s.cartRepo.AddItem(ctx, tx, cart.ID, cakeID)
		}
		if err != nil {
			return fmt.Errorf("add cart item: %w", err)
		}

		return s.cartRepo.Touch(ctx, tx, cart, cake.SellerID)
	})
	if err != nil {
		return nil, cartError(err)
	}

	return s.GetCart(ctx, customerID)
}

func (s *cartServiceImpl) RemoveItem(ctx context.Context, customerID, cakeID string) (*model.Cart, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cart, err := s.cartRepo.FindByCustomer(ctx, tx, customerID)
		if err != nil {
			if repository.IsNotFound(err) {
				return apperr.NotFound("cart not found")
			}
			return fmt.Errorf("load cart: %w", err)
		}

		removed, err := s.cartRepo.RemoveItem(ctx, tx, cart.ID, cakeID)
		if err != nil {
			return fmt.Errorf("remove cart item: %w", err)
		}
		if !removed {
			return apperr.NotFound("cake not found in cart")
		}

		left, err := s.cartRepo.CountItems(ctx, tx, cart.ID)
		if err != nil {
			return fmt.Errorf("count cart items: %w", err)
		}

		sellerID := cart.SellerID
		if left == 0 {
			sellerID = ""
		}
		return s.cartRepo.Touch(ctx, tx, cart, sellerID)
	})
	if err != nil {
		return nil, cartError(err)
	}

	return s.GetCart(ctx, customerID)
}

// GetCart returns an empty cart when the customer never added anything.
func (s *cartServiceImpl) GetCart(ctx context.Context, customerID string) (*model.Cart, error) {
	cart, err := s.cartRepo.FindWithCakes(ctx, customerID)
	if err != nil {
		if repository.IsNotFound(err) {
			return &model.Cart{CustomerID: customerID, Items: []model.CartItem{}}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

func (s *cartServiceImpl) Clear(ctx context.Context, customerID string) error {
	if err := s.cartRepo.DeleteByCustomer(ctx, nil, customerID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func cartError(err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		return apperr.Conflict("cart was updated by another request, please retry")
	case repository.IsDuplicate(err):
		return apperr.Conflict("cart was updated by another request, please retry")
	}
	return err
}
