package service

import (
	"context"
	"fmt"
	"time"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"
)

type WishlistService interface {
	GetWishlist(ctx context.Context, userID string) ([]*model.WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, cakeID string) error
	RemoveFromWishlist(ctx context.Context, userID, cakeID string) error
}

type wishlistServiceImpl struct {
	cakeRepo     repository.CakeRepository
	wishlistRepo repository.WishlistRepository
}

func NewWishlistService(cakeRepo repository.CakeRepository, wishlistRepo repository.WishlistRepository) WishlistService {
	return &wishlistServiceImpl{
		cakeRepo:     cakeRepo,
		wishlistRepo: wishlistRepo,
	}
}

func (s *wishlistServiceImpl) GetWishlist(ctx context.Context, userID string) ([]*model.WishlistItem, error) {
	return s.wishlistRepo.ListByUser(ctx, userID)
}

func (s *wishlistServiceImpl) AddToWishlist(ctx context.Context, userID, cakeID string) error {
	if _, err := s.cakeRepo.FindByID(ctx, nil, cakeID); err != nil {
		if repository.IsNotFound(err) {
			return apperr.NotFound("cake not found")
		}
		return fmt.Errorf("find cake: %w", err)
	}

	added, err := s.wishlistRepo.Add(ctx, &model.WishlistItem{
		UserID:    userID,
		CakeID:    cakeID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("add to wishlist: %w", err)
	}
	if !added {
		return apperr.Conflict("cake already in wishlist")
	}
	return nil
}

func (s *wishlistServiceImpl) RemoveFromWishlist(ctx context.Context, userID, cakeID string) error {
	removed, err := s.wishlistRepo.Remove(ctx, userID, cakeID)
	if err != nil {
		return fmt.Errorf("remove from wishlist: %w", err)
	}
	if !removed {
		return apperr.NotFound("cake not in wishlist")
	}
	return nil
}
