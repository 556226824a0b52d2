package handler

import (
	"net/http"

	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type CartHandler struct {
	cartService     service.CartService
	wishlistService service.WishlistService
}

func NewCartHandler(cartService service.CartService, wishlistService service.WishlistService) *CartHandler {
	return &CartHandler{
		cartService:     cartService,
		wishlistService: wishlistService,
	}
}

func (h *CartHandler) GetCart(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	cart, err := h.cartService.GetCart(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cart, err := h.cartService.AddItem(c.Request().Context(), p.ID, req.CakeID)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	cakeID, err := param(c, "cakeId")
	if err != nil {
		return err
	}

	cart, err := h.cartService.RemoveItem(c.Request().Context(), p.ID, cakeID)
	if err != nil {
		return err
	}
	return ok(c, cart)
}

func (h *CartHandler) Clear(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	if err := h.cartService.Clear(c.Request().Context(), p.ID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "cart cleared"})
}

func (h *CartHandler) GetWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	items, err := h.wishlistService.GetWishlist(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, items)
}

func (h *CartHandler) AddToWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.WishlistRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.wishlistService.AddToWishlist(c.Request().Context(), p.ID, req.CakeID); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.Response{Success: true, Message: "added to wishlist"})
}

func (h *CartHandler) RemoveFromWishlist(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	cakeID, err := param(c, "cakeId")
	if err != nil {
		return err
	}

	if err := h.wishlistService.RemoveFromWishlist(c.Request().Context(), p.ID, cakeID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "removed from wishlist"})
}
