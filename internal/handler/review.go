package handler

import (
	"net/http"
	"strconv"

	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

const (
	defaultRecentReviews = 20
	maxRecentReviews     = 100
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

func (h *ReviewHandler) AddReview(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	review, err := h.reviewService.AddReview(c.Request().Context(), p, service.ReviewInput{
		OrderID:       req.OrderID,
		CakeID:        req.CakeID,
		SellerID:      req.SellerID,
		Rating:        req.Rating,
		Comment:       req.Comment,
		SellerRating:  req.SellerRating,
		SellerComment: req.SellerComment,
	})
	if err != nil {
		return err
	}
	return created(c, review)
}

func (h *ReviewHandler) ListRecent(c echo.Context) error {
	reviews, err := h.reviewService.ListRecentReviews(c.Request().Context(), recentLimit(c.QueryParam("limit")))
	if err != nil {
		return err
	}
	return ok(c, reviews)
}

func (h *ReviewHandler) ListMine(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	reviews, err := h.reviewService.ListUserReviews(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, reviews)
}

func (h *ReviewHandler) ListSeller(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	reviews, err := h.reviewService.ListSellerReviews(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, reviews)
}

func (h *ReviewHandler) ListSellerOrders(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	reviews, err := h.reviewService.ListSellerOrderReviews(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, reviews)
}

func (h *ReviewHandler) DeleteReview(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	if err := h.reviewService.DeleteReview(c.Request().Context(), p, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "review deleted"})
}

func recentLimit(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return defaultRecentReviews
	}
	return min(v, maxRecentReviews)
}
