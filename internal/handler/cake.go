package handler

import (
	"net/http"
	"strconv"

	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/model"
	"cake-marketplace/internal/repository"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type CakeHandler struct {
	catalogService service.CatalogService
	reviewService  service.ReviewService
}

func NewCakeHandler(catalogService service.CatalogService, reviewService service.ReviewService) *CakeHandler {
	return &CakeHandler{
		catalogService: catalogService,
		reviewService:  reviewService,
	}
}

func cakeInput(req *dto.CakeRequest) service.CakeInput {
	return service.CakeInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Flavor:      req.Flavor,
		Image:       req.Image,
		Price:       req.Price,
		Stock:       req.Stock,
		IsFeatured:  req.IsFeatured,
	}
}

func (h *CakeHandler) ListCakes(c echo.Context) error {
	ctx := c.Request().Context()

	filter := repository.CakeFilter{
		Category: model.CakeCategory(c.QueryParam("category")),
		SellerID: c.QueryParam("seller"),
	}
	filter.OnlyAvailable, _ = strconv.ParseBool(c.QueryParam("available"))

	cakes, err := h.catalogService.ListCakes(ctx, filter)
	if err != nil {
		return err
	}
	return ok(c, cakes)
}

func (h *CakeHandler) GetCake(c echo.Context) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	cake, err := h.catalogService.GetCake(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, cake)
}

func (h *CakeHandler) GetCakeReviews(c echo.Context) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	reviews, err := h.reviewService.GetCakeReviews(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return ok(c, reviews)
}

func (h *CakeHandler) ListMyCakes(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	cakes, err := h.catalogService.ListSellerCakes(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, cakes)
}

func (h *CakeHandler) CreateCake(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CakeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cake, err := h.catalogService.CreateCake(c.Request().Context(), p.ID, cakeInput(&req))
	if err != nil {
		return err
	}
	return created(c, cake)
}

func (h *CakeHandler) UpdateCake(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	var req dto.CakeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	cake, err := h.catalogService.UpdateCake(c.Request().Context(), p.ID, id, cakeInput(&req))
	if err != nil {
		return err
	}
	return ok(c, cake)
}

func (h *CakeHandler) DeleteCake(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	if err := h.catalogService.DeleteCake(c.Request().Context(), p.ID, id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "cake deleted"})
}
