package handler

import (
	"net/http"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) PlaceOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.PlaceOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	items := make([]service.OrderItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = service.OrderItemInput{CakeID: it.CakeID, Quantity: it.Quantity}
	}

	order, err := h.orderService.PlaceOrder(c.Request().Context(), p, service.PlaceOrderInput{
		Items:          items,
		Address:        req.Address,
		PaymentMethod:  req.PaymentMethod,
		PaymentCountry: req.PaymentCountry,
	})
	if err != nil {
		return err
	}
	return created(c, order)
}

func (h *OrderHandler) ListMyOrders(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListCustomerOrders(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func (h *OrderHandler) GetOrder(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	order, err := h.orderService.GetOrder(c.Request().Context(), p.ID, id)
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *OrderHandler) ListSellerOrders(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	orders, err := h.orderService.ListSellerOrders(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func (h *OrderHandler) SellerStats(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	stats, err := h.orderService.SellerSalesStats(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, stats)
}

// UpdateStatus is allowed for admins and for sellers with at least one cake in the order.
func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	var req dto.UpdateStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if !p.IsAdmin() {
		order, err := h.orderService.FindOrder(ctx, id)
		if err != nil {
			return err
		}
		if !order.HasSeller(p.ID) {
			return apperr.Forbidden("you can only update orders containing your cakes")
		}
	}

	order, err := h.orderService.UpdateOrderStatus(ctx, p, id, req.Status)
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	orders, err := h.orderService.ListAllOrders(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	if err := h.orderService.DeleteOrder(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.Response{Success: true, Message: "order deleted"})
}
