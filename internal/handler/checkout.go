package handler

import (
	"net/http"

	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
	paymentService  service.PaymentService
}

func NewCheckoutHandler(checkoutService service.CheckoutService, paymentService service.PaymentService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		paymentService:  paymentService,
	}
}

func (h *CheckoutHandler) PaymentOptions(c echo.Context) error {
	return ok(c, h.checkoutService.GetPaymentOptions())
}

func (h *CheckoutHandler) CartSummary(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	summary, err := h.checkoutService.CartSummary(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.CheckoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.checkoutService.Checkout(c.Request().Context(), p, service.CheckoutInput{
		Address:        req.ResolvedAddress(),
		PaymentMethod:  req.PaymentMethod,
		PaymentCountry: req.PaymentCountry,
		Email:          req.Email,
	})
	if err != nil {
		return err
	}
	return created(c, result)
}

func (h *CheckoutHandler) RetryPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	var req dto.RetryPaymentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	result, err := h.checkoutService.RetryPayment(c.Request().Context(), p, id, req.Email)
	if err != nil {
		return err
	}
	return ok(c, result)
}

// Verify is also the gateway redirect target, so it runs without a principal.
func (h *CheckoutHandler) Verify(c echo.Context) error {
	reference, err := param(c, "reference")
	if err != nil {
		return err
	}

	result, err := h.paymentService.Verify(c.Request().Context(), reference)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, publicVerifyResponse(result))
}

func (h *CheckoutHandler) OrderStatus(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	view, err := h.checkoutService.OrderStatus(c.Request().Context(), p.ID, id)
	if err != nil {
		return err
	}
	return ok(c, view)
}

func verifyResponse(result *service.VerifyResult) dto.VerifyResponse {
	return dto.VerifyResponse{
		Success: true,
		Data: map[string]any{
			"payment": result.Payment,
			"order":   result.Order,
		},
		PaymentStatus: result.PaymentStatus,
		NextStep:      result.NextStep,
		RetryPayment:  result.RetryPayment,
	}
}

// publicVerifyResponse drops the address and payer email; anyone holding the reference can call Verify.
func publicVerifyResponse(result *service.VerifyResult) dto.VerifyResponse {
	summary := dto.PaymentSummary{
		Reference:     result.Payment.Reference,
		OrderID:       result.Payment.OrderID,
		PaymentStatus: result.PaymentStatus,
		Amount:        result.Payment.Amount,
		Currency:      result.Payment.Currency,
	}
	if result.Order != nil {
		summary.OrderStatus = result.Order.Status
	}

	resp := verifyResponse(result)
	resp.Data = summary
	return resp
}
