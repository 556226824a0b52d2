package handler

import (
	"io"
	"net/http"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// webhook bodies are small JSON envelopes
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *zap.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

func (h *PaymentHandler) ChargeNonce(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	var req dto.ChargeNonceRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Reference == "" || req.Nonce == "" {
		return apperr.Validation("reference and nonce are required")
	}

	result, err := h.paymentService.ChargeNonce(c.Request().Context(), p.ID, req.Reference, req.Nonce)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, verifyResponse(result))
}

func (h *PaymentHandler) GetPayment(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	payment, err := h.paymentService.GetPayment(c.Request().Context(), p.ID, id)
	if err != nil {
		return err
	}
	return ok(c, payment)
}

func (h *PaymentHandler) Webhook(c echo.Context) error {
	req := c.Request()

	body, err := io.ReadAll(io.LimitReader(req.Body, maxWebhookBody))
	if err != nil {
		return apperr.Validation("read webhook body")
	}

	if err := h.paymentService.HandleWebhook(req.Context(), req.Header, body); err != nil {
		h.logger.Warn("webhook rejected",
			zap.String("kind", string(apperr.KindOf(err))),
			zap.Error(err))
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}
