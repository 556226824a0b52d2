package handler

import (
	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/service"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	notes, err := h.notificationService.List(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, notes)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id, err := param(c, "id")
	if err != nil {
		return err
	}

	if err := h.notificationService.MarkRead(c.Request().Context(), p.ID, id); err != nil {
		return err
	}
	return ok(c, map[string]string{"id": id})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	n, err := h.notificationService.MarkAllRead(c.Request().Context(), p.ID)
	if err != nil {
		return err
	}
	return ok(c, dto.MarkAllReadResponse{Updated: n})
}
