package handler

import (
	"net/http"
	"strings"

	"cake-marketplace/internal/apperr"
	"cake-marketplace/internal/dto"
	"cake-marketplace/internal/middleware"
	"cake-marketplace/internal/model"

	"github.com/labstack/echo/v4"
)

func principal(c echo.Context) (model.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return model.Principal{}, apperr.Unauthorized("missing or invalid token")
	}
	return p, nil
}

func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("invalid request body")
	}
	return nil
}

func param(c echo.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Param(name))
	if v == "" {
		return "", apperr.Validation("missing %s", name)
	}
	return v, nil
}

func ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, dto.OK(data))
}

func created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, dto.OK(data))
}
