package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/service"
)

// CategoryHandler serves public category reads and admin writes.
type CategoryHandler struct {
	Categories *service.CategoryService
}

func NewCategoryHandler(categories *service.CategoryService) *CategoryHandler {
	if categories == nil {
		panic("nil category service passed to NewCategoryHandler")
	}
	return &CategoryHandler{Categories: categories}
}

func (h *CategoryHandler) List(c echo.Context) error {
	from, size, err := page(c)
	if err != nil {
		return fail(c, err)
	}
	cats, err := h.Categories.List(c.Request().Context(), from, size)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cats)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	cat, err := h.Categories.Get(c.Request().Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	var req categoryReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cat, err := h.Categories.Create(c.Request().Context(), req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CategoryHandler) Rename(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return fail(c, err)
	}
	var req categoryReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	cat, err := h.Categories.Rename(c.Request().Context(), id, req.Name)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, cat)
}
