package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-participation/internal/lifecycle"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	ID      uint64 `json:"id,omitempty"`
}

// statusOf maps a lifecycle kind to its HTTP status.
func statusOf(k lifecycle.Kind) int {
	switch k {
	case lifecycle.KindNotFound:
		return http.StatusNotFound
	case lifecycle.KindValidation:
		return http.StatusBadRequest
	case lifecycle.KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail writes err as JSON.  Lifecycle errors keep their reason and field;
// anything else is logged and reported as a bare 500.
func fail(c echo.Context, err error) error {
	var le *lifecycle.Error
	if errors.As(err, &le) {
		return c.JSON(statusOf(le.Kind), errorBody{
			Error:   string(le.Reason),
			Message: le.Message,
			Field:   le.Field,
			ID:      le.ID,
		})
	}
	c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	return c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal", Message: "internal error"})
}

func badField(field, msg string) *lifecycle.Error {
	return lifecycle.Validation(lifecycle.ReasonInvalidField, field, msg)
}
