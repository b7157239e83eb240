package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavelkurin/portfolio_backend/internal/contacts"
	"github.com/pavelkurin/portfolio_backend/internal/logging"
	"github.com/pavelkurin/portfolio_backend/internal/service"
)

// Response is the uniform envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ok(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func fail(c echo.Context, status int, message string) error {
	return c.JSON(status, Response{Success: false, Message: message})
}

// neutral is the deliberate no-leak denial: an ordinary 200 with null data,
// indistinguishable from an uneventful response.
func neutral(c echo.Context) error {
	return c.JSON(http.StatusOK, Response{Success: true})
}

// writeError maps the service taxonomy onto HTTP statuses.
func writeError(c echo.Context, err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		return fail(c, http.StatusBadRequest, ve.Error())
	}
	var ce *service.ConflictError
	if errors.As(err, &ce) {
		return fail(c, http.StatusConflict, ce.Message)
	}
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		return fail(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, contacts.ErrNotFound):
		return fail(c, http.StatusNotFound, "Contact not found")
	case errors.Is(err, service.ErrUnauthorized):
		return fail(c, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, contacts.ErrSearchUnavailable):
		return fail(c, http.StatusServiceUnavailable, "Search is unavailable")
	}
	logging.FromContext(c.Request().Context()).Error("internal_error", "error", err)
	return fail(c, http.StatusInternalServerError, "Internal error")
}
