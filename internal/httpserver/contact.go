package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pavelkurin/portfolio_backend/internal/contacts"
	"github.com/pavelkurin/portfolio_backend/internal/logging"
	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/service"
)

type ContactHandler struct {
	Svc *contacts.Service
}

func (h *ContactHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "contact_create")

	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("contact_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "Invalid body")
	}

	contact := &models.Contact{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	}
	if err := h.Svc.Create(ctx, contact); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusCreated, "Message received", contact)
}

func (h *ContactHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	actor := service.IdentityOf(accountFrom(c))

	out, err := h.Svc.List(ctx, actor)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", out)
}

func (h *ContactHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	actor := service.IdentityOf(accountFrom(c))
	contact, err := h.Svc.Get(ctx, actor, uint(id))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", contact)
}

func (h *ContactHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	actor := service.IdentityOf(accountFrom(c))
	if err := h.Svc.Delete(ctx, actor, uint(id)); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Message deleted", nil)
}

func (h *ContactHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()

	q := c.QueryParam("q")
	if q == "" {
		return fail(c, http.StatusBadRequest, "Missing query")
	}
	from, _ := strconv.Atoi(c.QueryParam("from"))
	size, _ := strconv.Atoi(c.QueryParam("size"))

	actor := service.IdentityOf(accountFrom(c))
	total, hits, err := h.Svc.Search(ctx, actor, q, from, size)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "", echo.Map{"total": total, "contacts": hits})
}
