package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
	"github.com/pavelkurin/portfolio_backend/internal/logging"
	"github.com/pavelkurin/portfolio_backend/internal/service"
)

type AuthHandler struct {
	Accounts *service.AccountService
	Sessions *service.SessionService
	Recovery *service.RecoveryService
}

type accountView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (h *AuthHandler) GetUsers(c echo.Context) error {
	ctx := c.Request().Context()
	actor := service.IdentityOf(accountFrom(c))

	accounts, err := h.Accounts.List(ctx, actor)
	if err != nil {
		return writeError(c, err)
	}

	views := make([]accountView, len(accounts))
	for i, a := range accounts {
		views[i] = accountView{ID: a.ID, Username: a.Username, Email: a.Email, Role: string(a.Role)}
	}
	return ok(c, http.StatusOK, "", views)
}

func (h *AuthHandler) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_register")

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "Invalid body")
	}

	var actor *authz.Actor
	if account := accountFrom(c); account != nil {
		a := service.IdentityOf(account)
		actor = &a
	}

	account, err := h.Accounts.Register(ctx, actor, service.RegisterRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     authz.Role(req.Role),
	})
	if err != nil {
		return writeError(c, err)
	}
	if account == nil {
		// Elevated-role request without a SuperUser actor: deny without
		// revealing anything.
		return neutral(c)
	}

	return ok(c, http.StatusCreated, "Account created", accountView{
		ID: account.ID, Username: account.Username, Email: account.Email, Role: string(account.Role),
	})
}

func (h *AuthHandler) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_login")

	var req struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "Invalid body")
	}

	res, err := h.Sessions.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	if res.PasswordIncorrect {
		// Same response shape as success: no hard error for a wrong password.
		return c.JSON(http.StatusOK, Response{Success: false, Message: "Password is incorrect"})
	}

	setRefreshCookies(c, res.Tokens.RefreshToken)
	return ok(c, http.StatusOK, "Logged in", echo.Map{
		"accessToken": res.Tokens.AccessToken,
		"account": accountView{
			ID: res.Account.ID, Username: res.Account.Username,
			Email: res.Account.Email, Role: string(res.Account.Role),
		},
	})
}

func (h *AuthHandler) UpdateUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_update")

	targetID, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("update_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "Invalid body")
	}

	actor := service.IdentityOf(accountFrom(c))
	account, err := h.Accounts.Update(ctx, actor, uint(targetID), service.UpdateRequest{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Account updated", accountView{
		ID: account.ID, Username: account.Username, Email: account.Email, Role: string(account.Role),
	})
}

func (h *AuthHandler) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()

	targetID, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "Invalid id")
	}

	actor := service.IdentityOf(accountFrom(c))
	if err := h.Accounts.Delete(ctx, actor, uint(targetID)); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Account deleted", nil)
}

func (h *AuthHandler) RefreshToken(c echo.Context) error {
	ctx := c.Request().Context()
	account := accountFrom(c)

	tks, err := h.Sessions.Refresh(ctx, account.ID)
	if err != nil {
		return writeError(c, err)
	}

	setRefreshCookies(c, tks.RefreshToken)
	return ok(c, http.StatusOK, "Tokens rotated", echo.Map{"accessToken": tks.AccessToken})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	account := accountFrom(c)

	if err := h.Sessions.Logout(ctx, account.ID); err != nil {
		return writeError(c, err)
	}

	clearRefreshCookies(c)
	return ok(c, http.StatusOK, "Logged out", nil)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_forgot")

	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("forgot_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "Invalid body")
	}

	if err := h.Recovery.ForgotPassword(ctx, req.Identifier); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Reset email sent", nil)
}

func (h *AuthHandler) ResetPasswordConfirmation(c echo.Context) error {
	ctx := c.Request().Context()

	token := c.QueryParam("token")
	access, err := h.Recovery.ConfirmReset(ctx, token)
	if err != nil {
		return writeError(c, err)
	}
	if access == "" {
		// Invalid, expired or fabricated token: neutral denial.
		return neutral(c)
	}
	return ok(c, http.StatusOK, "Reset confirmed", echo.Map{"accessToken": access})
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth_reset")

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		l.Warn("reset_error", "status", 400, "error", err)
		return fail(c, http.StatusBadRequest, "Invalid body")
	}

	account := accountFrom(c)
	if err := h.Recovery.ResetPassword(ctx, account, req.Password); err != nil {
		return writeError(c, err)
	}
	return ok(c, http.StatusOK, "Password reset", nil)
}
