package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pavelkurin/portfolio_backend/internal/models"
	"github.com/pavelkurin/portfolio_backend/internal/service"
)

const accountContextKey = "account"

// AuthMiddleware runs the token check ahead of protected handlers and stashes
// the resolved account on the echo context.
type AuthMiddleware struct {
	Sessions *service.SessionService
}

func (m *AuthMiddleware) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, false)
}

// RequireStrict additionally matches the refresh-token cookies against the
// stored refresh token and rejects expired ones.
func (m *AuthMiddleware) RequireStrict(next echo.HandlerFunc) echo.HandlerFunc {
	return m.require(next, true)
}

func (m *AuthMiddleware) require(next echo.HandlerFunc, strict bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		var cookie *service.RefreshCookie
		if strict {
			value, err := c.Cookie(refreshCookieName)
			id, idErr := c.Cookie(refreshIDCookieName)
			if err != nil || idErr != nil {
				return fail(c, http.StatusUnauthorized, "Unauthorized")
			}
			cookie = &service.RefreshCookie{ID: id.Value, Token: value.Value}
		}

		account, err := m.Sessions.TokenCheck(
			c.Request().Context(),
			c.Request().Header.Get(echo.HeaderAuthorization),
			cookie,
		)
		if err != nil {
			return fail(c, http.StatusUnauthorized, "Unauthorized")
		}

		c.Set(accountContextKey, account)
		return next(c)
	}
}

// Optional resolves the account when a valid bearer token is present and
// continues anonymously otherwise. Registration uses it: the actor only
// matters for elevated-role requests.
func (m *AuthMiddleware) Optional(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if auth := c.Request().Header.Get(echo.HeaderAuthorization); auth != "" {
			if account, err := m.Sessions.TokenCheck(c.Request().Context(), auth, nil); err == nil {
				c.Set(accountContextKey, account)
			}
		}
		return next(c)
	}
}

func accountFrom(c echo.Context) *models.Account {
	if v, ok := c.Get(accountContextKey).(*models.Account); ok {
		return v
	}
	return nil
}
