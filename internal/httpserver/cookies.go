package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/pavelkurin/portfolio_backend/internal/models"
)

const (
	refreshCookieName   = "refreshToken"
	refreshIDCookieName = "refreshTokenId"
)

func CreateCookie(name, value, path string, expires time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  expires,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

// setRefreshCookies delivers the refresh token to the client. It never
// appears in a JSON payload.
func setRefreshCookies(c echo.Context, rt *models.RefreshToken) {
	c.SetCookie(CreateCookie(refreshCookieName, rt.Token, "/", rt.ExpiresAt))
	c.SetCookie(CreateCookie(refreshIDCookieName, rt.ID, "/", rt.ExpiresAt))
}

func clearRefreshCookies(c echo.Context) {
	c.SetCookie(DeleteCookie(refreshCookieName, "/"))
	c.SetCookie(DeleteCookie(refreshIDCookieName, "/"))
}
