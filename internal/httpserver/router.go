package httpserver

import (
	"github.com/labstack/echo/v4"
)

type Deps struct {
	Auth    *AuthHandler
	Contact *ContactHandler
	MW      *AuthMiddleware
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	api := e.Group("/api")

	auth := api.Group("/Auth")
	auth.GET("/getUsers", d.Auth.GetUsers, d.MW.Require)
	auth.POST("/register", d.Auth.Register, d.MW.Optional)
	auth.POST("/login", d.Auth.Login)
	auth.PUT("/updateUser", d.Auth.UpdateUser, d.MW.Require)
	auth.DELETE("/deleteUser", d.Auth.DeleteUser, d.MW.Require)
	auth.POST("/refreshToken", d.Auth.RefreshToken, d.MW.RequireStrict)
	auth.POST("/logout", d.Auth.Logout, d.MW.Require)
	auth.POST("/forgotPassword", d.Auth.ForgotPassword)
	auth.POST("/resetPasswordConfirmation", d.Auth.ResetPasswordConfirmation)
	auth.POST("/resetPassword", d.Auth.ResetPassword, d.MW.Require)

	contact := api.Group("/Contact")
	contact.POST("/create", d.Contact.Create)
	contact.GET("/getContacts", d.Contact.List, d.MW.Require)
	contact.GET("/getContact", d.Contact.Get, d.MW.Require)
	contact.DELETE("/deleteContact", d.Contact.Delete, d.MW.Require)
	contact.GET("/search", d.Contact.Search, d.MW.Require)
}
