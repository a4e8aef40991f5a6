// SPDX-License-Identifier: GPL-3.0-only

package routes

import (
	"shortify-server/commons"
	"shortify-server/handlers"
	"shortify-server/middlewares"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	commons.Logger.Debug("Registering v1 routes")
	api_v1 := e.Group("/v1")

	api_v1.POST("/auth/signup", handlers.SignupHandler)
	api_v1.POST("/auth/login", handlers.LoginHandler)
	api_v1.POST("/auth/logout", handlers.LogoutHandler, middlewares.VerifySessionMiddleware)

	api_v1.POST("/forgot-password/verify-mail/:email", handlers.VerifyMailHandler)
	api_v1.POST("/forgot-password/verify-otp/:otp/:email", handlers.VerifyOTPHandler)
	api_v1.POST("/forgot-password/change-password/:email", handlers.ChangePasswordHandler)

	api_v1.GET("/users/", handlers.GetUserHandler, middlewares.VerifySessionMiddleware)
	api_v1.DELETE("/users/", handlers.DeleteAccountHandler, middlewares.VerifySessionMiddleware)
	api_v1.POST("/users/reset-password/verify-mail", handlers.ResetVerifyMailHandler, middlewares.VerifySessionMiddleware)
	api_v1.POST("/users/reset-password/verify-otp/:otp", handlers.ResetVerifyOTPHandler, middlewares.VerifySessionMiddleware)
	api_v1.POST("/users/reset-password/change-password", handlers.ResetChangePasswordHandler, middlewares.VerifySessionMiddleware)

	api_v1.POST("/urls/shorten", handlers.ShortenURLHandler, middlewares.VerifySessionMiddleware)
	api_v1.GET("/urls/my-urls", handlers.GetUserURLsHandler, middlewares.VerifySessionMiddleware)
	api_v1.DELETE("/urls/:url_id", handlers.DeleteURLHandler, middlewares.VerifySessionMiddleware)
	api_v1.GET("/urls/analytics/:short_code", handlers.GetURLAnalyticsHandler, middlewares.VerifySessionMiddleware)
	api_v1.GET("/urls/total-clicks", handlers.GetTotalClicksHandler, middlewares.VerifySessionMiddleware)

	e.GET("/:short_code", handlers.RedirectHandler)

	commons.Logger.Info("v1 routes registered successfully")
}
