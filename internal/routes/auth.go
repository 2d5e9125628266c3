package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/flipover/flipover_auth/internal/auth"
	"github.com/flipover/flipover_auth/internal/middleware"
)

// RegisterAuthRoutes wires the credential flow endpoints.
func RegisterAuthRoutes(app *fiber.App, h *auth.Handler, tokens *auth.TokenManager) {
	root := app.Group("/auth")

	api := root.Group("/api")
	api.Post("/phoneNumber/signup", h.PhoneSignup)
	api.Post("/phoneNumber/verify", h.PhoneVerify)
	api.Post("/email/signup", h.EmailSignup)
	api.Post("/email/signin", h.Login)
	api.Post("/email/verify", h.EmailVerify)
	api.Put("/forgot-password", h.ForgotPassword)
	api.Put("/reset-password/:token", h.ResetPassword)
	api.Get("/me", middleware.JWTAuth(tokens), h.Me)

	google := root.Group("/google-auth")
	google.Post("/login", h.GoogleLogin)
	google.Post("/signup", h.GoogleSignup)
}
