package handlers

import (
	"github.com/gofiber/fiber/v2"

	"medisync/internal/middleware"
	"medisync/internal/platform/account"
	"medisync/internal/platform/auth"
	"medisync/internal/platform/recovery"
	"medisync/internal/session"
)

// Services bundles the account-access core for the handlers. It rides
// on the request locals the same way the config and db handles do.
type Services struct {
	Accounts *account.Service
	Auth     *auth.Service
	Recovery *recovery.Service
	Sessions *session.Manager
}

func Register(app *fiber.App, s *Services) {
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("services", s)
		return c.Next()
	})

	api := app.Group("/api")
	api.Post("/login", Login)
	api.Post("/register", RegisterAccount)
	api.Post("/logout", middleware.SessionAuth(s.Sessions), Logout)

	forgot := api.Group("/forgot-password")
	forgot.Post("/validate-user", ValidateUser)
	forgot.Get("/get-question", GetQuestion)
	forgot.Post("/get-question", GetQuestion)
	forgot.Post("/validate-answer", ValidateAnswer)
	forgot.Post("/reset-password", ResetPassword)

	profile := api.Group("/profile", middleware.SessionAuth(s.Sessions))
	profile.Get("/me", GetProfile)
	profile.Put("/me", UpdateProfile)
	profile.Delete("/me", DeleteProfile)
	profile.Post("/change-password", ChangePassword)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Not found",
		})
	})
}

func services(c *fiber.Ctx) *Services {
	return c.Locals("services").(*Services)
}

func principal(c *fiber.Ctx) session.Principal {
	return c.Locals("principal").(session.Principal)
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}
