package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"medisync/internal/config"
	"medisync/internal/platform/account"
	"medisync/internal/platform/auth"
	"medisync/internal/session"
)

func Login(c *fiber.Ctx) error {
	s := services(c)

	type LoginInput struct {
		Identifier string `json:"identifier" validate:"required"`
		Password   string `json:"password" validate:"required"`
	}

	var input LoginInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}
	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Identifier and password are required"})
	}

	result, err := s.Auth.Login(input.Identifier, input.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Account locked"})
		case errors.Is(err, auth.ErrAttemptLocked):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid credentials", "locked": true})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid credentials"})
		}
		log.Errorf("login: %v", err)
		return internalError(c)
	}

	if err := s.Sessions.Establish(c, session.Principal{
		IdentityID:   result.IdentityID,
		CredentialID: result.CredentialID,
		Username:     result.Username,
		Role:         result.Role,
	}); err != nil {
		log.Errorf("login: establish session: %v", err)
		return internalError(c)
	}

	profile, err := s.Accounts.Profile(result.CredentialID)
	if err != nil {
		log.Errorf("login: load profile: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true, "user": userSummary(profile)})
}

func Logout(c *fiber.Ctx) error {
	s := services(c)

	if err := s.Sessions.Destroy(c); err != nil {
		log.Errorf("logout: destroy session: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true})
}

func ChangePassword(c *fiber.Ctx) error {
	s := services(c)
	p := principal(c)

	type ChangePasswordInput struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=6"`
	}

	var input ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}
	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "New password must be at least 6 characters"})
	}

	if err := s.Auth.ChangePassword(p.CredentialID, input.CurrentPassword, input.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrAccountLocked):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Account locked"})
		case errors.Is(err, auth.ErrAttemptLocked):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid credentials", "locked": true})
		case errors.Is(err, auth.ErrInvalidCredentials):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Invalid credentials"})
		}
		log.Errorf("change password: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true})
}

func userSummary(p *account.Profile) fiber.Map {
	return fiber.Map{
		"id":       p.ID,
		"email":    p.Email,
		"username": p.Username,
		"name":     p.Name,
		"lastName": p.LastName,
		"role":     p.Role,
	}
}
