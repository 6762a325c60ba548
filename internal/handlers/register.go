package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"medisync/internal/config"
	"medisync/internal/database"
	"medisync/internal/platform/account"
)

func RegisterAccount(c *fiber.Ctx) error {
	s := services(c)

	type RegisterInput struct {
		Email          string  `json:"email" validate:"required,email"`
		Username       string  `json:"username" validate:"required,min=3"`
		Password       string  `json:"password" validate:"required,min=6"`
		Name           string  `json:"name" validate:"required"`
		LastName       *string `json:"lastName"`
		SecretQuestion string  `json:"secretQuestion" validate:"required"`
		SecretAnswer   string  `json:"secretAnswer" validate:"required"`
		Role           string  `json:"role"`
	}

	var input RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}
	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Missing or invalid registration fields"})
	}

	role := database.Role(input.Role)
	if input.Role != "" {
		if !role.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Unknown role"})
		}
		// Only an administrator may create non-patient accounts.
		if role != database.RolePatient {
			p, err := s.Sessions.Authenticate(c)
			if err != nil || p.Role != database.RoleAdministrator {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"success": false, "message": "Administrator session required"})
			}
		}
	}

	cred, identity, err := s.Accounts.Register(account.RegisterInput{
		Email:          input.Email,
		Username:       input.Username,
		Password:       input.Password,
		Name:           input.Name,
		LastName:       input.LastName,
		SecretQuestion: input.SecretQuestion,
		SecretAnswer:   input.SecretAnswer,
		Role:           role,
	})
	if err != nil {
		switch {
		case errors.Is(err, account.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "Username already in use"})
		case errors.Is(err, account.ErrEmailTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"success": false, "message": "Email already in use"})
		}
		log.Errorf("register: %v", err)
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"user": fiber.Map{
			"id":       identity.ID,
			"email":    identity.Email,
			"username": cred.Username,
			"name":     identity.Name,
			"lastName": identity.LastName,
			"role":     cred.Role,
		},
	})
}
