package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"medisync/internal/database"
	"medisync/internal/platform/account"
)

func GetProfile(c *fiber.Ctx) error {
	s := services(c)
	p := principal(c)

	profile, err := s.Accounts.Profile(p.CredentialID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, account.ErrInconsistent) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Account records not found"})
		}
		log.Errorf("profile: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true, "user": profile})
}

func UpdateProfile(c *fiber.Ctx) error {
	s := services(c)
	p := principal(c)

	type UpdateInput struct {
		Name      *string    `json:"name"`
		LastName  *string    `json:"lastName"`
		BirthDate *time.Time `json:"birthDate"`
		Phone     *string    `json:"phone"`
		Address   *string    `json:"address"`
	}

	var input UpdateInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}
	if input.Name != nil && *input.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Name cannot be empty"})
	}

	profile, err := s.Accounts.UpdateProfile(p.CredentialID, account.ProfileUpdate{
		Name:      input.Name,
		LastName:  input.LastName,
		BirthDate: input.BirthDate,
		Phone:     input.Phone,
		Address:   input.Address,
	})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, account.ErrInconsistent) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Account records not found"})
		}
		log.Errorf("update profile: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true, "user": profile})
}

func DeleteProfile(c *fiber.Ctx) error {
	s := services(c)
	p := principal(c)

	if err := s.Accounts.DeleteAccount(p.CredentialID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Account records not found"})
		}
		log.Errorf("delete account: %v", err)
		return internalError(c)
	}

	// A failed session destroy must not turn a completed deletion into
	// an error for the caller.
	if err := s.Sessions.Destroy(c); err != nil {
		log.Errorf("delete account: destroy session: %v", err)
	}

	return c.JSON(fiber.Map{"success": true})
}
