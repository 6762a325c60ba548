package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"medisync/internal/config"
	"medisync/internal/platform/recovery"
)

// The recovery steps hand a short-lived single-use token back and forth
// instead of a raw credential id; see the recovery service.

func ValidateUser(c *fiber.Ctx) error {
	s := services(c)

	type ValidateUserInput struct {
		Identifier string `json:"identifier" validate:"required"`
	}

	var input ValidateUserInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}
	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Identifier is required"})
	}

	credentialID, token, err := s.Recovery.ValidateUser(input.Identifier)
	if err != nil {
		if errors.Is(err, recovery.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "No account matches that identifier"})
		}
		log.Errorf("recovery validate-user: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"credentialId":   credentialID,
		"recovery_token": token,
	})
}

func GetQuestion(c *fiber.Ctx) error {
	s := services(c)

	token := c.Query("recovery_token")
	if token == "" {
		type GetQuestionInput struct {
			RecoveryToken string `json:"recovery_token"`
		}
		var input GetQuestionInput
		if err := c.BodyParser(&input); err == nil {
			token = input.RecoveryToken
		}
	}
	if token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Recovery token is required"})
	}

	question, err := s.Recovery.Question(token)
	if err != nil {
		switch {
		case errors.Is(err, recovery.ErrBadToken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Malformed recovery token"})
		case errors.Is(err, recovery.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Recovery token not found or expired"})
		}
		log.Errorf("recovery get-question: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true, "question": question})
}

func ValidateAnswer(c *fiber.Ctx) error {
	s := services(c)

	type ValidateAnswerInput struct {
		RecoveryToken string `json:"recovery_token" validate:"required"`
		Answer        string `json:"answer" validate:"required"`
	}

	var input ValidateAnswerInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}
	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Recovery token and answer are required"})
	}

	resetToken, err := s.Recovery.ValidateAnswer(input.RecoveryToken, input.Answer)
	if err != nil {
		switch {
		case errors.Is(err, recovery.ErrBadToken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Malformed recovery token"})
		case errors.Is(err, recovery.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Recovery token not found or expired"})
		case errors.Is(err, recovery.ErrIncorrectAnswer):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"success": false, "message": "Incorrect answer"})
		}
		log.Errorf("recovery validate-answer: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true, "recovery_token": resetToken})
}

func ResetPassword(c *fiber.Ctx) error {
	s := services(c)

	type ResetPasswordInput struct {
		RecoveryToken string `json:"recovery_token" validate:"required"`
		NewPassword   string `json:"newPassword" validate:"required"`
	}

	var input ResetPasswordInput
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid input"})
	}
	if err := config.Validate.Struct(input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Recovery token and new password are required"})
	}

	if err := s.Recovery.ResetPassword(input.RecoveryToken, input.NewPassword); err != nil {
		switch {
		case errors.Is(err, recovery.ErrPasswordTooShort):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Password must be at least 6 characters"})
		case errors.Is(err, recovery.ErrBadToken):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Malformed recovery token"})
		case errors.Is(err, recovery.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"success": false, "message": "Recovery token not found or expired"})
		}
		log.Errorf("recovery reset-password: %v", err)
		return internalError(c)
	}

	return c.JSON(fiber.Map{"success": true})
}
