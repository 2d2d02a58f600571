package handlers

import (
	"errors"
	"log"

	"speed-networking-system/services"

	"github.com/gofiber/fiber/v2"
)

// serviceError maps engine sentinel errors onto HTTP responses. Guard
// failures surface verbatim so clients can show them; anything unexpected
// becomes a generic retryable 500 with no detail leaked.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrRoundNotFound),
		errors.Is(err, services.ErrSessionNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrWindowClosed),
		errors.Is(err, services.ErrTooLateToCancel),
		errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrRoundFull),
		errors.Is(err, services.ErrRoundNotStarted),
		errors.Is(err, services.ErrInvalidCheckinCode),
		errors.Is(err, services.ErrPartnerNotReady),
		errors.Is(err, services.ErrNotMatched):
		return c.Status(400).JSON(fiber.Map{"error": err.Error()})
	}
	log.Printf("DB Error: %v", err)
	return c.Status(500).JSON(fiber.Map{"error": "database error"})
}
