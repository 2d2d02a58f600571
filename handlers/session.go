package handlers

import (
	"speed-networking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSessionRoutes(app *fiber.App, sessions *services.SessionService) {
	// Organizer endpoints. The gateway enforces the organizer role; this
	// service only sees pre-authenticated traffic.
	app.Post("/sessions", createSession(sessions))
	app.Post("/sessions/:id/publish", publishSession(sessions))
	app.Post("/sessions/:id/rounds", createRound(sessions))

	app.Get("/sessions/:id", getSession(sessions))
	app.Get("/sessions/slug/:slug", getSessionBySlug(sessions))
	app.Get("/rounds/:id", getRound(sessions))
}

func createSession(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.CreateSessionInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		session, err := sessions.CreateSession(in)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(session)
	}
}

func publishSession(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.PublishSession(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(session)
	}
}

func createRound(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.CreateRoundInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		round, err := sessions.CreateRound(c.Params("id"), in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(201).JSON(round)
	}
}

func getSession(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.GetSession(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(session)
	}
}

func getSessionBySlug(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		session, err := sessions.GetSessionBySlug(c.Params("slug"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(session)
	}
}

func getRound(sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		round, err := sessions.GetRound(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(round)
	}
}
