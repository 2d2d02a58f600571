package handlers

import (
	"speed-networking-system/middleware"
	"speed-networking-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupRoundRoutes(app *fiber.App, registrations *services.RegistrationService,
	sweep *services.SweepService, matching *services.MatchingService, sessions *services.SessionService) {

	// Lifecycle triggers. Any client may call these at any time; both are
	// safe under concurrent invocation (the sweep is idempotent, matching
	// races through the lock).
	app.Post("/rounds/:id/sweep", runSweep(sweep))
	app.Post("/rounds/:id/match", triggerMatching(matching, sessions))

	// Participant endpoints.
	secured := app.Group("/", middleware.ParticipantContextMiddleware())
	secured.Post("/rounds/:id/register", register(registrations))
	secured.Delete("/rounds/:id/register", unregister(registrations))
	secured.Post("/rounds/:id/confirm", confirmAttendance(registrations))
	secured.Post("/rounds/:id/on-my-way", onMyWay(registrations))
	secured.Post("/rounds/:id/check-in", checkIn(registrations))
	secured.Post("/rounds/:id/confirm-meeting", confirmMeeting(registrations))
	secured.Get("/rounds/:id/dashboard", dashboard(registrations, sweep))
}

func runSweep(sweep *services.SweepService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := sweep.Run(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

func triggerMatching(matching *services.MatchingService, sessions *services.SessionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		round, err := sessions.GetRound(c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		result, err := matching.TriggerMatching(round.SessionID, round.ID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(result)
	}
}

func register(registrations *services.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in services.RegisterInput
		if err := c.BodyParser(&in); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		in.RoundID = c.Params("id")
		in.ParticipantID = c.Locals("participant_id").(string)
		if name, ok := c.Locals("participant_name").(string); ok && name != "" {
			in.ParticipantName = name
		}
		reg, err := registrations.Register(in)
		if err != nil {
			return serviceError(c, err)
		}
		return c.Status(201).JSON(reg)
	}
}

func unregister(registrations *services.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		participantID := c.Locals("participant_id").(string)
		if err := registrations.Unregister(participantID, c.Params("id")); err != nil {
			return serviceError(c, err)
		}
		return c.JSON(fiber.Map{"message": "registration cancelled"})
	}
}

func confirmAttendance(registrations *services.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		participantID := c.Locals("participant_id").(string)
		reg, err := registrations.ConfirmAttendance(participantID, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(reg)
	}
}

func onMyWay(registrations *services.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		participantID := c.Locals("participant_id").(string)
		reg, err := registrations.OnMyWay(participantID, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(reg)
	}
}

func checkIn(registrations *services.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			Code string `json:"code"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		participantID := c.Locals("participant_id").(string)
		reg, err := registrations.CheckIn(participantID, c.Params("id"), body.Code)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(reg)
	}
}

func confirmMeeting(registrations *services.RegistrationService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		participantID := c.Locals("participant_id").(string)
		reg, err := registrations.ConfirmMeeting(participantID, c.Params("id"))
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(reg)
	}
}

// dashboard runs the status sweep before reading, so a poll is all it takes
// for time-based transitions to land even if no scheduler ever fires.
func dashboard(registrations *services.RegistrationService, sweep *services.SweepService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roundID := c.Params("id")
		if _, err := sweep.Run(roundID); err != nil {
			return serviceError(c, err)
		}
		participantID := c.Locals("participant_id").(string)
		view, err := registrations.Dashboard(participantID, roundID)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(view)
	}
}
