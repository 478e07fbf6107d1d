package handlers

import (
	"study-progress-system/middleware"
	"study-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupSessionRoutes(r fiber.Router, sessions *services.SessionService) {
	r.Post("/sessions", func(c *fiber.Ctx) error {
		var in services.LogSessionInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		res, err := sessions.Log(c.UserContext(), middleware.UserID(c), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	})

	r.Get("/sessions", func(c *fiber.Ctx) error {
		list, err := sessions.List(middleware.UserID(c), c.QueryInt("limit", 50))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"sessions": list})
	})

	r.Post("/sessions/pomodoro", func(c *fiber.Ctx) error {
		var in services.StartPomodoroInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		session, err := sessions.StartPomodoro(middleware.UserID(c), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(session)
	})

	r.Post("/sessions/:id/complete", func(c *fiber.Ctx) error {
		var in services.CompleteSessionInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		res, err := sessions.Complete(c.UserContext(), middleware.UserID(c), c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	r.Patch("/sessions/:id/notes", func(c *fiber.Ctx) error {
		var body struct {
			Notes string `json:"notes"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c, err)
		}
		session, err := sessions.UpdateNotes(middleware.UserID(c), c.Params("id"), body.Notes)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(session)
	})
}
