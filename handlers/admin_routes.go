package handlers

import (
	"log/slog"

	"study-progress-system/middleware"
	"study-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

type grantPointsRequest struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
	Reason string `json:"reason"`
}

func SetupAdminRoutes(r fiber.Router, s Services) {
	r.Post("/points/grant", func(c *fiber.Ctx) error {
		var body grantPointsRequest
		if err := c.BodyParser(&body); err != nil {
			return badBody(c, err)
		}
		if body.UserID == "" || body.Points == 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request",
				"cause": "user_id and a non-zero points value are required",
			})
		}
		res, err := s.Progression.GrantPoints(c.UserContext(), body.UserID, body.Points, body.Reason)
		if err != nil {
			return respondError(c, err)
		}
		slog.Info("admin granted points", "admin_id", middleware.UserID(c), "user_id", body.UserID, "points", body.Points)
		return c.JSON(res)
	})

	// multipart/form-data with an optional "icon" file
	r.Post("/achievements", func(c *fiber.Ctx) error {
		var in services.AchievementInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		icon, err := c.FormFile("icon")
		if err != nil {
			icon = nil
		}
		a, err := s.Achievements.Create(c.UserContext(), in, icon)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	})

	r.Put("/achievements/:id", func(c *fiber.Ctx) error {
		var in services.AchievementUpdate
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		a, err := s.Achievements.Update(c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(a)
	})
}
