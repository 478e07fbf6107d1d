// handlers/progression_routes.go
package handlers

import (
	"study-progress-system/middleware"
	"study-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupProgressionRoutes(r fiber.Router, s Services) {
	r.Get("/user/progress", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		view, err := s.Progression.GetProgress(userID)
		if err != nil {
			return respondError(c, err)
		}
		rank, err := s.Leaderboard.RankOf(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"progress": view,
			"rank":     rank,
		})
	})

	r.Get("/user/achievements", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		agg, err := s.Progression.EnsureUserPoints(s.Progression.DB, userID)
		if err != nil {
			return respondError(c, err)
		}
		list, err := s.Achievements.ListForUser(userID, agg)
		if err != nil {
			return respondError(c, err)
		}
		unlocked := 0
		for _, a := range list {
			if a.Unlocked {
				unlocked++
			}
		}
		return c.JSON(fiber.Map{
			"achievements": list,
			"unlocked":     unlocked,
			"total":        len(list),
		})
	})

	r.Put("/user/settings", func(c *fiber.Ctx) error {
		var in services.SettingsInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		u, err := s.Users.UpdateSettings(middleware.UserID(c), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	})

	r.Get("/leaderboard", func(c *fiber.Ctx) error {
		entries, err := s.Leaderboard.Top(c.UserContext(), c.QueryInt("limit", services.DefaultLeaderboardSize))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"leaderboard": entries})
	})
}
