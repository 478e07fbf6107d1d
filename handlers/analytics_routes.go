package handlers

import (
	"time"

	"study-progress-system/middleware"
	"study-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupAnalyticsRoutes(r fiber.Router, a *services.AnalyticsService) {
	g := r.Group("/analytics")

	g.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := a.UserStats(middleware.UserID(c), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(stats)
	})

	g.Get("/summary", func(c *fiber.Ctx) error {
		summary, err := a.DashboardSummary(middleware.UserID(c), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(summary)
	})

	g.Get("/recommendations", func(c *fiber.Ctx) error {
		tips, err := a.Recommendations(middleware.UserID(c), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"recommendations": tips})
	})

	g.Get("/subjects", func(c *fiber.Ctx) error {
		days := c.QueryInt("days", services.DefaultAnalyticsDays)
		subjects, err := a.SubjectBreakdown(middleware.UserID(c), time.Now().UTC().AddDate(0, 0, -days))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"subjects": subjects, "days": days})
	})

	g.Get("/priorities", func(c *fiber.Ctx) error {
		priorities, err := a.PriorityCompletion(middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"priorities": priorities})
	})

	g.Get("/daily", func(c *fiber.Ctx) error {
		series, err := a.DailySeries(middleware.UserID(c), c.QueryInt("days", 7), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"daily": series})
	})

	g.Get("/weekday", func(c *fiber.Ctx) error {
		pattern, err := a.WeekdayPattern(middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"weekdays": pattern})
	})

	g.Get("/monthly", func(c *fiber.Ctx) error {
		series, err := a.MonthlySeries(middleware.UserID(c), c.QueryInt("months", services.DefaultSeriesMonths), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"monthly": series})
	})

	g.Get("/focus", func(c *fiber.Ctx) error {
		trend, err := a.FocusTrend(middleware.UserID(c), c.QueryInt("limit", 7))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"focus": trend})
	})

	g.Get("/goals", func(c *fiber.Ctx) error {
		goals, err := a.Goals(middleware.UserID(c), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(goals)
	})
}
