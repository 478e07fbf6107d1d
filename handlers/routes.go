package handlers

import (
	"errors"
	"log/slog"

	"study-progress-system/middleware"
	"study-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

// Services is everything the HTTP layer calls into
type Services struct {
	Users        *services.UserService
	Progression  *services.ProgressionService
	Achievements *services.AchievementService
	Tasks        *services.TaskService
	Sessions     *services.SessionService
	Analytics    *services.AnalyticsService
	Leaderboard  *services.LeaderboardService
}

// SetupRoutes mounts every route. The gateway token check is applied by the caller.
func SetupRoutes(app *fiber.App, s Services) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	user := app.Group("/", middleware.UserContextMiddleware(), ensureUser(s.Users))
	SetupProgressionRoutes(user, s)
	SetupTaskRoutes(user, s.Tasks)
	SetupSessionRoutes(user, s.Sessions)
	SetupAnalyticsRoutes(user, s.Analytics)

	admin := user.Group("/s/admin", middleware.RequireRole("admin"))
	SetupAdminRoutes(admin, s)
}

// ensureUser creates the local user row on first sight of an id
func ensureUser(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := users.EnsureUser(middleware.UserID(c)); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrAchievementNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrTaskAlreadyCompleted),
		errors.Is(err, services.ErrTaskNotCompleted),
		errors.Is(err, services.ErrSessionAlreadyCompleted),
		errors.Is(err, services.ErrAchievementExists),
		errors.Is(err, services.ErrCriteriaLocked):
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes the {"error","cause"} envelope
func respondError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	msg := "internal error"
	if status != fiber.StatusInternalServerError {
		msg = http4xxMessage(status)
	} else {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": msg,
		"cause": err.Error(),
	})
}

func http4xxMessage(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "invalid request"
	case fiber.StatusNotFound:
		return "not found"
	case fiber.StatusConflict:
		return "conflict"
	}
	return "request failed"
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": "invalid request body",
		"cause": err.Error(),
	})
}
