package handlers

import (
	"time"

	"study-progress-system/middleware"
	"study-progress-system/models"
	"study-progress-system/services"

	"github.com/gofiber/fiber/v2"
)

func SetupTaskRoutes(r fiber.Router, tasks *services.TaskService) {
	r.Post("/tasks", func(c *fiber.Ctx) error {
		var in services.CreateTaskInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		task, err := tasks.Create(middleware.UserID(c), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(task)
	})

	r.Get("/tasks", func(c *fiber.Ctx) error {
		list, err := tasks.List(middleware.UserID(c), services.TaskFilter{
			Status:  models.TaskStatus(c.Query("status")),
			Subject: c.Query("subject"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"tasks": list})
	})

	r.Get("/tasks/:id", func(c *fiber.Ctx) error {
		task, err := tasks.Get(middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(task)
	})

	r.Put("/tasks/:id", func(c *fiber.Ctx) error {
		var in services.UpdateTaskInput
		if err := c.BodyParser(&in); err != nil {
			return badBody(c, err)
		}
		task, err := tasks.Update(middleware.UserID(c), c.Params("id"), in)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(task)
	})

	r.Delete("/tasks/:id", func(c *fiber.Ctx) error {
		if err := tasks.Delete(middleware.UserID(c), c.Params("id")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/tasks/:id/start", func(c *fiber.Ctx) error {
		task, err := tasks.Start(middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(task)
	})

	r.Post("/tasks/:id/complete", func(c *fiber.Ctx) error {
		res, err := tasks.Complete(c.UserContext(), middleware.UserID(c), c.Params("id"), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	r.Post("/tasks/:id/reopen", func(c *fiber.Ctx) error {
		task, err := tasks.Reopen(c.UserContext(), middleware.UserID(c), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(task)
	})

	r.Post("/tasks/:id/toggle", func(c *fiber.Ctx) error {
		res, err := tasks.Toggle(c.UserContext(), middleware.UserID(c), c.Params("id"), time.Now())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(res)
	})

	r.Patch("/tasks/:id/priority", func(c *fiber.Ctx) error {
		var body struct {
			Priority models.TaskPriority `json:"priority"`
		}
		if err := c.BodyParser(&body); err != nil {
			return badBody(c, err)
		}
		task, err := tasks.UpdatePriority(middleware.UserID(c), c.Params("id"), body.Priority)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(task)
	})
}
