package handlers

import (
	"github.com/gofiber/fiber/v2"

	"certificate-service/internal/service"
)

// OpenEditor starts an editing session for the template
func (h *Handlers) OpenEditor(c *fiber.Ctx) error {
	view, err := h.Editor.Open(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(view)
}

func (h *Handlers) GetEditor(c *fiber.Ctx) error {
	view, err := h.Editor.View(c.Params("session"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// EditorCommand applies one pointer, key or edit command
func (h *Handlers) EditorCommand(c *fiber.Ctx) error {
	var cmd service.EditorCommand
	if err := c.BodyParser(&cmd); err != nil {
		return badBody(c, err)
	}
	view, err := h.Editor.Apply(c.UserContext(), c.Params("session"), cmd)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(view)
}

// SaveEditor writes the session's fields to its template
func (h *Handlers) SaveEditor(c *fiber.Ctx) error {
	resp, err := h.Editor.Save(c.UserContext(), c.Params("session"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *Handlers) CloseEditor(c *fiber.Ctx) error {
	h.Editor.Close(c.Params("session"))
	return c.SendStatus(fiber.StatusNoContent)
}
