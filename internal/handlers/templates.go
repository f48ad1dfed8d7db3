package handlers

import (
	"bytes"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"certificate-service/internal/fonts"
	"certificate-service/internal/models"
	"certificate-service/internal/service"
)

// ListTemplates returns all templates, or only active ones with ?active=true
func (h *Handlers) ListTemplates(c *fiber.Ctx) error {
	list, err := h.Templates.List(c.UserContext(), c.QueryBool("active"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

func (h *Handlers) GetTemplate(c *fiber.Ctx) error {
	tpl, err := h.Templates.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(tpl)
}

func (h *Handlers) CreateTemplate(c *fiber.Ctx) error {
	var tpl models.Template
	if err := c.BodyParser(&tpl); err != nil {
		return badBody(c, err)
	}
	resp, err := h.Templates.Create(c.UserContext(), &tpl)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (h *Handlers) UpdateTemplate(c *fiber.Ctx) error {
	var tpl models.Template
	if err := c.BodyParser(&tpl); err != nil {
		return badBody(c, err)
	}
	resp, err := h.Templates.Update(c.UserContext(), c.Params("id"), &tpl)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}

func (h *Handlers) DeleteTemplate(c *fiber.Ctx) error {
	if err := h.Templates.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// previewRequest reads ?scale, ?selected, ?background and a JSON
// ?values object.
func previewRequest(c *fiber.Ctx) (service.PreviewRequest, error) {
	req := service.PreviewRequest{
		Scale:      c.QueryFloat("scale", 1),
		SelectedID: c.Query("selected"),
	}
	if bg := c.Query("background"); bg != "" {
		show := c.QueryBool("background")
		req.BackgroundVisible = &show
	}
	if raw := c.Query("values"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Values); err != nil {
			return req, err
		}
	}
	return req, nil
}

// PreviewTemplate returns the interactive layout as JSON
func (h *Handlers) PreviewTemplate(c *fiber.Ctx) error {
	req, err := previewRequest(c)
	if err != nil {
		return badBody(c, err)
	}
	il, err := h.Templates.Preview(c.UserContext(), c.Params("id"), req, fonts.NewSession(FontURLPrefix))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(il)
}

// PreviewTemplateHTML returns the interactive layout as an HTML page
func (h *Handlers) PreviewTemplateHTML(c *fiber.Ctx) error {
	req, err := previewRequest(c)
	if err != nil {
		return badBody(c, err)
	}
	il, err := h.Templates.Preview(c.UserContext(), c.Params("id"), req, fonts.NewSession(FontURLPrefix))
	if err != nil {
		return fail(c, err)
	}
	var buf bytes.Buffer
	if err := il.WriteHTML(&buf); err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// RenderTemplatePDF renders the template with the posted values as a PDF
func (h *Handlers) RenderTemplatePDF(c *fiber.Ctx) error {
	var req models.RenderRequest
	if err := parseOptional(c, &req); err != nil {
		return badBody(c, err)
	}
	id := c.Params("id")
	out, err := h.Render.RenderVector(c.UserContext(), id, req.FieldValues, req.BackgroundVisible)
	if err != nil {
		return fail(c, err)
	}
	return sendOutput(c, out, "certificate_"+id+".pdf")
}

// RenderTemplateImage renders the template with the posted values as a
// 300 DPI bitmap
func (h *Handlers) RenderTemplateImage(c *fiber.Ctx) error {
	var req models.RenderRequest
	if err := parseOptional(c, &req); err != nil {
		return badBody(c, err)
	}
	if req.Format == "" {
		req.Format = c.Query("format")
	}
	id := c.Params("id")
	out, err := h.Render.RenderRaster(c.UserContext(), id, req.FieldValues, req.BackgroundVisible, req.Format)
	if err != nil {
		return fail(c, err)
	}
	return sendOutput(c, out, "certificate_"+id+"."+extension(out.ContentType))
}

// RenderTemplateBatch renders the template for many value sets
func (h *Handlers) RenderTemplateBatch(c *fiber.Ctx) error {
	var req service.BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	resp, err := h.Render.RenderBatch(c.UserContext(), c.Params("id"), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(resp)
}
