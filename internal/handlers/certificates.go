package handlers

import (
	"github.com/gofiber/fiber/v2"

	"certificate-service/internal/models"
	"certificate-service/internal/service"
)

// ListCertificates returns issued certificates, filtered by ?templateId
func (h *Handlers) ListCertificates(c *fiber.Ctx) error {
	list, err := h.Certificates.List(c.UserContext(), c.Query("templateId"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

func (h *Handlers) GetCertificate(c *fiber.Ctx) error {
	cert, err := h.Certificates.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cert)
}

// IssueCertificate creates a certificate for a template
func (h *Handlers) IssueCertificate(c *fiber.Ctx) error {
	var req service.IssueRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c, err)
	}
	cert, err := h.Certificates.Issue(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(cert)
}

func (h *Handlers) UpdateCertificate(c *fiber.Ctx) error {
	var patch models.CertificatePatch
	if err := c.BodyParser(&patch); err != nil {
		return badBody(c, err)
	}
	cert, err := h.Certificates.Update(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(cert)
}

func (h *Handlers) DeleteCertificate(c *fiber.Ctx) error {
	if err := h.Certificates.Delete(c.UserContext(), c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CertificatePDF renders an issued certificate as a PDF
func (h *Handlers) CertificatePDF(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.Render.RenderCertificate(c.UserContext(), id, service.KindPDF, "")
	if err != nil {
		return fail(c, err)
	}
	return sendOutput(c, out, "certificate_"+id+".pdf")
}

// CertificateImage renders an issued certificate as an image (?format=jpeg|png|webp)
func (h *Handlers) CertificateImage(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.Render.RenderCertificate(c.UserContext(), id, service.KindImage, c.Query("format"))
	if err != nil {
		return fail(c, err)
	}
	return sendOutput(c, out, "certificate_"+id+"."+extension(out.ContentType))
}
