package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// Register mounts the API on app.
func (h *Handlers) Register(app *fiber.App) {
	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "Certificate Service",
			"version": Version,
			"status":  "running",
		})
	})
	app.Get("/health", h.HealthCheck)

	app.Get("/assets/*", h.ServeAsset)

	api := app.Group("/api")

	// Templates
	api.Get("/templates", h.ListTemplates)
	api.Post("/templates", h.CreateTemplate)
	api.Get("/templates/:id", h.GetTemplate)
	api.Put("/templates/:id", h.UpdateTemplate)
	api.Delete("/templates/:id", h.DeleteTemplate)
	api.Get("/templates/:id/preview", h.PreviewTemplate)
	api.Get("/templates/:id/preview.html", h.PreviewTemplateHTML)
	api.Post("/templates/:id/render/pdf", h.RenderTemplatePDF)
	api.Post("/templates/:id/render/image", h.RenderTemplateImage)
	api.Post("/templates/:id/render/batch", h.RenderTemplateBatch)

	// Certificates
	api.Get("/certificates", h.ListCertificates)
	api.Post("/certificates", h.IssueCertificate)
	api.Get("/certificates/:id", h.GetCertificate)
	api.Patch("/certificates/:id", h.UpdateCertificate)
	api.Delete("/certificates/:id", h.DeleteCertificate)
	api.Get("/certificates/:id/pdf", h.CertificatePDF)
	api.Get("/certificates/:id/image", h.CertificateImage)

	// Fonts
	api.Get("/fonts", h.ListFonts)
	api.Post("/fonts", h.UploadFont)
	api.Get("/fonts/:filename", h.ServeFont)
	api.Delete("/fonts/:filename", h.DeleteFont)

	// Assets
	api.Post("/assets", h.UploadAsset)
	api.Delete("/assets/*", h.DeleteAsset)

	// Settings
	api.Get("/settings", h.GetSettings)
	api.Put("/settings", h.UpdateSettings)

	// Editor sessions
	api.Post("/templates/:id/editor", h.OpenEditor)
	api.Get("/editor/:session", h.GetEditor)
	api.Post("/editor/:session/commands", h.EditorCommand)
	api.Post("/editor/:session/save", h.SaveEditor)
	api.Delete("/editor/:session", h.CloseEditor)

	// Cache management
	api.Get("/cache/stats", h.GetCacheStats)
	api.Post("/cache/clear", h.ClearCache)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not found",
			"path":  c.Path(),
		})
	})
}
