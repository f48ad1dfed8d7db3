// Package handlers exposes the certificate service over HTTP.
package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"k8s.io/klog/v2"

	"certificate-service/internal/cache"
	"certificate-service/internal/errs"
	"certificate-service/internal/fonts"
	"certificate-service/internal/models"
	"certificate-service/internal/service"
)

// Version is reported by the health endpoints.
const Version = "1.0.0"

// FontURLPrefix is where uploaded fonts are served.
const FontURLPrefix = "/api/fonts/"

var startTime = time.Now()

// Handlers holds the services behind the HTTP API.
type Handlers struct {
	Templates    *service.TemplateService
	Certificates *service.CertificateService
	Settings     *service.SettingsService
	Render       *service.RenderService
	Assets       *service.AssetService
	Editor       *service.EditorService
	Fonts        *fonts.Service

	AssetCache  *cache.Assets
	RenderCache cache.RenderCache
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status:  "healthy",
		Version: Version,
		Uptime:  time.Since(startTime).String(),
	})
}

// GetCacheStats returns cache statistics
func (h *Handlers) GetCacheStats(c *fiber.Ctx) error {
	stats := h.AssetCache.Stats()
	if counter, ok := h.RenderCache.(interface{ ItemCount() int }); ok {
		stats["render_items"] = counter.ItemCount()
	}
	return c.JSON(stats)
}

// ClearCache drops cached assets and renders
func (h *Handlers) ClearCache(c *fiber.Ctx) error {
	h.Render.Invalidate(c.UserContext())
	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared",
	})
}

// fail maps err onto a status code and the JSON error body.
func fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Internal error"
	// A fatal asset error wraps the storage cause, which may itself be a
	// not-found, so the render outcome is matched first.
	switch {
	case errors.Is(err, errs.ErrAssetFatal):
		status, msg = fiber.StatusUnprocessableEntity, "Required asset unavailable"
	case errors.Is(err, errs.ErrConstraint):
		status, msg = fiber.StatusConflict, "Conflict"
	case errors.Is(err, errs.ErrNotFound):
		status, msg = fiber.StatusNotFound, "Not found"
	case errors.Is(err, errs.ErrInvalidInput):
		status, msg = fiber.StatusBadRequest, "Invalid request"
	}
	if status == fiber.StatusInternalServerError {
		klog.Errorf("%s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{
		"error":   msg,
		"details": err.Error(),
	})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// parseOptional parses the body into out unless it is empty.
func parseOptional(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

// sendOutput writes a render. Clients asking for JSON get base64.
func sendOutput(c *fiber.Ctx, out *service.Output, filename string) error {
	if len(out.Warnings) > 0 {
		c.Set("X-Render-Warnings", strings.Join(out.Warnings, "; "))
	}
	if c.Get(fiber.HeaderAccept) == fiber.MIMEApplicationJSON {
		return c.JSON(fiber.Map{
			"success":      true,
			"content_type": out.ContentType,
			"data_base64":  base64.StdEncoding.EncodeToString(out.Data),
			"filename":     filename,
			"warnings":     out.Warnings,
		})
	}
	c.Set(fiber.HeaderContentType, out.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%s", filename))
	return c.Send(out.Data)
}

func extension(contentType string) string {
	switch contentType {
	case "application/pdf":
		return "pdf"
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}
