package handlers

import (
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"certificate-service/internal/errs"
	"certificate-service/internal/fonts"
	"certificate-service/internal/service"
)

func readUpload(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	if fh.Size > limit {
		return nil, errs.Invalid("upload", "file %q is too large", fh.Filename)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, limit+1))
}

// ============ FONTS ============

// ListFonts returns built-in and uploaded fonts
func (h *Handlers) ListFonts(c *fiber.Ctx) error {
	list, err := h.Fonts.Catalog(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(list)
}

// UploadFont stores a .ttf file from the "font" form field
func (h *Handlers) UploadFont(c *fiber.Ctx) error {
	fh, err := c.FormFile("font")
	if err != nil {
		return badBody(c, err)
	}
	data, err := readUpload(fh, fonts.MaxFontSize)
	if err != nil {
		return fail(c, err)
	}
	font, err := h.Fonts.Upload(c.UserContext(), fh.Filename, data)
	if err != nil {
		return fail(c, err)
	}
	// A replaced font must not be served from earlier renders.
	h.Render.Invalidate(c.UserContext())
	return c.Status(fiber.StatusCreated).JSON(font)
}

// DeleteFont removes an uploaded font by filename
func (h *Handlers) DeleteFont(c *fiber.Ctx) error {
	if err := h.Fonts.Delete(c.UserContext(), c.Params("filename")); err != nil {
		return fail(c, err)
	}
	h.Render.Invalidate(c.UserContext())
	return c.SendStatus(fiber.StatusNoContent)
}

// ServeFont returns font bytes for @font-face rules
func (h *Handlers) ServeFont(c *fiber.Ctx) error {
	data, err := h.Fonts.Open(c.UserContext(), c.Params("filename"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "font/ttf")
	c.Set(fiber.HeaderCacheControl, "public, max-age=3600")
	return c.Send(data)
}

// ============ ASSETS ============

// UploadAsset stores an image from the "file" form field
func (h *Handlers) UploadAsset(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badBody(c, err)
	}
	data, err := readUpload(fh, service.MaxAssetSize)
	if err != nil {
		return fail(c, err)
	}
	asset, err := h.Assets.Upload(c.UserContext(), fh.Filename, data)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

// ServeAsset returns a stored image
func (h *Handlers) ServeAsset(c *fiber.Ctx) error {
	data, contentType, err := h.Assets.Open(c.UserContext(), c.Params("*"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, contentType)
	return c.Send(data)
}

func (h *Handlers) DeleteAsset(c *fiber.Ctx) error {
	if err := h.Assets.Delete(c.UserContext(), c.Params("*")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ============ SETTINGS ============

func (h *Handlers) GetSettings(c *fiber.Ctx) error {
	s, err := h.Settings.Get(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}

func (h *Handlers) UpdateSettings(c *fiber.Ctx) error {
	current, err := h.Settings.Get(c.UserContext())
	if err != nil {
		return fail(c, err)
	}
	// Members missing from the body keep their current value.
	if err := c.BodyParser(&current); err != nil {
		return badBody(c, err)
	}
	s, err := h.Settings.Update(c.UserContext(), current)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(s)
}
