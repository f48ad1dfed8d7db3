package service

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"certificate-service/internal/cache"
	"certificate-service/internal/errs"
	"certificate-service/internal/generator"
	"certificate-service/internal/layout"
)

// Render kinds.
const (
	KindPDF   = "pdf"
	KindImage = "image"
)

// Output is a finished render.
type Output struct {
	Data        []byte
	ContentType string
	// Optional assets that were left out
	Warnings []string
	Cached   bool
}

// RenderOptions configures the raster backend.
type RenderOptions struct {
	Quality int
	Format  string // default raster format
}

// RenderService produces PDF and raster outputs of templates and issued
// certificates.
type RenderService struct {
	templates TemplateRepository
	certs     CertificateRepository
	assets    *cache.Assets
	fonts     generator.FontSource
	cache     cache.RenderCache
	opts      RenderOptions
}

// NewRenderService wires the render path. renderCache may be nil.
func NewRenderService(templates TemplateRepository, certs CertificateRepository, assets *cache.Assets,
	fontSrc generator.FontSource, renderCache cache.RenderCache, opts RenderOptions) *RenderService {
	return &RenderService{
		templates: templates,
		certs:     certs,
		assets:    assets,
		fonts:     fontSrc,
		cache:     renderCache,
		opts:      opts,
	}
}

// RenderVector renders the template with values as a PDF. A nil
// backgroundVisible shows the background.
func (s *RenderService) RenderVector(ctx context.Context, templateID string, values map[string]string, backgroundVisible *bool) (*Output, error) {
	return s.render(ctx, KindPDF, templateID, values, backgroundVisible, "")
}

// RenderRaster renders the template with values as a 300 DPI bitmap.
// An empty format uses the configured default.
func (s *RenderService) RenderRaster(ctx context.Context, templateID string, values map[string]string, backgroundVisible *bool, format string) (*Output, error) {
	if format == "" {
		format = s.opts.Format
	}
	f, ok := generator.NormalizeFormat(format)
	if !ok {
		return nil, errs.Invalid("render.raster", "unsupported image format %q", format)
	}
	return s.render(ctx, KindImage, templateID, values, backgroundVisible, f)
}

// RenderCertificate renders an issued certificate with its stored values
// and background choice.
func (s *RenderService) RenderCertificate(ctx context.Context, certID, kind, format string) (*Output, error) {
	cert, err := s.certs.Get(ctx, certID)
	if err != nil {
		return nil, err
	}
	show := cert.BackgroundVisible
	switch kind {
	case KindPDF:
		return s.RenderVector(ctx, cert.TemplateID, cert.FieldValues, &show)
	case KindImage:
		return s.RenderRaster(ctx, cert.TemplateID, cert.FieldValues, &show, format)
	default:
		return nil, errs.Invalid("render.certificate", "unknown render kind %q", kind)
	}
}

// Invalidate drops cached renders and assets, e.g. after a font or asset
// was replaced.
func (s *RenderService) Invalidate(ctx context.Context) {
	s.assets.Flush()
	if s.cache == nil {
		return
	}
	if err := s.cache.Flush(ctx); err != nil {
		klog.Warningf("render cache flush failed: %v", err)
	}
}

func (s *RenderService) render(ctx context.Context, kind, templateID string, values map[string]string, backgroundVisible *bool, format string) (*Output, error) {
	start := time.Now()

	// The template is read once; later edits do not affect this render.
	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	l := layout.ResolveLayout(tpl, values, backgroundVisible)

	contentType := "application/pdf"
	if kind == KindImage {
		contentType = generator.ContentType(format)
	}

	key := cache.RenderKey(kind, tpl.ID, tpl.UpdatedAt, values, l.ShowBackground, format)
	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			klog.V(4).Infof("render %s %s: cache hit", kind, tpl.ID)
			return &Output{Data: data, ContentType: contentType, Cached: true}, nil
		}
	}

	// Warm the asset cache concurrently before painting.
	refs := l.ImageRefs()
	if l.ShowBackground {
		refs = append(refs, l.Background)
	}
	if failures := s.assets.Preload(ctx, refs); len(failures) > 0 {
		klog.V(2).Infof("render %s %s: %d assets failed to preload", kind, tpl.ID, len(failures))
	}

	var (
		data     []byte
		warnings []error
	)
	switch kind {
	case KindPDF:
		g := generator.NewPDFGenerator(l, s.assets, s.fonts)
		data, err = g.Generate(ctx)
		warnings = g.Warnings()
	default:
		g := generator.NewRasterGenerator(l, s.assets, s.fonts, generator.RasterOptions{Format: format, Quality: s.opts.Quality})
		data, err = g.Generate(ctx)
		warnings = g.Warnings()
	}
	if err != nil {
		return nil, err
	}

	out := &Output{Data: data, ContentType: contentType}
	for _, w := range warnings {
		out.Warnings = append(out.Warnings, w.Error())
	}
	// Degraded output is not cached; the missing asset may come back.
	if s.cache != nil && len(out.Warnings) == 0 {
		s.cache.Set(ctx, key, data)
	}

	klog.V(2).Infof("render %s %s: %d bytes, %d warnings in %v", kind, tpl.ID, len(data), len(out.Warnings), time.Since(start))
	return out, nil
}
