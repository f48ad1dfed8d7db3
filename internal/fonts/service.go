package fonts

import (
	"bytes"
	"context"
	"path"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"k8s.io/klog/v2"
	"seehuhn.de/go/sfnt"

	"certificate-service/internal/errs"
	"certificate-service/internal/models"
	"certificate-service/internal/storage"
)

// Dir is the storage directory holding uploaded fonts.
const Dir = "fonts"

// MaxFontSize bounds uploads.
const MaxFontSize = 20 << 20

// Service manages uploaded fonts and serves their bytes to the renderers.
type Service struct {
	store storage.Store
	cache *gocache.Cache
}

// NewService creates a font service over store. Font bytes are kept in
// memory for ttl after first use.
func NewService(store storage.Store, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{
		store: store,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Upload validates and stores a font file. The stored filename is the
// sanitized original name.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (models.Font, error) {
	const op = "font.upload"

	filename = path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if !strings.EqualFold(path.Ext(filename), FontExt) {
		return models.Font{}, errs.Invalid(op, "only %s font files are accepted, got %q", FontExt, filename)
	}
	if len(data) == 0 || len(data) > MaxFontSize {
		return models.Font{}, errs.Invalid(op, "font file size %d out of range", len(data))
	}

	// gofpdf can only embed TrueType (glyf) outlines.
	info, err := sfnt.Read(bytes.NewReader(data))
	if err != nil {
		return models.Font{}, errs.Invalid(op, "%q is not a readable font: %v", filename, err)
	}
	if !info.IsGlyf() {
		return models.Font{}, errs.Invalid(op, "%q has no TrueType outlines", filename)
	}

	stored := SanitizeFilename(NameFromFilename(filename)) + FontExt
	name := NameFromFilename(stored)
	if IsBuiltin(name) {
		return models.Font{}, errs.Conflict(op, "%q is a built-in font name", name)
	}

	if err := s.store.Write(ctx, path.Join(Dir, stored), data); err != nil {
		return models.Font{}, err
	}
	s.cache.Delete(name)

	klog.Infof("font uploaded: name=%s family=%q bytes=%d", name, info.FamilyName, len(data))
	return models.Font{Name: name, Kind: models.FontCustom, Filename: stored}, nil
}

// List returns the uploaded fonts.
func (s *Service) List(ctx context.Context) ([]models.Font, error) {
	files, err := s.store.List(ctx, Dir)
	if err != nil {
		return nil, err
	}
	fonts := make([]models.Font, 0, len(files))
	for _, f := range files {
		if !strings.EqualFold(path.Ext(f), FontExt) {
			continue
		}
		fonts = append(fonts, models.Font{Name: NameFromFilename(f), Kind: models.FontCustom, Filename: f})
	}
	return fonts, nil
}

// Catalog returns built-in fonts followed by uploaded ones.
func (s *Service) Catalog(ctx context.Context) ([]models.Font, error) {
	custom, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return append(Builtins(), custom...), nil
}

// Delete removes an uploaded font by exact filename. Fields still naming
// the font fall back to the default font on their next render.
func (s *Service) Delete(ctx context.Context, filename string) error {
	if filename == "" || hasTraversal(filename) {
		return errs.Invalid("font.delete", "invalid font filename %q", filename)
	}
	if err := s.store.Delete(ctx, path.Join(Dir, filename)); err != nil {
		return err
	}
	s.cache.Delete(NameFromFilename(filename))
	klog.Infof("font deleted: %s", filename)
	return nil
}

// Load returns the bytes of the custom font with the given name.
func (s *Service) Load(ctx context.Context, name string) ([]byte, error) {
	if name == "" || hasTraversal(name) {
		return nil, errs.NotFound("font.load", "font", name)
	}
	if cached, found := s.cache.Get(name); found {
		return cached.([]byte), nil
	}

	data, err := s.store.Read(ctx, path.Join(Dir, name+FontExt))
	if err != nil {
		if errs.IsNotFound(err) {
			return nil, errs.NotFound("font.load", "font", name)
		}
		return nil, err
	}
	// name may alias a reused request buffer
	s.cache.Set(strings.Clone(name), data, gocache.DefaultExpiration)
	return data, nil
}

// Open returns the bytes of a stored font file for serving.
func (s *Service) Open(ctx context.Context, filename string) ([]byte, error) {
	if filename == "" || hasTraversal(filename) || !strings.EqualFold(path.Ext(filename), FontExt) {
		return nil, errs.NotFound("font.open", "font", filename)
	}
	return s.Load(ctx, NameFromFilename(filename))
}
