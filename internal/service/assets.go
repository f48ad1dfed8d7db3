package service

import (
	"bytes"
	"context"
	"image"
	"path"
	"strings"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"certificate-service/internal/cache"
	"certificate-service/internal/errs"
	"certificate-service/internal/storage"
)

// UploadDir is the storage directory for uploaded images.
const UploadDir = "uploads"

// MaxAssetSize bounds image uploads.
const MaxAssetSize = 25 << 20

var assetTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Asset is a stored image and the reference templates use for it.
type Asset struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// AssetService stores background and signature images.
type AssetService struct {
	store  storage.Store
	render *RenderService
}

func NewAssetService(store storage.Store, render *RenderService) *AssetService {
	return &AssetService{store: store, render: render}
}

// Upload stores an image under a fresh name and returns its reference.
func (s *AssetService) Upload(ctx context.Context, filename string, data []byte) (*Asset, error) {
	const op = "asset.upload"
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := assetTypes[ext]; !ok {
		return nil, errs.Invalid(op, "unsupported image type %q", ext)
	}
	if len(data) == 0 || len(data) > MaxAssetSize {
		return nil, errs.Invalid(op, "image size %d out of range", len(data))
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, errs.Invalid(op, "%q is not a readable image: %v", filename, err)
	}

	key := path.Join(UploadDir, uuid.NewString()+ext)
	if err := s.store.Write(ctx, key, data); err != nil {
		return nil, err
	}
	klog.Infof("asset uploaded: %s (%d bytes)", key, len(data))
	return &Asset{Key: key, URL: cache.AssetURLPrefix + key}, nil
}

// Open returns a stored asset and its content type.
func (s *AssetService) Open(ctx context.Context, key string) ([]byte, string, error) {
	key, err := storage.CleanPath(key)
	if err != nil {
		return nil, "", err
	}
	contentType, ok := assetTypes[strings.ToLower(path.Ext(key))]
	if !ok {
		return nil, "", errs.NotFound("asset.open", "asset", key)
	}
	data, err := s.store.Read(ctx, key)
	if err != nil {
		return nil, "", err
	}
	return data, contentType, nil
}

// Delete removes an uploaded asset. Renders referencing it are dropped
// from the caches.
func (s *AssetService) Delete(ctx context.Context, key string) error {
	key, err := storage.CleanPath(key)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(key, UploadDir+"/") {
		return errs.Invalid("asset.delete", "%q is not an uploaded asset", key)
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.render.Invalidate(ctx)
	klog.Infof("asset deleted: %s", key)
	return nil
}
