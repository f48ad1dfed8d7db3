// Package cache resolves asset references (inline data URIs, remote URLs
// and storage paths) to bytes and decoded images, keeping recent results
// in memory.
package cache

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	gocache "github.com/patrickmn/go-cache"
	_ "golang.org/x/image/webp"

	"certificate-service/internal/errs"
	"certificate-service/internal/storage"
)

// AssetURLPrefix is the public path under which stored assets are served.
// References carrying it resolve to the storage key after it.
const AssetURLPrefix = "/assets/"

// MaxRemoteSize bounds downloaded images.
const MaxRemoteSize = 25 << 20

// Assets resolves asset references for the renderers.
type Assets struct {
	store storage.Store

	// Raw bytes by reference
	memCache *gocache.Cache
	// Processed PNG bytes by reference and pixel size
	imageDataCache *gocache.Cache

	httpClient *http.Client
}

// NewAssets creates a resolver over store. Entries expire after ttl.
func NewAssets(store storage.Store, ttl time.Duration) *Assets {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	transport := &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Assets{
		store:          store,
		memCache:       gocache.New(ttl, 2*ttl),
		imageDataCache: gocache.New(2*ttl, 4*ttl),
		httpClient: &http.Client{
			Timeout:   10 * time.Second,
			Transport: transport,
		},
	}
}

// StorageKey maps a reference to a storage key. ok is false for data URIs
// and remote URLs.
func StorageKey(ref string) (key string, ok bool) {
	switch {
	case strings.HasPrefix(ref, "data:"), strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		return "", false
	case strings.HasPrefix(ref, AssetURLPrefix):
		return strings.TrimPrefix(ref, AssetURLPrefix), true
	default:
		return strings.TrimPrefix(ref, "/"), true
	}
}

func hashKey(ref string) string {
	hash := md5.Sum([]byte(ref))
	return hex.EncodeToString(hash[:])
}

// Bytes returns the raw bytes behind ref. A reference that does not exist
// yields an errs.ErrNotFound error.
func (a *Assets) Bytes(ctx context.Context, ref string) ([]byte, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, errs.NotFound("asset.get", "asset", "(empty reference)")
	}

	cacheKey := hashKey(ref)
	if cached, found := a.memCache.Get(cacheKey); found {
		return cached.([]byte), nil
	}

	var data []byte
	var err error
	switch {
	case strings.HasPrefix(ref, "data:"):
		data, err = decodeDataURI(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, err = a.download(ctx, ref)
	default:
		key, _ := StorageKey(ref)
		data, err = a.store.Read(ctx, key)
	}
	if err != nil {
		return nil, err
	}

	// Inline data is already in memory; caching it would only duplicate it.
	if !strings.HasPrefix(ref, "data:") {
		a.memCache.Set(cacheKey, data, gocache.DefaultExpiration)
	}
	return data, nil
}

// Image decodes the image behind ref (PNG, JPEG, GIF or WebP).
func (a *Assets) Image(ctx context.Context, ref string) (image.Image, error) {
	data, err := a.Bytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errs.Invalid("asset.decode", "decode image %s: %v", shortRef(ref), err)
	}
	return img, nil
}

// PNG returns the image behind ref normalized to 8-bit NRGBA PNG, resized
// to exactly width x height pixels. Zero dimensions keep the source size.
func (a *Assets) PNG(ctx context.Context, ref string, width, height int) ([]byte, error) {
	cacheKey := fmt.Sprintf("img_data:%s_%d_%d", hashKey(ref), width, height)
	if cached, found := a.imageDataCache.Get(cacheKey); found {
		return cached.([]byte), nil
	}

	img, err := a.Image(ctx, ref)
	if err != nil {
		return nil, err
	}
	if width > 0 && height > 0 {
		b := img.Bounds()
		if b.Dx() != width || b.Dy() != height {
			img = imaging.Resize(img, width, height, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, imaging.Clone(img), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode PNG for %s: %w", shortRef(ref), err)
	}

	processed := buf.Bytes()
	a.imageDataCache.Set(cacheKey, processed, gocache.DefaultExpiration)
	return processed, nil
}

// Preload fetches refs concurrently so a render does not wait on them one
// by one. The returned map holds the failures.
func (a *Assets) Preload(ctx context.Context, refs []string) map[string]error {
	failures := make(map[string]error)
	var mu sync.Mutex
	var wg sync.WaitGroup

	// Limit concurrent downloads
	sem := make(chan struct{}, 20)

	for _, ref := range refs {
		if ref == "" || strings.HasPrefix(ref, "data:") {
			continue
		}

		wg.Add(1)
		go func(r string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if _, err := a.Bytes(ctx, r); err != nil {
				mu.Lock()
				failures[r] = err
				mu.Unlock()
			}
		}(ref)
	}

	wg.Wait()
	return failures
}

// Invalidate drops ref from the caches, e.g. after an upload replaced it.
func (a *Assets) Invalidate(ref string) {
	a.memCache.Delete(hashKey(ref))
	// Processed variants expire on their own; their keys embed the size.
}

// Flush empties both caches.
func (a *Assets) Flush() {
	a.memCache.Flush()
	a.imageDataCache.Flush()
}

// Stats returns cache statistics.
func (a *Assets) Stats() map[string]interface{} {
	return map[string]interface{}{
		"memory_items": a.memCache.ItemCount(),
		"image_items":  a.imageDataCache.ItemCount(),
	}
}

// ============ HELPER FUNCTIONS ============

func (a *Assets) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Invalid("asset.download", "bad URL %s: %v", url, err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return nil, errs.NotFound("asset.download", "asset", url)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: bad status: %s", url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxRemoteSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", url, err)
	}
	if len(data) > MaxRemoteSize {
		return nil, errs.Invalid("asset.download", "%s exceeds %d bytes", url, MaxRemoteSize)
	}
	return data, nil
}

// decodeDataURI decodes "data:<mime>;base64,<payload>".
func decodeDataURI(uri string) ([]byte, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, errs.Invalid("asset.data_uri", "malformed data URI")
	}
	meta, payload := uri[len("data:"):comma], uri[comma+1:]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, errs.Invalid("asset.data_uri", "only base64 data URIs are supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errs.Invalid("asset.data_uri", "bad base64 payload: %v", err)
	}
	return data, nil
}

// shortRef keeps data URIs out of error messages.
func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		if i := strings.IndexByte(ref, ','); i > 0 {
			return ref[:i] + ",..."
		}
	}
	return ref
}
