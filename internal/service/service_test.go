package service

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	"certificate-service/internal/cache"
	"certificate-service/internal/errs"
	"certificate-service/internal/fonts"
	"certificate-service/internal/models"
	"certificate-service/internal/storage"
	"certificate-service/internal/store"
)

type env struct {
	files     storage.Store
	fonts     *fonts.Service
	templates *TemplateService
	certs     *CertificateService
	settings  *SettingsService
	render    *RenderService
	cache     *cache.MemoryRenderCache
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := store.InitDB("sqlite", ":memory:")
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	tpls := store.NewTemplateStore(db)
	certs := store.NewCertificateStore(db)
	settings := store.NewSettingsStore(db, models.DefaultSettings())
	fontSvc := fonts.NewService(files, time.Minute)
	renderCache := cache.NewMemoryRenderCache(time.Minute)

	return &env{
		files:     files,
		fonts:     fontSvc,
		templates: NewTemplateService(tpls),
		certs:     NewCertificateService(certs, tpls, settings),
		settings:  NewSettingsService(settings),
		render: NewRenderService(tpls, certs, cache.NewAssets(files, time.Minute), fontSvc, renderCache,
			RenderOptions{Quality: 90, Format: "jpeg"}),
		cache: renderCache,
	}
}

func certificateTemplate() *models.Template {
	name := models.NewField(models.FieldText, "Recipient")
	name.ID = "name"
	name.X, name.Y = 50, 50
	date := models.NewField(models.FieldDate, "Date")
	date.ID = "date"
	date.Y = 150
	return &models.Template{Name: "Award", Width: 297, Height: 210, IsActive: true, Fields: []models.Field{name, date}}
}

func TestTemplateCreateValidatesAndWarns(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tpl := certificateTemplate()
	tpl.Fields = append(tpl.Fields, models.Field{Type: models.FieldImage, Name: "Logo", X: 280, Y: 10, Width: 50, Height: 25})
	resp, err := e.templates.Create(ctx, tpl)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Template.ID)
	assert.NotEmpty(t, resp.Template.Fields[2].ID)
	require.Len(t, resp.Warnings, 1)
	assert.Contains(t, resp.Warnings[0], "Logo")

	bad := certificateTemplate()
	bad.Width = 0
	_, err = e.templates.Create(ctx, bad)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	_, err = e.templates.Update(ctx, "missing", certificateTemplate())
	assert.True(t, errs.IsNotFound(err))
}

func TestTemplateUpdateKeepsCreatedAt(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)
	created := resp.Template.CreatedAt

	edited := certificateTemplate()
	edited.Name = "Renamed"
	up, err := e.templates.Update(ctx, resp.Template.ID, edited)
	require.NoError(t, err)
	assert.Equal(t, resp.Template.ID, up.Template.ID)

	got, err := e.templates.Get(ctx, resp.Template.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Name)
	assert.WithinDuration(t, created, got.CreatedAt, time.Millisecond)
}

func TestIssueFiltersValuesAndDefaultsBackground(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)

	_, err = e.settings.Update(ctx, models.Settings{NormalMoveAmount: 0.5, ShiftMoveAmount: 1, DefaultBackgroundVisible: false})
	require.NoError(t, err)

	cert, err := e.certs.Issue(ctx, IssueRequest{
		TemplateID:    resp.Template.ID,
		RecipientName: " Jane Doe ",
		FieldValues:   map[string]string{"name": "Jane Doe", "bogus": "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", cert.RecipientName)
	assert.Equal(t, map[string]string{"name": "Jane Doe"}, cert.FieldValues)
	assert.False(t, cert.BackgroundVisible)

	show := true
	cert, err = e.certs.Issue(ctx, IssueRequest{TemplateID: resp.Template.ID, BackgroundVisible: &show})
	require.NoError(t, err)
	assert.True(t, cert.BackgroundVisible)

	_, err = e.certs.Issue(ctx, IssueRequest{TemplateID: "missing"})
	assert.True(t, errs.IsNotFound(err))
}

func TestSettingsValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	got, err := e.settings.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)

	_, err = e.settings.Update(ctx, models.Settings{NormalMoveAmount: -1, ShiftMoveAmount: 1})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestRenderVectorAndCache(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)
	values := map[string]string{"name": "Jane Doe"}

	out, err := e.render.RenderVector(ctx, resp.Template.ID, values, nil)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", out.ContentType)
	assert.True(t, bytes.HasPrefix(out.Data, []byte("%PDF-")))
	assert.False(t, out.Cached)

	again, err := e.render.RenderVector(ctx, resp.Template.ID, values, nil)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, out.Data, again.Data)

	// A template edit changes the key.
	_, err = e.templates.Update(ctx, resp.Template.ID, certificateTemplate())
	require.NoError(t, err)
	fresh, err := e.render.RenderVector(ctx, resp.Template.ID, values, nil)
	require.NoError(t, err)
	assert.False(t, fresh.Cached)

	_, err = e.render.RenderVector(ctx, "missing", values, nil)
	assert.True(t, errs.IsNotFound(err))
}

func TestRenderRasterFormats(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)

	out, err := e.render.RenderRaster(ctx, resp.Template.ID, nil, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", out.ContentType)
	img, err := imaging.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, 3508, img.Bounds().Dx())

	out, err = e.render.RenderRaster(ctx, resp.Template.ID, nil, nil, "png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", out.ContentType)

	_, err = e.render.RenderRaster(ctx, resp.Template.ID, nil, nil, "bmp")
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestRenderCertificateUsesStoredBackgroundChoice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tpl := certificateTemplate()
	tpl.BackgroundImageURL = "/assets/uploads/bg.png"
	resp, err := e.templates.Create(ctx, tpl)
	require.NoError(t, err)

	hidden := false
	cert, err := e.certs.Issue(ctx, IssueRequest{TemplateID: resp.Template.ID, BackgroundVisible: &hidden})
	require.NoError(t, err)

	// The background file does not exist, but it is hidden.
	_, err = e.render.RenderCertificate(ctx, cert.ID, KindPDF, "")
	require.NoError(t, err)

	show := true
	_, err = e.certs.Update(ctx, cert.ID, models.CertificatePatch{BackgroundVisible: &show})
	require.NoError(t, err)
	_, err = e.render.RenderCertificate(ctx, cert.ID, KindImage, "jpeg")
	assert.True(t, errors.Is(err, errs.ErrAssetFatal))

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(30, 20, color.White), imaging.PNG))
	require.NoError(t, e.files.Write(ctx, "uploads/bg.png", buf.Bytes()))
	out, err := e.render.RenderCertificate(ctx, cert.ID, KindImage, "jpeg")
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)

	// Certificates outlive their template but can no longer render.
	require.NoError(t, e.templates.Delete(ctx, resp.Template.ID))
	_, err = e.render.RenderCertificate(ctx, cert.ID, KindPDF, "")
	assert.True(t, errs.IsNotFound(err))
	_, err = e.certs.Get(ctx, cert.ID)
	assert.NoError(t, err)
}

func TestDeletedFontDegradesAndIsNotCached(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	font, err := e.fonts.Upload(ctx, "My Custom Font!!.ttf", goregular.TTF)
	require.NoError(t, err)
	assert.Equal(t, "My_Custom_Font__", font.Name)

	tpl := certificateTemplate()
	tpl.Fields[0].FontFamily = font.Name
	resp, err := e.templates.Create(ctx, tpl)
	require.NoError(t, err)

	out, err := e.render.RenderRaster(ctx, resp.Template.ID, nil, nil, "png")
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)

	require.NoError(t, e.fonts.Delete(ctx, font.Filename))
	e.render.Invalidate(ctx)
	assert.Equal(t, 0, e.cache.ItemCount())

	out, err = e.render.RenderRaster(ctx, resp.Template.ID, nil, nil, "png")
	require.NoError(t, err)
	assert.NotEmpty(t, out.Warnings)
	assert.Equal(t, 0, e.cache.ItemCount())

	// The field itself is untouched.
	got, err := e.templates.Get(ctx, resp.Template.ID)
	require.NoError(t, err)
	assert.Equal(t, font.Name, got.Fields[0].FontFamily)
}

func TestPreviewInjectsFontsOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tpl := certificateTemplate()
	tpl.Fields[0].FontFamily = "Fancy"
	tpl.Fields[1].FontFamily = "Fancy"
	resp, err := e.templates.Create(ctx, tpl)
	require.NoError(t, err)

	session := fonts.NewSession("/api/fonts/")
	il, err := e.templates.Preview(ctx, resp.Template.ID, PreviewRequest{Scale: 1.5}, session)
	require.NoError(t, err)
	assert.Equal(t, 1.5, il.Scale)
	assert.Len(t, il.Elements, 2)
	assert.Len(t, il.FontFaces, 1)

	_, err = e.templates.Preview(ctx, resp.Template.ID, PreviewRequest{Scale: -1}, session)
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}

func TestRenderBatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)

	items := []models.RenderRequest{
		{FieldValues: map[string]string{"name": "Ada"}},
		{FieldValues: map[string]string{"name": "Grace"}, Format: "bmp"},
		{FieldValues: map[string]string{"name": "Linus"}, Format: "png"},
	}
	out, err := e.render.RenderBatch(ctx, resp.Template.ID, BatchRequest{Kind: KindImage, Items: items})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
	assert.False(t, out.Success)
	assert.True(t, out.Results[0].Success)
	assert.Equal(t, "image/jpeg", out.Results[0].ContentType)
	assert.False(t, out.Results[1].Success)
	assert.Contains(t, out.Results[1].Error, "bmp")
	assert.Equal(t, "image/png", out.Results[2].ContentType)

	_, err = e.render.RenderBatch(ctx, resp.Template.ID, BatchRequest{})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	_, err = e.render.RenderBatch(ctx, "missing", BatchRequest{Items: items})
	assert.True(t, errs.IsNotFound(err))
}

func TestAssetUploadAndRender(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	assets := NewAssetService(e.files, e.render)

	_, err := assets.Upload(ctx, "notes.txt", []byte("hello"))
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
	_, err = assets.Upload(ctx, "bg.png", []byte("not a png"))
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(30, 20, color.White), imaging.PNG))
	asset, err := assets.Upload(ctx, "bg.png", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "/assets/"+asset.Key, asset.URL)

	data, contentType, err := assets.Open(ctx, asset.Key)
	require.NoError(t, err)
	assert.Equal(t, "image/png", contentType)
	assert.Equal(t, buf.Bytes(), data)

	tpl := certificateTemplate()
	tpl.BackgroundImageURL = asset.URL
	resp, err := e.templates.Create(ctx, tpl)
	require.NoError(t, err)
	_, err = e.render.RenderVector(ctx, resp.Template.ID, nil, nil)
	require.NoError(t, err)

	require.NoError(t, assets.Delete(ctx, asset.Key))
	_, err = e.render.RenderVector(ctx, resp.Template.ID, nil, nil)
	assert.True(t, errors.Is(err, errs.ErrAssetFatal))

	_, _, err = assets.Open(ctx, "../secrets.png")
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))
}
