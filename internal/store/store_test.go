package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"certificate-service/internal/errs"
	"certificate-service/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB("sqlite", ":memory:")
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func sampleTemplate(id string) *models.Template {
	return &models.Template{
		ID:       id,
		Name:     "Award " + id,
		Width:    297,
		Height:   210,
		IsActive: true,
		Fields: []models.Field{
			{ID: "f1", Type: models.FieldText, Name: "Recipient", X: 50, Y: 50, Width: 100, Height: 20, FontSize: 24},
			{ID: "f2", Type: models.FieldSignature, Name: "Sig", X: 200, Y: 150, Width: 50, Height: 25, SignatureImageURL: "/assets/uploads/sig.png"},
		},
	}
}

func TestTemplateStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewTemplateStore(newTestDB(t))

	tpl := sampleTemplate("t1")
	require.NoError(t, s.Save(ctx, tpl))
	assert.False(t, tpl.CreatedAt.IsZero())

	got, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, tpl.Fields, got.Fields)
	assert.Equal(t, 297.0, got.Width)

	// Save replaces the whole field list.
	got.Fields = got.Fields[:1]
	got.Fields[0].X = 60
	require.NoError(t, s.Save(ctx, got))
	again, err := s.Get(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, again.Fields, 1)
	assert.Equal(t, 60.0, again.Fields[0].X)
}

func TestTemplateStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewTemplateStore(newTestDB(t))

	inactive := sampleTemplate("t2")
	inactive.IsActive = false
	require.NoError(t, s.Save(ctx, sampleTemplate("t1")))
	require.NoError(t, s.Save(ctx, inactive))

	all, err := s.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := s.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "t1", active[0].ID)

	require.NoError(t, s.Delete(ctx, "t1"))
	_, err = s.Get(ctx, "t1")
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(s.Delete(ctx, "t1")))
}

func TestCertificateStore(t *testing.T) {
	ctx := context.Background()
	s := NewCertificateStore(newTestDB(t))

	c := &models.Certificate{
		ID:                "c1",
		TemplateID:        "t1",
		RecipientName:     "Jane Doe",
		FieldValues:       map[string]string{"f1": "Jane Doe"},
		BackgroundVisible: true,
		CertificateNumber: "CERT-001",
	}
	require.NoError(t, s.Create(ctx, c))

	got, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.FieldValues["f1"])
	assert.Equal(t, "CERT-001", got.CertificateNumber)

	dup := &models.Certificate{ID: "c2", TemplateID: "t1", CertificateNumber: "CERT-001"}
	err = s.Create(ctx, dup)
	assert.True(t, errors.Is(err, errs.ErrConstraint))

	// Certificates without a number do not collide.
	require.NoError(t, s.Create(ctx, &models.Certificate{ID: "c3", TemplateID: "t1"}))
	require.NoError(t, s.Create(ctx, &models.Certificate{ID: "c4", TemplateID: "t2"}))

	list, err := s.List(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCertificateUpdateFields(t *testing.T) {
	ctx := context.Background()
	s := NewCertificateStore(newTestDB(t))
	require.NoError(t, s.Create(ctx, &models.Certificate{ID: "c1", TemplateID: "t1", CertificateNumber: "A"}))
	require.NoError(t, s.Create(ctx, &models.Certificate{ID: "c2", TemplateID: "t1", CertificateNumber: "B"}))

	name := "John Roe"
	hidden := false
	got, err := s.UpdateFields(ctx, "c1", models.CertificatePatch{
		RecipientName:     &name,
		BackgroundVisible: &hidden,
		FieldValues:       map[string]string{"f1": "John Roe"},
	})
	require.NoError(t, err)
	assert.Equal(t, "John Roe", got.RecipientName)
	assert.Equal(t, "t1", got.TemplateID)
	assert.False(t, got.BackgroundVisible)

	stored, err := s.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "John Roe", stored.FieldValues["f1"])
	assert.Equal(t, "A", stored.CertificateNumber)

	taken := "B"
	_, err = s.UpdateFields(ctx, "c1", models.CertificatePatch{CertificateNumber: &taken})
	assert.True(t, errors.Is(err, errs.ErrConstraint))

	_, err = s.UpdateFields(ctx, "missing", models.CertificatePatch{})
	assert.True(t, errs.IsNotFound(err))

	require.NoError(t, s.Delete(ctx, "c2"))
	assert.True(t, errs.IsNotFound(s.Delete(ctx, "c2")))
}

func TestSettingsStoreDefaultsThenSaved(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsStore(newTestDB(t), models.DefaultSettings())

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)

	want := models.Settings{NormalMoveAmount: 0.25, ShiftMoveAmount: 5, DefaultBackgroundVisible: false}
	require.NoError(t, s.Save(ctx, want))
	require.NoError(t, s.Save(ctx, want))

	got, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

type logLines []string

func (l *logLines) Printf(format string, args ...interface{}) {
	*l = append(*l, fmt.Sprintf(format, args...))
}

func TestMissingRowsAreNotLogged(t *testing.T) {
	ctx := context.Background()
	var lines logLines
	db := newTestDB(t).Session(&gorm.Session{Logger: newLogger(&lines)})

	got, err := NewSettingsStore(db, models.DefaultSettings()).Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettings(), got)

	_, err = NewTemplateStore(db).Get(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))

	assert.Empty(t, lines)
}
