package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certificate-service/internal/editor"
	"certificate-service/internal/errs"
	"certificate-service/internal/models"
	"certificate-service/internal/units"
)

func TestEditorSessionDragUndoSave(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)
	id := resp.Template.ID

	eds := NewEditorService(e.templates, e.settings, "/api/fonts/", time.Minute)
	view, err := eds.Open(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "idle", view.State)
	assert.False(t, view.CanUndo)
	require.NotNil(t, view.Layout)
	assert.Len(t, view.Layout.Elements, 2)

	// Field "name" is at (50, 50) mm.
	down := editor.PointerEvent{X: units.MMToPixels(55, 1), Y: units.MMToPixels(55, 1)}
	view, err = eds.Apply(ctx, view.SessionID, EditorCommand{Type: CmdPointerDown, Pointer: down})
	require.NoError(t, err)
	assert.Equal(t, "dragging", view.State)
	assert.Equal(t, "name", view.Selected)

	move := down
	move.X += units.MMToPixels(10, 1)
	_, err = eds.Apply(ctx, view.SessionID, EditorCommand{Type: CmdPointerMove, Pointer: move})
	require.NoError(t, err)
	view, err = eds.Apply(ctx, view.SessionID, EditorCommand{Type: CmdPointerUp, Pointer: move})
	require.NoError(t, err)
	assert.True(t, view.CanUndo)
	assert.InDelta(t, 60, view.Fields[0].X, 0.001)

	// Saved fields reach the template.
	saved, err := eds.Save(ctx, view.SessionID)
	require.NoError(t, err)
	assert.InDelta(t, 60, saved.Template.Fields[0].X, 0.001)
	got, err := e.templates.Get(ctx, id)
	require.NoError(t, err)
	assert.InDelta(t, 60, got.Fields[0].X, 0.001)

	view, err = eds.Apply(ctx, view.SessionID, EditorCommand{Type: CmdUndo})
	require.NoError(t, err)
	assert.True(t, view.Handled)
	assert.Equal(t, 50.0, view.Fields[0].X)
	assert.True(t, view.CanRedo)
}

func TestEditorSessionCommands(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)

	eds := NewEditorService(e.templates, e.settings, "/api/fonts/", time.Minute)
	view, err := eds.Open(ctx, resp.Template.ID)
	require.NoError(t, err)
	sid := view.SessionID

	view, err = eds.Apply(ctx, sid, EditorCommand{Type: CmdAdd, FieldType: models.FieldQRCode, Name: "Verify"})
	require.NoError(t, err)
	require.Len(t, view.Fields, 3)
	added := view.Fields[2]
	assert.Equal(t, added.ID, view.Selected)

	view, err = eds.Apply(ctx, sid, EditorCommand{Type: CmdKey, Key: editor.KeyEvent{Key: editor.KeyRight, Mods: editor.Modifiers{Shift: true}}})
	require.NoError(t, err)
	assert.InDelta(t, added.X+1, view.Fields[2].X, 0.001)

	view, err = eds.Apply(ctx, sid, EditorCommand{Type: CmdZoom, Scale: 1.55})
	require.NoError(t, err)
	assert.InDelta(t, 1.6, view.Scale, 0.001)
	assert.InDelta(t, 1.6, view.Layout.Scale, 0.001)

	view, err = eds.Apply(ctx, sid, EditorCommand{Type: CmdDelete, FieldID: added.ID})
	require.NoError(t, err)
	assert.Len(t, view.Fields, 2)

	f := view.Fields[0]
	f.Type = models.FieldImage
	_, err = eds.Apply(ctx, sid, EditorCommand{Type: CmdUpdate, Field: &f})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	_, err = eds.Apply(ctx, sid, EditorCommand{Type: "explode"})
	assert.True(t, errors.Is(err, errs.ErrInvalidInput))

	eds.Close(sid)
	_, err = eds.View(sid)
	assert.True(t, errs.IsNotFound(err))

	_, err = eds.Open(ctx, "missing")
	assert.True(t, errs.IsNotFound(err))
}

func TestEditorSessionFollowsSettingsChanges(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	resp, err := e.templates.Create(ctx, certificateTemplate())
	require.NoError(t, err)

	eds := NewEditorService(e.templates, e.settings, "/api/fonts/", time.Minute)
	view, err := eds.Open(ctx, resp.Template.ID)
	require.NoError(t, err)
	sid := view.SessionID
	_, err = eds.Apply(ctx, sid, EditorCommand{Type: CmdSelect, FieldID: "name"})
	require.NoError(t, err)

	right := EditorCommand{Type: CmdKey, Key: editor.KeyEvent{Key: editor.KeyRight}}
	view, err = eds.Apply(ctx, sid, right)
	require.NoError(t, err)
	assert.InDelta(t, 50.5, view.Fields[0].X, 0.001)

	_, err = e.settings.Update(ctx, models.Settings{NormalMoveAmount: 2, ShiftMoveAmount: 5, DefaultBackgroundVisible: true})
	require.NoError(t, err)

	view, err = eds.Apply(ctx, sid, right)
	require.NoError(t, err)
	assert.InDelta(t, 52.5, view.Fields[0].X, 0.001)
}
