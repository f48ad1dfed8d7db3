// Package editor is the designer's interaction model: selection, drag,
// resize, pan and zoom gestures, keyboard nudges and undo/redo over the
// template's field list. All geometry is in millimeters; pointer events
// arrive in canvas-local pixels at the current zoom.
package editor

import (
	"math"

	"certificate-service/internal/errs"
	"certificate-service/internal/layout"
	"certificate-service/internal/models"
	"certificate-service/internal/units"
)

// Minimum field size reachable by resizing, in mm.
const (
	MinWidth  = 10.0
	MinHeight = 5.0
)

// State is the gesture in progress. Gestures are mutually exclusive.
type State int

const (
	Idle State = iota
	Dragging
	Resizing
	Panning
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case Panning:
		return "panning"
	default:
		return "idle"
	}
}

// gesture is what pointer-down captured.
type gesture struct {
	fieldID string
	corner  layout.Corner
	// pointer position at pointer-down
	startX, startY float64
	// field as it was at pointer-down
	orig models.Field
	// scroll offset at pointer-down
	scrollX, scrollY float64
}

// Editor holds one editing session. It is not safe for concurrent use.
type Editor struct {
	width, height float64
	fields        []models.Field
	selected      string

	scale            float64
	scrollX, scrollY float64

	state   State
	gesture gesture

	history  *History
	settings models.Settings
}

// New creates an editor with nudge steps from settings and an empty page.
func New(settings models.Settings) *Editor {
	return &Editor{
		scale:    1,
		history:  NewHistory(nil),
		settings: settings,
	}
}

// Load starts editing tpl. History is reset to the loaded fields.
func (e *Editor) Load(tpl *models.Template) {
	e.width, e.height = tpl.Width, tpl.Height
	e.fields = models.CloneFields(tpl.Fields)
	e.selected = ""
	e.state = Idle
	e.history.Reset(e.fields)
}

// SetSettings replaces the nudge steps.
func (e *Editor) SetSettings(s models.Settings) { e.settings = s }

// Fields returns a copy of the current fields.
func (e *Editor) Fields() []models.Field { return models.CloneFields(e.fields) }

// Field returns the field with id.
func (e *Editor) Field(id string) (models.Field, bool) {
	i := e.index(id)
	if i < 0 {
		return models.Field{}, false
	}
	return e.fields[i], true
}

// ApplyTo copies the edited fields into tpl for saving.
func (e *Editor) ApplyTo(tpl *models.Template) {
	tpl.Fields = e.Fields()
}

func (e *Editor) State() State           { return e.state }
func (e *Editor) Selected() string       { return e.selected }
func (e *Editor) Scale() float64         { return e.scale }
func (e *Editor) History() *History      { return e.history }
func (e *Editor) Scroll() (x, y float64) { return e.scrollX, e.scrollY }

// Select changes the selection. An unknown id clears it. History is not touched.
func (e *Editor) Select(id string) {
	if e.index(id) < 0 {
		id = ""
	}
	e.selected = id
}

// ============ POINTER GESTURES ============

// PointerDown starts a gesture. It reports whether the event was consumed.
func (e *Editor) PointerDown(ev PointerEvent) bool {
	if e.state != Idle {
		return false
	}

	if ev.Button == ButtonSecondary && ev.Mods.Command() {
		e.state = Panning
		e.gesture = gesture{startX: ev.X, startY: ev.Y, scrollX: e.scrollX, scrollY: e.scrollY}
		return true
	}
	if ev.Button != ButtonPrimary {
		return false
	}

	hit, ok := layout.HitTest(e.fields, ev.X, ev.Y, e.scale, e.selected)
	if !ok {
		e.selected = ""
		return false
	}
	e.selected = hit.FieldID
	e.gesture = gesture{
		fieldID: hit.FieldID,
		corner:  hit.Corner,
		startX:  ev.X,
		startY:  ev.Y,
		orig:    e.fields[e.index(hit.FieldID)],
	}
	if hit.Corner != "" {
		e.state = Resizing
	} else {
		e.state = Dragging
	}
	return true
}

// PointerMove updates the gesture in progress.
func (e *Editor) PointerMove(ev PointerEvent) bool {
	switch e.state {
	case Panning:
		e.scrollX = math.Max(0, e.gesture.scrollX-(ev.X-e.gesture.startX))
		e.scrollY = math.Max(0, e.gesture.scrollY-(ev.Y-e.gesture.startY))
		return true
	case Dragging, Resizing:
	default:
		return false
	}

	i := e.index(e.gesture.fieldID)
	if i < 0 {
		e.state = Idle
		return false
	}
	dx := units.PixelsToMM(ev.X-e.gesture.startX, e.scale)
	dy := units.PixelsToMM(ev.Y-e.gesture.startY, e.scale)

	if e.state == Dragging {
		e.fields[i] = Drag(e.gesture.orig, dx, dy, e.width, e.height)
	} else {
		e.fields[i] = Resize(e.gesture.orig, e.gesture.corner, dx, dy)
	}
	return true
}

// PointerUp ends the gesture. A drag or resize that changed the field
// commits one history snapshot.
func (e *Editor) PointerUp(PointerEvent) bool {
	state := e.state
	e.state = Idle
	switch state {
	case Dragging, Resizing:
		if f, ok := e.Field(e.gesture.fieldID); ok && f != e.gesture.orig {
			e.history.Commit(e.fields)
		}
		return true
	case Panning:
		return true
	default:
		return false
	}
}

// Cancel abandons a drag or resize, restoring the field.
func (e *Editor) Cancel() {
	if e.state == Dragging || e.state == Resizing {
		if i := e.index(e.gesture.fieldID); i >= 0 {
			e.fields[i] = e.gesture.orig
		}
	}
	e.state = Idle
}

// Drag moves f by (dx, dy) mm, keeping its origin on the page.
func Drag(f models.Field, dx, dy, pageWidth, pageHeight float64) models.Field {
	f.X = clamp(f.X+dx, 0, pageWidth)
	f.Y = clamp(f.Y+dy, 0, pageHeight)
	return f
}

// Resize moves the edges named by corner by (dx, dy) mm. The opposite
// edges stay put and sizes stop at MinWidth and MinHeight. The box never
// crosses the page's top or left edge; a box already narrower than the
// minimum there grows away from the edge instead.
func Resize(f models.Field, corner layout.Corner, dx, dy float64) models.Field {
	right, bottom := f.X+f.Width, f.Y+f.Height

	if corner.West() {
		f.Width = math.Max(f.Width-dx, MinWidth)
		f.X = right - f.Width
		if f.X < 0 {
			f.X = 0
			f.Width = math.Max(right, MinWidth)
		}
	} else {
		f.Width = math.Max(f.Width+dx, MinWidth)
	}

	if corner.North() {
		f.Height = math.Max(f.Height-dy, MinHeight)
		f.Y = bottom - f.Height
		if f.Y < 0 {
			f.Y = 0
			f.Height = math.Max(bottom, MinHeight)
		}
	} else {
		f.Height = math.Max(f.Height+dy, MinHeight)
	}
	return f
}

// ============ ZOOM ============

// Wheel zooms by one step per notch while the command modifier is held.
// Negative deltaY (wheel up) zooms in. Plain wheel events are left to the
// scroll container.
func (e *Editor) Wheel(deltaY float64, mods Modifiers) bool {
	if !mods.Command() || deltaY == 0 {
		return false
	}
	step := units.ScaleStep
	if deltaY > 0 {
		step = -step
	}
	e.SetScale(e.scale + step)
	return true
}

// SetScale sets the zoom, clamped to the allowed range.
func (e *Editor) SetScale(scale float64) {
	e.scale = units.ClampScale(math.Round(scale*10) / 10)
}

// ============ KEYBOARD ============

// KeyDown handles nudges, delete and escape. It reports whether the key
// was consumed; unconsumed keys keep their default behavior.
func (e *Editor) KeyDown(ev KeyEvent) bool {
	if ev.Key == KeyEscape {
		if e.state != Idle {
			e.Cancel()
			return true
		}
		return false
	}
	if e.state != Idle || e.selected == "" || ev.InTextInput {
		return false
	}

	step := e.settings.NormalMoveAmount
	if ev.Mods.Shift {
		step = e.settings.ShiftMoveAmount
	}

	switch ev.Key {
	case KeyLeft:
		return e.nudge(-step, 0)
	case KeyRight:
		return e.nudge(step, 0)
	case KeyUp:
		return e.nudge(0, -step)
	case KeyDown:
		return e.nudge(0, step)
	case KeyDelete, KeyBackspace:
		return e.DeleteSelected()
	}
	return false
}

func (e *Editor) nudge(dx, dy float64) bool {
	i := e.index(e.selected)
	if i < 0 {
		return false
	}
	moved := Drag(e.fields[i], dx, dy, e.width, e.height)
	if moved != e.fields[i] {
		e.fields[i] = moved
		e.history.Commit(e.fields)
	}
	return true
}

// ============ FIELD OPERATIONS ============

// AddField appends a new field of type t at the insertion point and
// selects it.
func (e *Editor) AddField(t models.FieldType, name string) (models.Field, error) {
	if !t.Valid() {
		return models.Field{}, errs.Invalid("editor.add", "unknown field type %q", t)
	}
	f := models.NewField(t, name)
	for e.index(f.ID) >= 0 {
		f.ID = models.NewFieldID()
	}
	e.fields = append(e.fields, f)
	e.selected = f.ID
	e.history.Commit(e.fields)
	return f, nil
}

// DeleteSelected removes the selected field.
func (e *Editor) DeleteSelected() bool {
	i := e.index(e.selected)
	if i < 0 {
		return false
	}
	e.fields = append(e.fields[:i], e.fields[i+1:]...)
	e.selected = ""
	e.history.Commit(e.fields)
	return true
}

// UpdateField replaces the field with f.ID, e.g. when an attribute edit
// is committed. Type changes are rejected.
func (e *Editor) UpdateField(f models.Field) error {
	i := e.index(f.ID)
	if i < 0 {
		return errs.NotFound("editor.update", "field", f.ID)
	}
	if f.Type != e.fields[i].Type {
		return errs.Invalid("editor.update", "field %q: type cannot change", f.ID)
	}
	if f == e.fields[i] {
		return nil
	}
	e.fields[i] = f
	e.history.Commit(e.fields)
	return nil
}

// ============ HISTORY ============

// Undo restores the previous snapshot.
func (e *Editor) Undo() bool {
	if e.state != Idle {
		return false
	}
	fields, ok := e.history.Undo()
	if ok {
		e.restore(fields)
	}
	return ok
}

// Redo restores the next snapshot.
func (e *Editor) Redo() bool {
	if e.state != Idle {
		return false
	}
	fields, ok := e.history.Redo()
	if ok {
		e.restore(fields)
	}
	return ok
}

func (e *Editor) CanUndo() bool { return e.history.CanUndo() }
func (e *Editor) CanRedo() bool { return e.history.CanRedo() }

func (e *Editor) restore(fields []models.Field) {
	e.fields = fields
	if e.index(e.selected) < 0 {
		e.selected = ""
	}
}

func (e *Editor) index(id string) int {
	if id == "" {
		return -1
	}
	for i := range e.fields {
		if e.fields[i].ID == id {
			return i
		}
	}
	return -1
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
