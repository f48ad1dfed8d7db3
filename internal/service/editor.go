package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"certificate-service/internal/editor"
	"certificate-service/internal/errs"
	"certificate-service/internal/fonts"
	"certificate-service/internal/generator"
	"certificate-service/internal/layout"
	"certificate-service/internal/models"
)

// Editor command names.
const (
	CmdPointerDown = "pointerdown"
	CmdPointerMove = "pointermove"
	CmdPointerUp   = "pointerup"
	CmdWheel       = "wheel"
	CmdKey         = "key"
	CmdSelect      = "select"
	CmdZoom        = "zoom"
	CmdAdd         = "add"
	CmdDelete      = "delete"
	CmdUpdate      = "update"
	CmdUndo        = "undo"
	CmdRedo        = "redo"
)

// EditorCommand is one input to an editing session. Which members are
// read depends on Type.
type EditorCommand struct {
	Type      string              `json:"type"`
	Pointer   editor.PointerEvent `json:"pointer"`
	Key       editor.KeyEvent     `json:"key"`
	DeltaY    float64             `json:"deltaY,omitempty"`
	Scale     float64             `json:"scale,omitempty"`
	FieldID   string              `json:"fieldId,omitempty"`
	FieldType models.FieldType    `json:"fieldType,omitempty"`
	Name      string              `json:"name,omitempty"`
	Field     *models.Field       `json:"field,omitempty"`
}

// EditorView is the session state after a command.
type EditorView struct {
	SessionID  string                       `json:"sessionId"`
	TemplateID string                       `json:"templateId"`
	State      string                       `json:"state"`
	Selected   string                       `json:"selected,omitempty"`
	Scale      float64                      `json:"scale"`
	ScrollX    float64                      `json:"scrollX"`
	ScrollY    float64                      `json:"scrollY"`
	CanUndo    bool                         `json:"canUndo"`
	CanRedo    bool                         `json:"canRedo"`
	Handled    bool                         `json:"handled"`
	Fields     []models.Field               `json:"fields"`
	Layout     *generator.InteractiveLayout `json:"layout"`
}

type editorSession struct {
	mu       sync.Mutex
	id       string
	template *models.Template
	editor   *editor.Editor
	fonts    *fonts.Session
}

// EditorService keeps designer sessions in memory. Idle sessions expire.
type EditorService struct {
	templates *TemplateService
	settings  *SettingsService
	fontURL   string
	sessions  *gocache.Cache
}

// NewEditorService creates the session registry. fontURL is the prefix
// custom fonts are served under.
func NewEditorService(templates *TemplateService, settings *SettingsService, fontURL string, idle time.Duration) *EditorService {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	return &EditorService{
		templates: templates,
		settings:  settings,
		fontURL:   fontURL,
		sessions:  gocache.New(idle, idle),
	}
}

// Open starts editing the template with id.
func (s *EditorService) Open(ctx context.Context, templateID string) (*EditorView, error) {
	tpl, err := s.templates.Get(ctx, templateID)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	sess := &editorSession{
		id:       uuid.NewString(),
		template: tpl,
		editor:   editor.New(settings),
		fonts:    fonts.NewSession(s.fontURL),
	}
	sess.editor.Load(tpl)
	s.sessions.SetDefault(sess.id, sess)
	return sess.view(true), nil
}

func (s *EditorService) session(id string) (*editorSession, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, errs.NotFound("editor.session", "editor session", id)
	}
	// touch to extend the idle timeout
	s.sessions.SetDefault(id, v)
	return v.(*editorSession), nil
}

// View returns the current state of a session.
func (s *EditorService) View(id string) (*EditorView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.view(false), nil
}

// Apply runs one command against a session. Nudge steps follow the
// settings current at the time of the command.
func (s *EditorService) Apply(ctx context.Context, id string, cmd EditorCommand) (*EditorView, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	e := sess.editor
	e.SetSettings(settings)
	var handled bool
	switch cmd.Type {
	case CmdPointerDown:
		handled = e.PointerDown(cmd.Pointer)
	case CmdPointerMove:
		handled = e.PointerMove(cmd.Pointer)
	case CmdPointerUp:
		handled = e.PointerUp(cmd.Pointer)
	case CmdWheel:
		handled = e.Wheel(cmd.DeltaY, cmd.Pointer.Mods)
	case CmdKey:
		handled = e.KeyDown(cmd.Key)
	case CmdSelect:
		e.Select(cmd.FieldID)
		handled = true
	case CmdZoom:
		e.SetScale(cmd.Scale)
		handled = true
	case CmdAdd:
		if _, err := e.AddField(cmd.FieldType, cmd.Name); err != nil {
			return nil, err
		}
		handled = true
	case CmdDelete:
		if cmd.FieldID != "" {
			e.Select(cmd.FieldID)
		}
		handled = e.DeleteSelected()
	case CmdUpdate:
		if cmd.Field == nil {
			return nil, errs.Invalid("editor.apply", "update needs a field")
		}
		if err := e.UpdateField(*cmd.Field); err != nil {
			return nil, err
		}
		handled = true
	case CmdUndo:
		handled = e.Undo()
	case CmdRedo:
		handled = e.Redo()
	default:
		return nil, errs.Invalid("editor.apply", "unknown command %q", cmd.Type)
	}
	return sess.view(handled), nil
}

// Save stores the session's fields into its template. The rest of the
// template is taken from the database so concurrent metadata edits survive.
func (s *EditorService) Save(ctx context.Context, id string) (*models.SaveTemplateResponse, error) {
	sess, err := s.session(id)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	tpl, err := s.templates.Get(ctx, sess.template.ID)
	if err != nil {
		return nil, err
	}
	sess.editor.ApplyTo(tpl)
	resp, err := s.templates.Update(ctx, tpl.ID, tpl)
	if err != nil {
		return nil, err
	}
	sess.template = resp.Template.Clone()
	return resp, nil
}

// Close ends a session.
func (s *EditorService) Close(id string) {
	s.sessions.Delete(id)
}

func (sess *editorSession) view(handled bool) *EditorView {
	e := sess.editor
	tpl := sess.template.Clone()
	e.ApplyTo(tpl)

	x, y := e.Scroll()
	l := layout.ResolveLayout(tpl, nil, nil)
	return &EditorView{
		SessionID:  sess.id,
		TemplateID: tpl.ID,
		State:      e.State().String(),
		Selected:   e.Selected(),
		Scale:      e.Scale(),
		ScrollX:    x,
		ScrollY:    y,
		CanUndo:    e.CanUndo(),
		CanRedo:    e.CanRedo(),
		Handled:    handled,
		Fields:     tpl.Fields,
		Layout:     generator.BuildInteractive(l, e.Scale(), sess.fonts, e.Selected()),
	}
}
