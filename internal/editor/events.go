package editor

// Button is a pointer button.
type Button int

const (
	ButtonPrimary Button = iota
	ButtonMiddle
	ButtonSecondary
)

// Modifiers are the keyboard modifiers held during an event.
type Modifiers struct {
	Shift bool `json:"shift,omitempty"`
	Ctrl  bool `json:"ctrl,omitempty"`
	Alt   bool `json:"alt,omitempty"`
	Meta  bool `json:"meta,omitempty"`
}

// Command reports whether the platform command modifier (Ctrl or Meta) is held.
func (m Modifiers) Command() bool { return m.Ctrl || m.Meta }

// PointerEvent is a pointer position in canvas-local pixels.
type PointerEvent struct {
	X      float64   `json:"x"`
	Y      float64   `json:"y"`
	Button Button    `json:"button"`
	Mods   Modifiers `json:"mods"`
}

// Key names the keys the editor handles.
type Key string

const (
	KeyLeft      Key = "ArrowLeft"
	KeyRight     Key = "ArrowRight"
	KeyUp        Key = "ArrowUp"
	KeyDown      Key = "ArrowDown"
	KeyDelete    Key = "Delete"
	KeyBackspace Key = "Backspace"
	KeyEscape    Key = "Escape"
)

// KeyEvent is a key press. InTextInput is set when focus is in a text
// input, where editing keys belong to the input.
type KeyEvent struct {
	Key         Key       `json:"key"`
	Mods        Modifiers `json:"mods"`
	InTextInput bool      `json:"inTextInput,omitempty"`
}
