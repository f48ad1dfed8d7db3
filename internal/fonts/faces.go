package fonts

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

type styled struct {
	regular *opentype.Font
	bold    *opentype.Font
}

var (
	builtinOnce  sync.Once
	builtinFonts map[string]styled
	builtinErr   error
)

// The Go font family has no serif face, so TimesRoman glyphs are drawn with
// Go Regular. Faces supply outlines only: callers position and size lines
// with the PDF core font metrics. Parsed fonts are immutable and shared by
// every render.
func loadBuiltins() (map[string]styled, error) {
	builtinOnce.Do(func() {
		parse := func(data []byte) *opentype.Font {
			f, err := opentype.Parse(data)
			if err != nil && builtinErr == nil {
				builtinErr = err
			}
			return f
		}
		sans := styled{regular: parse(goregular.TTF), bold: parse(gobold.TTF)}
		mono := styled{regular: parse(gomono.TTF), bold: parse(gomonobold.TTF)}
		builtinFonts = map[string]styled{
			TimesRoman: sans,
			Helvetica:  sans,
			Courier:    mono,
		}
	})
	return builtinFonts, builtinErr
}

type faceKey struct {
	key  string
	bold bool
	size float64
}

// Faces is the raster backend's font registry for a single render. Custom
// fonts must be registered before the first draw that uses them; lookups of
// unregistered custom fonts return the default face.
type Faces struct {
	dpi    float64
	custom map[string]*opentype.Font
	faces  map[faceKey]font.Face
}

// NewFaces creates a registry producing faces at dpi.
func NewFaces(dpi float64) (*Faces, error) {
	if _, err := loadBuiltins(); err != nil {
		return nil, fmt.Errorf("parse built-in fonts: %w", err)
	}
	return &Faces{
		dpi:    dpi,
		custom: make(map[string]*opentype.Font),
		faces:  make(map[faceKey]font.Face),
	}, nil
}

// Register parses and registers a custom font. Registering the same name
// twice is a no-op.
func (f *Faces) Register(name string, data []byte) error {
	if _, ok := f.custom[name]; ok {
		return nil
	}
	parsed, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", name, err)
	}
	f.custom[name] = parsed
	return nil
}

// Registered reports whether a custom font is available.
func (f *Faces) Registered(name string) bool {
	_, ok := f.custom[name]
	return ok
}

// Face returns a face for r at sizePt points. Custom fonts have a single
// weight; bold is honored for built-ins only.
func (f *Faces) Face(r Resolved, bold bool, sizePt float64) (font.Face, error) {
	if !r.Builtin && !f.Registered(r.Key) {
		r = Default
	}
	k := faceKey{key: r.Key, bold: bold && r.Builtin, size: sizePt}
	if face, ok := f.faces[k]; ok {
		return face, nil
	}

	var src *opentype.Font
	if r.Builtin {
		b := builtinFonts[r.Key]
		src = b.regular
		if bold {
			src = b.bold
		}
	} else {
		src = f.custom[r.Key]
	}

	face, err := opentype.NewFace(src, &opentype.FaceOptions{
		Size:    sizePt,
		DPI:     f.dpi,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("font face %s %.1fpt: %w", r.Key, sizePt, err)
	}
	f.faces[k] = face
	return face, nil
}

// Close releases all faces.
func (f *Faces) Close() {
	for k, face := range f.faces {
		face.Close()
		delete(f.faces, k)
	}
}
