package fonts

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// FontFace is a CSS @font-face declaration for a custom font.
type FontFace struct {
	Family string `json:"family"`
	URL    string `json:"url"`
}

// CSS renders the declaration.
func (f FontFace) CSS() string {
	return fmt.Sprintf("@font-face { font-family: %s; src: url(%q) format(\"truetype\"); font-display: block; }",
		cssQuote(f.Family), f.URL)
}

// Session is the set of custom fonts already injected into one editor
// page. Inject is idempotent per font name.
type Session struct {
	urlPrefix string

	mu     sync.Mutex
	loaded map[string]bool
	faces  []FontFace
}

// NewSession creates an empty session. urlPrefix is the endpoint serving
// font files, e.g. "/api/fonts/".
func NewSession(urlPrefix string) *Session {
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &Session{urlPrefix: urlPrefix, loaded: make(map[string]bool)}
}

// Inject registers a @font-face for family unless it is built-in or was
// injected before. It reports whether a new declaration was added.
func (s *Session) Inject(family string) (FontFace, bool) {
	r := Resolve(family)
	if r.Builtin {
		return FontFace{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded[r.Key] {
		return FontFace{}, false
	}
	face := FontFace{Family: r.Key, URL: s.urlPrefix + url.PathEscape(r.Key+FontExt)}
	s.loaded[r.Key] = true
	s.faces = append(s.faces, face)
	return face, true
}

// Loaded reports whether family has been injected.
func (s *Session) Loaded(family string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded[Resolve(family).Key]
}

// Faces returns the injected declarations in injection order.
func (s *Session) Faces() []FontFace {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]FontFace, len(s.faces))
	copy(out, s.faces)
	return out
}
