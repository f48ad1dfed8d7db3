// Package fonts resolves a field's font family to a glyph source for each
// render backend. Three built-in families need no file I/O anywhere;
// custom families are uploaded TrueType files addressed by name.
package fonts

import (
	"strings"

	"certificate-service/internal/models"
)

// Built-in family keys.
const (
	TimesRoman = "TimesRoman"
	Helvetica  = "Helvetica"
	Courier    = "Courier"
)

// Resolved is a font family key resolved for rendering.
type Resolved struct {
	Key     string // TimesRoman, Helvetica, Courier or a custom font name
	Builtin bool
	// PDFFamily is the gofpdf family: a core font name or the custom key.
	PDFFamily string
}

var builtinAliases = map[string]string{
	"timesroman":  TimesRoman,
	"times-roman": TimesRoman,
	"times":       TimesRoman,
	"serif":       TimesRoman,
	"helvetica":   Helvetica,
	"sans":        Helvetica,
	"sans-serif":  Helvetica,
	"courier":     Courier,
	"monospace":   Courier,
}

var pdfCoreFamily = map[string]string{
	TimesRoman: "Times",
	Helvetica:  "Helvetica",
	Courier:    "Courier",
}

// Default is what empty or unusable families fall back to.
var Default = Resolved{Key: TimesRoman, Builtin: true, PDFFamily: "Times"}

// Resolve maps a family name to a built-in or custom font.
func Resolve(family string) Resolved {
	name := strings.TrimSpace(family)
	if name == "" {
		return Default
	}
	if key, ok := builtinAliases[strings.ToLower(name)]; ok {
		return Resolved{Key: key, Builtin: true, PDFFamily: pdfCoreFamily[key]}
	}
	return Resolved{Key: name, PDFFamily: name}
}

// IsBuiltin reports whether name is reserved by a built-in family.
func IsBuiltin(name string) bool {
	_, ok := builtinAliases[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Builtins lists the built-in families.
func Builtins() []models.Font {
	return []models.Font{
		{Name: TimesRoman, Kind: models.FontBuiltin},
		{Name: Helvetica, Kind: models.FontBuiltin},
		{Name: Courier, Kind: models.FontBuiltin},
	}
}

// ============ CSS FALLBACK STACKS ============

const (
	serifStack = `"Times New Roman", Times, serif`
	sansStack  = `Helvetica, Arial, sans-serif`
	monoStack  = `"Courier New", Courier, monospace`
)

// Checked in this order: "sans-serif" contains "serif" and
// "Roboto Mono" contains "roboto".
var (
	monoHints  = []string{"mono", "courier", "consol", "menlo", "code"}
	sansHints  = []string{"sans", "helvetica", "arial", "verdana", "tahoma", "roboto", "inter", "calibri", "segoe", "lato"}
	serifHints = []string{"serif", "times", "roman", "georgia", "garamond", "palatino", "baskerville", "cambria", "book"}
)

func classify(name string) string {
	lower := strings.ToLower(name)
	for _, h := range monoHints {
		if strings.Contains(lower, h) {
			return monoStack
		}
	}
	for _, h := range sansHints {
		if strings.Contains(lower, h) {
			return sansStack
		}
	}
	for _, h := range serifHints {
		if strings.Contains(lower, h) {
			return serifStack
		}
	}
	return serifStack
}

// FamilyWithFallback builds a CSS font-family stack for name. The result is
// never empty; unknown names fall back to the serif chain.
func FamilyWithFallback(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return serifStack
	}
	if r := Resolve(name); r.Builtin {
		switch r.Key {
		case Helvetica:
			return sansStack
		case Courier:
			return monoStack
		default:
			return serifStack
		}
	}
	return cssQuote(name) + ", " + classify(name)
}

func cssQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
