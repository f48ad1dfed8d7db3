package fonts

import (
	"path/filepath"
	"regexp"
	"strings"
)

// FontExt is the only accepted upload extension.
const FontExt = ".ttf"

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename replaces every character outside [A-Za-z0-9._-] with an
// underscore: "My Custom Font!!.ttf" becomes "My_Custom_Font__.ttf".
func SanitizeFilename(name string) string {
	return unsafeFilenameChars.ReplaceAllString(name, "_")
}

// NameFromFilename strips the extension: the font's selectable family name.
func NameFromFilename(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

// hasTraversal reports names that must never reach storage.
func hasTraversal(name string) bool {
	return strings.Contains(name, "..") || strings.ContainsAny(name, `/\`)
}
