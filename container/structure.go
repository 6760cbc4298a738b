package container

import (
	"fmt"
	"strings"
)

// Structure is the on-disk packaging scheme of a font source container.
type Structure string

const (
	// StructureDefault lets the writer pick a structure (currently: package).
	StructureDefault Structure = ""
	// StructurePackage is a plain directory tree.
	StructurePackage Structure = "package"
	// StructureZip is a single zipped file containing the package tree.
	StructureZip Structure = "zip"
)

func (s Structure) valid() bool {
	switch s {
	case StructureDefault, StructurePackage, StructureZip:
		return true
	}
	return false
}

// FormatVersion is the single container format version this module
// understands. Other versions are rejected outright.
const FormatVersion = 3

const creatorID = "com.typesmith.ufolib"

// Well-known file and directory names inside a container.
const (
	fileMetaInfo      = "metainfo.plist"
	fileFontInfo      = "fontinfo.plist"
	fileFeatures      = "features.fea"
	fileGroups        = "groups.plist"
	fileKerning       = "kerning.plist"
	fileLib           = "lib.plist"
	fileLayerContents = "layercontents.plist"
	fileLayerInfo     = "layerinfo.plist"
	fileContents      = "contents.plist"
	dirData           = "data"
	dirImages         = "images"
	defaultGlyphsDir  = "glyphs"
)

type metaInfo struct {
	Creator       string `plist:"creator"`
	FormatVersion int    `plist:"formatVersion"`
}

// LayerEntry describes one glyph layer of a container: its public name, the
// directory it is stored in, and whether it is the default layer.
type LayerEntry struct {
	Name    string
	Dir     string
	Default bool
}

// LayerInfo is the per-layer metadata record (layerinfo.plist).
type LayerInfo struct {
	Color string                 `plist:"color,omitempty"`
	Lib   map[string]interface{} `plist:"lib,omitempty"`
}

// GlyphsDir returns the directory a layer occupies within a container. The
// default layer always lives in "glyphs"; other layers get a derived,
// filesystem-safe directory.
func GlyphsDir(layerName string, isDefault bool) string {
	return glyphsDirName(layerName, isDefault)
}

// glyphsDirName maps a layer name to its directory. The default layer always
// lives in "glyphs"; other layers get a derived, filesystem-safe directory.
func glyphsDirName(layerName string, isDefault bool) string {
	if isDefault {
		return defaultGlyphsDir
	}
	return defaultGlyphsDir + "." + escapeName(layerName)
}

// escapeName makes an entry name safe for use as a file or directory name.
// The scheme is conservative: anything outside a small safe set becomes '_',
// and a leading dot is masked so names never hide as dotfiles.
func escapeName(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case r == '.' && i == 0:
			b.WriteString("_.")
		case r < 0x20 || r == 0x7F:
			b.WriteByte('_')
		case strings.ContainsRune(`"*+/:<>?[\]|`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// glyphFileName derives a file name for a glyph, avoiding names already
// taken within the glyph set.
func glyphFileName(glyphName string, taken map[string]bool) string {
	base := escapeName(glyphName)
	file := base + ".glif"
	for n := 1; taken[file]; n++ {
		file = fmt.Sprintf("%s%06d.glif", base, n)
	}
	return file
}
