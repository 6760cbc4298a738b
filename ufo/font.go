package ufo

import (
	"os"
	"path"

	"github.com/spf13/afero"

	"github.com/typesmith/ufolib/container"
	"github.com/typesmith/ufolib/core"
)

// Font-wide lib keys exposed as typed views.
const glyphOrderKey = "public.glyphOrder"

// Font is the root aggregate of a font source document: the layer set plus
// font-wide metadata, features, groups, kerning, lib and the two binary
// stores. A font is either transient (created with New, no path yet) or
// bound to a container path it was opened from or last saved to.
type Font struct {
	// Layers is the font's layer set; the default layer holds the outlines
	// of the font proper.
	Layers *LayerSet

	// Info is the font-wide metadata record.
	Info Info

	// Features is the OpenType feature text.
	Features Features

	// Groups maps group names to member glyph names.
	Groups map[string][]string

	// Kerning is the font's kerning table.
	Kerning Kerning

	// Lib maps string keys to arbitrary font-wide data.
	Lib map[string]interface{}

	// Data holds arbitrary binary entries keyed by slash-separated paths.
	Data *BlobStore

	// Images holds the font's image entries.
	Images *BlobStore

	fsys      afero.Fs
	path      string
	structure container.Structure
	reader    *container.Reader
}

// New creates an empty transient font with a single default layer.
func New() *Font {
	return &Font{
		Layers:  NewLayerSet(),
		Groups:  make(map[string][]string),
		Kerning: make(Kerning),
		Lib:     make(map[string]interface{}),
		Data:    NewDataStore(),
		Images:  NewImageStore(),
	}
}

// OpenOptions modify Open. The zero value opens lazily and with
// conformance validation, from the host filesystem.
type OpenOptions struct {
	// Eager loads every glyph and binary entry up front and releases the
	// container immediately.
	Eager bool
	// NoValidate skips conformance checks while reading.
	NoValidate bool
	// FS overrides the filesystem the path is resolved on.
	FS afero.Fs
}

// Open reads a font source container at path. By default the document is
// materialized lazily: layer and store keys are enumerated up front, but
// glyphs and binary payloads are pulled from the container on first access.
// The font then keeps the container open until it is closed or saved to a
// new destination.
func Open(fontPath string, opts *OpenOptions) (*Font, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	if fontPath != "" {
		fontPath = path.Clean(fontPath)
	}
	lazy := !opts.Eager
	r, err := container.NewReader(fsys, fontPath, !opts.NoValidate)
	if err != nil {
		return nil, err
	}
	f := New()
	f.fsys = fsys
	f.path = fontPath
	f.structure = r.Structure()
	if err := f.readRecords(r); err != nil {
		r.Close()
		return nil, err
	}
	f.Layers, err = readLayerSet(r, lazy)
	if err == nil {
		f.Data, err = readBlobStore(dataOps, r, lazy)
	}
	if err == nil {
		f.Images, err = readBlobStore(imageOps, r, lazy)
	}
	if err != nil {
		r.Close()
		return nil, err
	}
	if lazy {
		f.reader = r
	} else {
		r.Close()
	}
	tracer().Infof("opened font %q (%s), lazy=%v", fontPath, f.structure, lazy)
	return f, nil
}

// readRecords loads the small font-wide records. These are cheap and always
// read eagerly; laziness applies to glyphs and binary payloads.
func (f *Font) readRecords(r *container.Reader) error {
	if err := r.ReadInfo(&f.Info); err != nil {
		return err
	}
	text, err := r.ReadFeatures()
	if err != nil {
		return err
	}
	f.Features.Text = text
	if f.Groups, err = r.ReadGroups(); err != nil {
		return err
	}
	kerning, err := r.ReadKerning()
	if err != nil {
		return err
	}
	f.Kerning = kerning
	if f.Lib, err = r.ReadLib(); err != nil {
		return err
	}
	return nil
}

// Path returns the container path the font is bound to, empty for a
// transient font.
func (f *Font) Path() string {
	return f.path
}

// Structure returns the packaging scheme of the bound container.
func (f *Font) Structure() container.Structure {
	return f.structure
}

// --- Default-layer conveniences --------------------------------------------

// DefaultLayer returns the default layer of the font.
func (f *Font) DefaultLayer() (*Layer, error) {
	return f.Layers.DefaultLayer()
}

// Glyph returns the named glyph from the default layer.
func (f *Font) Glyph(name string) (*Glyph, error) {
	l, err := f.DefaultLayer()
	if err != nil {
		return nil, err
	}
	return l.Glyph(name)
}

// Has reports whether the default layer contains a glyph with this name.
func (f *Font) Has(name string) bool {
	l, err := f.DefaultLayer()
	if err != nil {
		return false
	}
	return l.Has(name)
}

// NewGlyph creates an empty glyph with this name in the default layer.
func (f *Font) NewGlyph(name string) (*Glyph, error) {
	l, err := f.DefaultLayer()
	if err != nil {
		return nil, err
	}
	return l.NewGlyph(name)
}

// AddGlyph adds a glyph to the default layer under its own name.
func (f *Font) AddGlyph(g *Glyph) error {
	l, err := f.DefaultLayer()
	if err != nil {
		return err
	}
	return l.AddGlyph(g)
}

// DeleteGlyph removes the named glyph from the default layer.
func (f *Font) DeleteGlyph(name string) error {
	l, err := f.DefaultLayer()
	if err != nil {
		return err
	}
	return l.DeleteGlyph(name)
}

// RenameGlyph renames a glyph within the default layer.
func (f *Font) RenameGlyph(name, newName string, overwrite bool) error {
	l, err := f.DefaultLayer()
	if err != nil {
		return err
	}
	return l.RenameGlyph(name, newName, overwrite)
}

// GlyphNames lists the glyph names of the default layer.
func (f *Font) GlyphNames() ([]string, error) {
	l, err := f.DefaultLayer()
	if err != nil {
		return nil, err
	}
	return l.GlyphNames(), nil
}

// --- Lib and info views -----------------------------------------------------

// GlyphOrder returns the public glyph ordering recorded in the font lib.
func (f *Font) GlyphOrder() []string {
	switch order := f.Lib[glyphOrderKey].(type) {
	case []string:
		return append([]string(nil), order...)
	case []interface{}:
		out := make([]string, 0, len(order))
		for _, v := range order {
			if s, ok := asString(v); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// SetGlyphOrder records a public glyph ordering in the font lib. An empty
// order removes the entry.
func (f *Font) SetGlyphOrder(order []string) {
	if len(order) == 0 {
		delete(f.Lib, glyphOrderKey)
		return
	}
	f.Lib[glyphOrderKey] = append([]string(nil), order...)
}

// Guidelines returns the font-wide guidelines.
func (f *Font) Guidelines() []Guideline {
	return f.Info.Guidelines
}

// SetGuidelines replaces the font-wide guidelines after validating each.
func (f *Font) SetGuidelines(gls []Guideline) error {
	for _, gl := range gls {
		if err := gl.validate(); err != nil {
			return err
		}
	}
	f.Info.Guidelines = gls
	return nil
}

// --- Saving ------------------------------------------------------------------

// SaveOptions modify Save. The zero value saves in place, in the structure
// the font was read with, validating on the way out.
type SaveOptions struct {
	// FormatVersion pins the container format version; zero selects the
	// current version. Other versions are rejected.
	FormatVersion int
	// Structure overrides the packaging scheme of the destination.
	Structure container.Structure
	// Overwrite permits replacing an existing container at a new
	// destination path. The replacement is atomic: the new container is
	// staged completely before the old one is touched.
	Overwrite bool
	// NoValidate skips conformance checks while writing.
	NoValidate bool
	// FS overrides the filesystem the destination is resolved on.
	FS afero.Fs
}

// Save writes the font to a container. An empty path saves in place, which
// rewrites only what is loaded or scheduled for deletion and leaves
// untouched entries as they are. A non-empty path saves the complete
// document to that destination, even when it names the current location;
// saving onto an existing destination requires Overwrite. A failed save
// never damages previously saved data.
//
// After a successful save the font is bound to the destination.
func (f *Font) Save(fontPath string, opts *SaveOptions) error {
	if opts == nil {
		opts = &SaveOptions{}
	}
	if opts.FormatVersion != 0 && opts.FormatVersion != container.FormatVersion {
		return core.Error(core.EFORMAT, "unsupported format version: %d", opts.FormatVersion)
	}
	fsys := opts.FS
	if fsys == nil {
		fsys = f.fsys
	}
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	structure := opts.Structure
	if structure == container.StructureDefault {
		structure = f.structure
	}
	if structure == container.StructureDefault {
		structure = container.StructurePackage
	}
	saveAs := fontPath != ""
	if saveAs {
		fontPath = path.Clean(fontPath)
	} else {
		if f.path == "" {
			return core.Error(core.EINVALID, "transient font needs a destination path")
		}
		fontPath = f.path
	}
	if !saveAs && f.structure != container.StructureDefault && structure != f.structure {
		return core.Error(core.EINVALID, "cannot change container structure in place, save to a new path")
	}

	exists := false
	if saveAs {
		if ok, _ := afero.Exists(fsys, fontPath); ok {
			exists = true
			if !opts.Overwrite {
				return core.Error(core.EEXISTS, "%q already exists", fontPath)
			}
		}
	}

	writePath := fontPath
	staging := ""
	if saveAs && exists {
		dir, err := afero.TempDir(fsys, "", "ufolib-save")
		if err != nil {
			return core.WrapError(err, core.EIO, "cannot create staging directory")
		}
		staging = dir
		writePath = path.Join(staging, path.Base(fontPath))
	}

	err := f.writeContainer(fsys, writePath, structure, !opts.NoValidate, saveAs)
	if err != nil {
		if staging != "" {
			fsys.RemoveAll(staging)
		}
		return err
	}
	if staging != "" {
		defer fsys.RemoveAll(staging)
		if err := fsys.RemoveAll(fontPath); err != nil {
			return core.WrapError(err, core.EIO, "cannot replace %q", fontPath)
		}
		if err := moveTree(fsys, writePath, fontPath); err != nil {
			return err
		}
	}

	if saveAs {
		// the document is fully materialized now, the old container is
		// no longer needed
		if f.reader != nil {
			f.reader.Close()
			f.reader = nil
		}
	}
	f.fsys = fsys
	f.path = fontPath
	f.structure = structure
	tracer().Infof("saved font to %q (%s)", fontPath, structure)
	return nil
}

func (f *Font) writeContainer(fsys afero.Fs, fontPath string, structure container.Structure, validate, saveAs bool) error {
	w, err := container.NewWriter(fsys, fontPath, structure, validate)
	if err != nil {
		return err
	}
	abort := func(err error) error {
		w.Abort()
		return err
	}
	if err := w.WriteFeatures(f.Features.Text); err != nil {
		return abort(err)
	}
	if err := w.WriteGroups(f.Groups); err != nil {
		return abort(err)
	}
	if f.Info.IsEmpty() {
		if err := w.WriteInfo(nil); err != nil {
			return abort(err)
		}
	} else if err := w.WriteInfo(&f.Info); err != nil {
		return abort(err)
	}
	if err := w.WriteKerning(f.Kerning); err != nil {
		return abort(err)
	}
	if err := w.WriteLib(f.Lib); err != nil {
		return abort(err)
	}
	if err := f.Layers.write(w, saveAs); err != nil {
		return abort(err)
	}
	if err := f.Data.write(w, saveAs); err != nil {
		return abort(err)
	}
	if err := f.Images.write(w, saveAs); err != nil {
		return abort(err)
	}
	if err := w.Close(); err != nil {
		return err
	}
	return w.SetModificationTime()
}

// moveTree relocates a file or directory tree. Rename only works reliably
// across the board on the host filesystem; elsewhere the tree is copied.
func moveTree(fsys afero.Fs, src, dst string) error {
	if _, ok := fsys.(*afero.OsFs); ok {
		if err := fsys.Rename(src, dst); err == nil {
			return nil
		}
	}
	fi, err := fsys.Stat(src)
	if err != nil {
		return core.WrapError(err, core.EIO, "cannot move %q", src)
	}
	if !fi.IsDir() {
		data, err := afero.ReadFile(fsys, src)
		if err != nil {
			return core.WrapError(err, core.EIO, "cannot move %q", src)
		}
		if err := afero.WriteFile(fsys, dst, data, 0644); err != nil {
			return core.WrapError(err, core.EIO, "cannot move %q", src)
		}
		return fsys.Remove(src)
	}
	err = afero.Walk(fsys, src, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel := relPath(src, p)
		target := dst
		if rel != "" {
			target = path.Join(dst, rel)
		}
		if fi.IsDir() {
			return fsys.MkdirAll(target, 0755)
		}
		data, err := afero.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		return afero.WriteFile(fsys, target, data, 0644)
	})
	if err != nil {
		return core.WrapError(err, core.EIO, "cannot move %q", src)
	}
	return fsys.RemoveAll(src)
}

func relPath(base, p string) string {
	if p == base {
		return ""
	}
	rel := p[len(base):]
	for len(rel) > 0 && (rel[0] == '/' || rel[0] == '\\') {
		rel = rel[1:]
	}
	return rel
}

// LoadAll materializes every glyph and binary entry and releases the
// originating container. The document is complete in memory afterwards.
func (f *Font) LoadAll() error {
	if err := f.Layers.loadAll(); err != nil {
		return err
	}
	if err := f.Data.loadAll(); err != nil {
		return err
	}
	if err := f.Images.loadAll(); err != nil {
		return err
	}
	return f.Close()
}

// Close releases the originating container, if the font still holds one.
// Unloaded glyphs and binary entries cannot be materialized afterwards.
func (f *Font) Close() error {
	if f.reader == nil {
		return nil
	}
	err := f.reader.Close()
	f.reader = nil
	return err
}
