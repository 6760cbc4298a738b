package container

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/typesmith/ufolib/core"
)

// Writer builds a font source container at a path. For package structure it
// writes directly into the destination directory; for zip structure it
// stages a package tree in a temporary directory and zips it on Close.
//
// A writer bound to an existing container acts in update mode: files not
// explicitly rewritten or deleted stay as they are. This is what makes
// in-place saves of partially loaded documents possible.
type Writer struct {
	outer     afero.Fs
	path      string
	structure Structure
	validate  bool
	work      afero.Fs // rooted at the tree being built
	staging   string   // staging dir for zip structure, empty otherwise
	glyphSets map[string]*GlyphSet
	closed    bool
}

// NewWriter creates a writer bound to path. An empty structure selects the
// package structure.
func NewWriter(fsys afero.Fs, path string, structure Structure, validate bool) (*Writer, error) {
	if !structure.valid() {
		return nil, core.Error(core.EFORMAT, "unknown container structure %q", string(structure))
	}
	if structure == StructureDefault {
		structure = StructurePackage
	}
	w := &Writer{
		outer:     fsys,
		path:      path,
		structure: structure,
		validate:  validate,
		glyphSets: make(map[string]*GlyphSet),
	}
	switch structure {
	case StructurePackage:
		if err := fsys.MkdirAll(path, 0755); err != nil {
			return nil, core.WrapError(err, core.EIO, "cannot create container at %q", path)
		}
		w.work = afero.NewBasePathFs(fsys, path)
	case StructureZip:
		staging, err := afero.TempDir(fsys, "", "ufolib-zip")
		if err != nil {
			return nil, core.WrapError(err, core.EIO, "cannot create staging directory")
		}
		w.staging = staging
		w.work = afero.NewBasePathFs(fsys, staging)
		if ok, _ := afero.Exists(fsys, path); ok {
			// update mode: seed the staging tree from the existing archive,
			// so entries never rewritten survive the save
			if err := w.extractExisting(); err != nil {
				w.discard()
				return nil, err
			}
		}
	}
	if err := writePlist(w.work, fileMetaInfo, metaInfo{Creator: creatorID, FormatVersion: FormatVersion}); err != nil {
		w.discard()
		return nil, err
	}
	tracer().Debugf("writing %s container at %q", structure, path)
	return w, nil
}

func (w *Writer) extractExisting() error {
	data, err := afero.ReadFile(w.outer, w.path)
	if err != nil {
		return core.WrapError(err, core.EIO, "cannot read %q", w.path)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return core.WrapError(err, core.EFORMAT, "%q is not a zipped font source", w.path)
	}
	for _, f := range zr.File {
		name := strings.TrimPrefix(f.Name, "/")
		if name == "" || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if dir := path.Dir(name); dir != "." {
			if err := w.work.MkdirAll(dir, 0755); err != nil {
				return core.WrapError(err, core.EIO, "cannot unpack %q", name)
			}
		}
		rc, err := f.Open()
		if err != nil {
			return core.WrapError(err, core.EIO, "cannot unpack %q", name)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return core.WrapError(err, core.EIO, "cannot unpack %q", name)
		}
		if err := afero.WriteFile(w.work, name, content, 0644); err != nil {
			return core.WrapError(err, core.EIO, "cannot unpack %q", name)
		}
	}
	return nil
}

// Structure returns the packaging scheme the writer produces.
func (w *Writer) Structure() Structure {
	return w.structure
}

// Path returns the destination path the writer is bound to.
func (w *Writer) Path() string {
	return w.path
}

// WriteInfo writes the font info record. A nil record removes the file.
func (w *Writer) WriteInfo(v interface{}) error {
	if v == nil {
		return w.removeIfExists(fileFontInfo)
	}
	return writePlist(w.work, fileFontInfo, v)
}

// WriteFeatures writes the feature text. Empty text removes the file.
func (w *Writer) WriteFeatures(text string) error {
	if text == "" {
		return w.removeIfExists(fileFeatures)
	}
	if err := afero.WriteFile(w.work, fileFeatures, []byte(text), 0644); err != nil {
		return core.WrapError(err, core.EIO, "cannot write features")
	}
	return nil
}

// WriteGroups writes the glyph-group mapping.
func (w *Writer) WriteGroups(groups map[string][]string) error {
	if len(groups) == 0 {
		return w.removeIfExists(fileGroups)
	}
	return writePlist(w.work, fileGroups, groups)
}

// WriteKerning writes the kerning table.
func (w *Writer) WriteKerning(kerning map[string]map[string]float64) error {
	if len(kerning) == 0 {
		return w.removeIfExists(fileKerning)
	}
	return writePlist(w.work, fileKerning, kerning)
}

// WriteLib writes the font-wide lib.
func (w *Writer) WriteLib(lib map[string]interface{}) error {
	if len(lib) == 0 {
		return w.removeIfExists(fileLib)
	}
	return writePlist(w.work, fileLib, lib)
}

func (w *Writer) removeIfExists(p string) error {
	if ok, _ := afero.Exists(w.work, p); !ok {
		return nil
	}
	if err := w.work.Remove(p); err != nil {
		return core.WrapError(err, core.EIO, "cannot remove %s", p)
	}
	return nil
}

// WriteData writes one binary data entry. The name may be a nested
// slash-separated path.
func (w *Writer) WriteData(name string, data []byte) error {
	return w.writeEntry(dirData, name, data)
}

// RemoveData deletes one binary data entry.
func (w *Writer) RemoveData(name string) error {
	return w.removeEntry(dirData, name)
}

// WriteImage writes one image entry. In validating mode the payload must
// carry a PNG signature.
func (w *Writer) WriteImage(name string, data []byte) error {
	if w.validate && !isPNG(data) {
		return core.Error(core.EINVALID, "image %q is not a PNG", name)
	}
	return w.writeEntry(dirImages, name, data)
}

// RemoveImage deletes one image entry.
func (w *Writer) RemoveImage(name string) error {
	return w.removeEntry(dirImages, name)
}

func (w *Writer) writeEntry(dir, name string, data []byte) error {
	if name == "" || strings.HasPrefix(name, "/") || strings.Contains(name, "..") {
		return core.Error(core.EINVALID, "bad entry name %q", name)
	}
	p := path.Join(dir, name)
	if sub := path.Dir(p); sub != "." {
		if err := w.work.MkdirAll(sub, 0755); err != nil {
			return core.WrapError(err, core.EIO, "cannot write entry %q", name)
		}
	}
	if err := afero.WriteFile(w.work, p, data, 0644); err != nil {
		return core.WrapError(err, core.EIO, "cannot write entry %q", name)
	}
	return nil
}

func (w *Writer) removeEntry(dir, name string) error {
	if err := w.work.Remove(path.Join(dir, name)); err != nil {
		return core.WrapError(err, core.EIO, "cannot remove entry %q", name)
	}
	return nil
}

var pngSignature = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

func isPNG(data []byte) bool {
	return bytes.HasPrefix(data, pngSignature)
}

// --- Glyph sets ------------------------------------------------------------

// GlyphSet gives write access to the glyph directory of one layer. Creating
// a glyph set for a directory that already holds glyphs (in-place saves)
// picks up the existing contents bookkeeping, so untouched glyphs keep their
// files and their position in the ordering.
type GlyphSet struct {
	w     *Writer
	dir   string
	names []string
	files map[string]string
	taken map[string]bool
}

// GlyphSet returns the glyph set for a layer, creating its directory if
// necessary.
func (w *Writer) GlyphSet(layerName string, isDefault bool) (*GlyphSet, error) {
	dir := glyphsDirName(layerName, isDefault)
	if gs, ok := w.glyphSets[dir]; ok {
		return gs, nil
	}
	if err := w.work.MkdirAll(dir, 0755); err != nil {
		return nil, core.WrapError(err, core.EIO, "cannot create layer directory %q", dir)
	}
	gs := &GlyphSet{
		w:     w,
		dir:   dir,
		files: make(map[string]string),
		taken: make(map[string]bool),
	}
	var entries [][]string
	if err := readPlistIfExists(w.work, path.Join(dir, fileContents), &entries); err != nil {
		return nil, err
	}
	for _, e := range entries {
		if len(e) != 2 {
			continue
		}
		gs.names = append(gs.names, e[0])
		gs.files[e[0]] = e[1]
		gs.taken[e[1]] = true
	}
	w.glyphSets[dir] = gs
	return gs, nil
}

// Dir returns the directory of the glyph set within the container.
func (gs *GlyphSet) Dir() string {
	return gs.dir
}

// WriteGlyph writes the raw glyph record for name, assigning a file name on
// first write and keeping it stable afterwards.
func (gs *GlyphSet) WriteGlyph(name string, data []byte) error {
	if name == "" {
		return core.Error(core.EINVALID, "glyph has no name")
	}
	file, ok := gs.files[name]
	if !ok {
		file = glyphFileName(name, gs.taken)
		gs.files[name] = file
		gs.taken[file] = true
		gs.names = append(gs.names, name)
	}
	if err := afero.WriteFile(gs.w.work, path.Join(gs.dir, file), data, 0644); err != nil {
		return core.WrapError(err, core.EIO, "cannot write glyph %q", name)
	}
	return nil
}

// DeleteGlyph removes the glyph file for name and its contents entry.
// Deleting an unknown name is a no-op.
func (gs *GlyphSet) DeleteGlyph(name string) error {
	file, ok := gs.files[name]
	if !ok {
		return nil
	}
	delete(gs.files, name)
	delete(gs.taken, file)
	for i, n := range gs.names {
		if n == name {
			gs.names = append(gs.names[:i], gs.names[i+1:]...)
			break
		}
	}
	if err := gs.w.work.Remove(path.Join(gs.dir, file)); err != nil && !os.IsNotExist(err) {
		return core.WrapError(err, core.EIO, "cannot delete glyph %q", name)
	}
	return nil
}

// WriteContents flushes the ordered name-to-file bookkeeping of the set.
func (gs *GlyphSet) WriteContents() error {
	entries := make([][]string, 0, len(gs.names))
	for _, name := range gs.names {
		entries = append(entries, []string{name, gs.files[name]})
	}
	return writePlist(gs.w.work, path.Join(gs.dir, fileContents), entries)
}

// WriteLayerInfo writes the per-layer metadata record.
func (gs *GlyphSet) WriteLayerInfo(info LayerInfo) error {
	p := path.Join(gs.dir, fileLayerInfo)
	if info.Color == "" && len(info.Lib) == 0 {
		return gs.w.removeIfExists(p)
	}
	return writePlist(gs.w.work, p, info)
}

// DeleteGlyphSet removes a non-default layer directory from the container.
func (w *Writer) DeleteGlyphSet(layerName string) error {
	return w.DeleteGlyphDir(glyphsDirName(layerName, false))
}

// DeleteGlyphDir removes a layer directory from the container by its
// directory name. Used when a layer moved to a different directory (rename,
// default-layer change) and the old tree has to go.
func (w *Writer) DeleteGlyphDir(dir string) error {
	delete(w.glyphSets, dir)
	if err := w.work.RemoveAll(dir); err != nil {
		return core.WrapError(err, core.EIO, "cannot delete layer directory %q", dir)
	}
	return nil
}

// WriteLayerContents writes the ordered layer registry. Entries with an
// empty Dir get their directory derived from name and default flag.
func (w *Writer) WriteLayerContents(entries []LayerEntry) error {
	out := make([][]string, 0, len(entries))
	for _, e := range entries {
		dir := e.Dir
		if dir == "" {
			dir = glyphsDirName(e.Name, e.Default)
		}
		out = append(out, []string{e.Name, dir})
	}
	return writePlist(w.work, fileLayerContents, out)
}

// Close finalizes the container. For zip structure this produces the actual
// archive; the staging tree is removed in any case. Close is idempotent.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.structure != StructureZip {
		return nil
	}
	defer w.discard()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	err := afero.Walk(w.work, ".", func(p string, fi os.FileInfo, err error) error {
		if err != nil || fi == nil || fi.IsDir() {
			return err
		}
		name := strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./")
		name = strings.TrimPrefix(name, "/")
		f, err := zw.Create(name)
		if err != nil {
			return err
		}
		content, err := afero.ReadFile(w.work, p)
		if err != nil {
			return err
		}
		_, err = f.Write(content)
		return err
	})
	if err != nil {
		zw.Close()
		return core.WrapError(err, core.EIO, "cannot assemble archive for %q", w.path)
	}
	if err := zw.Close(); err != nil {
		return core.WrapError(err, core.EIO, "cannot assemble archive for %q", w.path)
	}
	if err := afero.WriteFile(w.outer, w.path, buf.Bytes(), 0644); err != nil {
		return core.WrapError(err, core.EIO, "cannot write archive %q", w.path)
	}
	return nil
}

// Abort discards the writer without finalizing the container. For zip
// structure no archive is produced and the staging tree is removed. A closed
// writer cannot be aborted.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	w.discard()
}

// discard removes the staging tree, if any.
func (w *Writer) discard() {
	if w.staging == "" {
		return
	}
	if err := w.outer.RemoveAll(w.staging); err != nil {
		tracer().Errorf("cannot remove staging directory %q: %v", w.staging, err)
	}
	w.staging = ""
}

// SetModificationTime stamps the destination with the current time. Callers
// invoke this after a successful write, mirroring the save protocol's
// finalization step.
func (w *Writer) SetModificationTime() error {
	now := time.Now()
	if err := w.outer.Chtimes(w.path, now, now); err != nil {
		return core.WrapError(err, core.EIO, "cannot stamp %q", w.path)
	}
	return nil
}
