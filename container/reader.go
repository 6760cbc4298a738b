package container

import (
	"archive/zip"
	"bytes"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/afero/zipfs"
	"github.com/typesmith/ufolib/core"
)

// Reader provides read access to a font source container. It is bound to a
// path on an afero filesystem and detects the container structure from what
// it finds there: a directory is read as a package, a regular file as a
// zipped package.
type Reader struct {
	fsys      afero.Fs // rooted at the container
	path      string
	structure Structure
	validate  bool
	layers    []LayerEntry
	contents  map[string]*readContents // keyed by layer dir
	zipNames  []string                 // archive entry names, zip structure only
	closed    bool
}

type readContents struct {
	names []string
	files map[string]string
}

// NewReader opens a container at path. With validate set, conformance checks
// are performed while enumerating and parsing (format version, bookkeeping
// consistency); without it the reader is lenient.
func NewReader(fsys afero.Fs, path string, validate bool) (*Reader, error) {
	fi, err := fsys.Stat(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "no font source at %q", path)
	}
	r := &Reader{
		path:     path,
		validate: validate,
		contents: make(map[string]*readContents),
	}
	if fi.IsDir() {
		r.structure = StructurePackage
		r.fsys = afero.NewBasePathFs(fsys, path)
	} else {
		r.structure = StructureZip
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return nil, core.WrapError(err, core.EIO, "cannot read %q", path)
		}
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, core.WrapError(err, core.EFORMAT, "%q is not a zipped font source", path)
		}
		// anchor relative paths at the archive root
		r.fsys = afero.NewBasePathFs(zipfs.New(zr), "/")
		// archives routinely lack directory entries, so enumeration has to
		// work off the file list instead of walking the filesystem
		for _, f := range zr.File {
			name := strings.Trim(f.Name, "/")
			if name == "" || strings.HasSuffix(f.Name, "/") {
				continue
			}
			r.zipNames = append(r.zipNames, name)
		}
	}
	if err := r.readMetaInfo(); err != nil {
		return nil, err
	}
	if err := r.readLayerContents(); err != nil {
		return nil, err
	}
	tracer().Debugf("opened %s container at %q with %d layer(s)", r.structure, path, len(r.layers))
	return r, nil
}

func (r *Reader) readMetaInfo() error {
	var meta metaInfo
	err := readPlist(r.fsys, fileMetaInfo, &meta)
	if !r.validate {
		return nil
	}
	if err != nil {
		return err
	}
	if meta.FormatVersion != FormatVersion {
		return core.Error(core.EFORMAT, "unsupported format version: %d", meta.FormatVersion)
	}
	return nil
}

func (r *Reader) readLayerContents() error {
	var entries [][]string
	if err := readPlist(r.fsys, fileLayerContents, &entries); err != nil {
		return core.WrapError(err, core.EFORMAT, "container has no layer contents")
	}
	seen := make(map[string]bool)
	ndefault := 0
	for _, e := range entries {
		if len(e) != 2 || e[0] == "" || e[1] == "" {
			return core.Error(core.EFORMAT, "malformed layer contents entry %v", e)
		}
		if seen[e[0]] {
			return core.Error(core.EFORMAT, "duplicate layer name %q", e[0])
		}
		seen[e[0]] = true
		isDefault := e[1] == defaultGlyphsDir
		if isDefault {
			ndefault++
		}
		r.layers = append(r.layers, LayerEntry{Name: e[0], Dir: e[1], Default: isDefault})
	}
	if len(r.layers) == 0 {
		return core.Error(core.EFORMAT, "container has no layers")
	}
	if ndefault != 1 {
		if r.validate {
			return core.Error(core.EFORMAT, "container must have exactly one default layer, has %d", ndefault)
		}
		// lenient mode: treat the first layer as the default
		for i := range r.layers {
			r.layers[i].Default = i == 0
		}
	}
	return nil
}

// Structure returns the packaging scheme the container was opened with.
func (r *Reader) Structure() Structure {
	return r.structure
}

// Path returns the path the reader is bound to.
func (r *Reader) Path() string {
	return r.path
}

// Layers lists the glyph layers of the container, in container order.
func (r *Reader) Layers() []LayerEntry {
	out := make([]LayerEntry, len(r.layers))
	copy(out, r.layers)
	return out
}

// DefaultLayerName returns the name of the container's default layer.
func (r *Reader) DefaultLayerName() string {
	for _, e := range r.layers {
		if e.Default {
			return e.Name
		}
	}
	return "" // unreachable after successful NewReader
}

func (r *Reader) ensureOpen() error {
	if r.closed {
		return core.Error(core.EINTERNAL, "container reader at %q is closed", r.path)
	}
	return nil
}

func (r *Reader) glyphContents(dir string) (*readContents, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	if c, ok := r.contents[dir]; ok {
		return c, nil
	}
	var entries [][]string
	if err := readPlist(r.fsys, path.Join(dir, fileContents), &entries); err != nil {
		return nil, core.WrapError(err, core.EFORMAT, "layer %q has no contents", dir)
	}
	c := &readContents{files: make(map[string]string)}
	for _, e := range entries {
		if len(e) != 2 || e[0] == "" || e[1] == "" {
			return nil, core.Error(core.EFORMAT, "malformed contents entry %v in %q", e, dir)
		}
		if _, ok := c.files[e[0]]; ok {
			return nil, core.Error(core.EFORMAT, "duplicate glyph %q in %q", e[0], dir)
		}
		c.names = append(c.names, e[0])
		c.files[e[0]] = e[1]
	}
	r.contents[dir] = c
	return c, nil
}

// GlyphNames lists the glyph names of a layer directory, in container order.
func (r *Reader) GlyphNames(dir string) ([]string, error) {
	c, err := r.glyphContents(dir)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out, nil
}

// ReadGlyph returns the raw glyph record for name within a layer directory.
func (r *Reader) ReadGlyph(dir, name string) ([]byte, error) {
	c, err := r.glyphContents(dir)
	if err != nil {
		return nil, err
	}
	file, ok := c.files[name]
	if !ok {
		return nil, core.Error(core.EMISSING, "no glyph %q in layer %q", name, dir)
	}
	data, err := afero.ReadFile(r.fsys, path.Join(dir, file))
	if err != nil {
		return nil, core.WrapError(err, core.EIO, "cannot read glyph %q", name)
	}
	return data, nil
}

// ReadLayerInfo reads the per-layer metadata record of a layer directory.
// A missing record yields the zero value.
func (r *Reader) ReadLayerInfo(dir string) (LayerInfo, error) {
	var info LayerInfo
	if err := r.ensureOpen(); err != nil {
		return info, err
	}
	err := readPlistIfExists(r.fsys, path.Join(dir, fileLayerInfo), &info)
	return info, err
}

// DataNames lists the keys of the binary data store. Keys are slash-separated
// paths relative to the data directory.
func (r *Reader) DataNames() ([]string, error) {
	return r.listEntries(dirData, true)
}

// ImageNames lists the keys of the image store.
func (r *Reader) ImageNames() ([]string, error) {
	return r.listEntries(dirImages, false)
}

func (r *Reader) listEntries(dir string, nested bool) ([]string, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	if r.structure == StructureZip {
		var names []string
		prefix := dir + "/"
		for _, n := range r.zipNames {
			if !strings.HasPrefix(n, prefix) {
				continue
			}
			rel := n[len(prefix):]
			if rel == "" || (!nested && strings.Contains(rel, "/")) {
				continue
			}
			names = append(names, rel)
		}
		sort.Strings(names)
		return names, nil
	}
	ok, err := afero.DirExists(r.fsys, dir)
	if err != nil {
		return nil, core.WrapError(err, core.EIO, "cannot stat %s", dir)
	}
	if !ok {
		return nil, nil
	}
	var names []string
	err = afero.Walk(r.fsys, dir, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		rel := strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), dir+"/")
		if !nested && strings.Contains(rel, "/") {
			return nil
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, core.WrapError(err, core.EIO, "cannot list %s", dir)
	}
	sort.Strings(names)
	return names, nil
}

// ReadData returns one binary data entry.
func (r *Reader) ReadData(name string) ([]byte, error) {
	return r.readEntry(dirData, name)
}

// ReadImage returns one image entry.
func (r *Reader) ReadImage(name string) ([]byte, error) {
	return r.readEntry(dirImages, name)
}

func (r *Reader) readEntry(dir, name string) ([]byte, error) {
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(r.fsys, path.Join(dir, name))
	if err != nil {
		return nil, core.WrapError(err, core.EIO, "cannot read entry %q", name)
	}
	return data, nil
}

// ReadInfo unmarshals the font info record into dst; a missing record leaves
// dst untouched.
func (r *Reader) ReadInfo(dst interface{}) error {
	return readPlistIfExists(r.fsys, fileFontInfo, dst)
}

// ReadFeatures returns the feature text of the container.
func (r *Reader) ReadFeatures() (string, error) {
	ok, err := afero.Exists(r.fsys, fileFeatures)
	if err != nil || !ok {
		return "", err
	}
	data, err := afero.ReadFile(r.fsys, fileFeatures)
	if err != nil {
		return "", core.WrapError(err, core.EIO, "cannot read features")
	}
	return string(data), nil
}

// ReadGroups returns the glyph-group mapping of the container.
func (r *Reader) ReadGroups() (map[string][]string, error) {
	groups := make(map[string][]string)
	err := readPlistIfExists(r.fsys, fileGroups, &groups)
	return groups, err
}

// ReadKerning returns the kerning table of the container.
func (r *Reader) ReadKerning() (map[string]map[string]float64, error) {
	kerning := make(map[string]map[string]float64)
	err := readPlistIfExists(r.fsys, fileKerning, &kerning)
	return kerning, err
}

// ReadLib returns the font-wide lib of the container.
func (r *Reader) ReadLib() (map[string]interface{}, error) {
	lib := make(map[string]interface{})
	err := readPlistIfExists(r.fsys, fileLib, &lib)
	return lib, err
}

// Close releases the reader. Zipped containers are fully buffered in memory,
// so there is nothing to tear down, but any read after closing fails.
func (r *Reader) Close() error {
	r.closed = true
	r.contents = nil
	return nil
}
