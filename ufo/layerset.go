package ufo

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/typesmith/ufolib/container"
	"github.com/typesmith/ufolib/core"
)

// DefaultLayerName is the name of the layer a new font starts out with.
const DefaultLayerName = "public.default"

type layerEntry struct {
	loaded bool
	dir    string // directory within the originating container, empty if new
	layer  *Layer
}

// LayerSet is the ordered collection of a font's glyph layers. Exactly one
// layer is the default layer at all times; it cannot be deleted, only
// supplanted by making another layer the default.
//
// A lazily read set knows its layer names up front and materializes layer
// objects on first access. Deleted layers are scheduled for removal at the
// next in-place save.
type LayerSet struct {
	layers      *linkedhashmap.Map // name -> layerEntry
	defaultName string
	deletedDirs *hashset.Set
	reader      *container.Reader
}

// NewLayerSet creates a set holding a single empty default layer.
func NewLayerSet() *LayerSet {
	ls := &LayerSet{
		layers:      linkedhashmap.New(),
		defaultName: DefaultLayerName,
		deletedDirs: hashset.New(),
	}
	ls.layers.Put(DefaultLayerName, layerEntry{loaded: true, layer: NewLayer(DefaultLayerName)})
	return ls
}

// readLayerSet enumerates the layers of a container. With lazy set, layer
// payloads stay unloaded until first access.
func readLayerSet(r *container.Reader, lazy bool) (*LayerSet, error) {
	ls := &LayerSet{
		layers:      linkedhashmap.New(),
		deletedDirs: hashset.New(),
	}
	for _, e := range r.Layers() {
		if e.Default {
			ls.defaultName = e.Name
		}
		if lazy {
			ls.layers.Put(e.Name, layerEntry{dir: e.Dir})
			continue
		}
		l, err := readLayer(e.Name, e.Dir, r, false)
		if err != nil {
			return nil, err
		}
		ls.layers.Put(e.Name, layerEntry{loaded: true, dir: e.Dir, layer: l})
	}
	if lazy {
		ls.reader = r
	}
	return ls, nil
}

// Len returns the number of layers.
func (ls *LayerSet) Len() int {
	return ls.layers.Size()
}

// Has reports whether a layer with this name exists.
func (ls *LayerSet) Has(name string) bool {
	_, ok := ls.layers.Get(name)
	return ok
}

// Names lists the layer names, in container order.
func (ls *LayerSet) Names() []string {
	names := make([]string, 0, ls.layers.Size())
	it := ls.layers.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

// DefaultLayerName returns the name of the default layer.
func (ls *LayerSet) DefaultLayerName() string {
	return ls.defaultName
}

// DefaultLayer returns the default layer.
func (ls *LayerSet) DefaultLayer() (*Layer, error) {
	return ls.Layer(ls.defaultName)
}

// Layer returns the named layer, materializing it from the originating
// container if it has not been loaded yet.
func (ls *LayerSet) Layer(name string) (*Layer, error) {
	v, ok := ls.layers.Get(name)
	if !ok {
		return nil, core.Error(core.EMISSING, "no layer %q", name)
	}
	e := v.(layerEntry)
	if e.loaded {
		return e.layer, nil
	}
	if ls.reader == nil {
		return nil, core.Error(core.EINTERNAL, "layer %q is unloaded and has no backing container", name)
	}
	l, err := readLayer(name, e.dir, ls.reader, true)
	if err != nil {
		return nil, err
	}
	e.loaded = true
	e.layer = l
	ls.layers.Put(name, e)
	return l, nil
}

// NewLayer creates an empty layer with this name. The name must be free.
func (ls *LayerSet) NewLayer(name string) (*Layer, error) {
	if name == "" {
		return nil, core.Error(core.EINVALID, "layer has no name")
	}
	if name == DefaultLayerName {
		return nil, core.Error(core.EINVALID, "%q is reserved for the default layer", name)
	}
	if ls.Has(name) {
		return nil, core.Error(core.EEXISTS, "layer %q already exists", name)
	}
	l := NewLayer(name)
	ls.layers.Put(name, layerEntry{loaded: true, layer: l})
	return l, nil
}

// DeleteLayer removes the named layer and schedules its directory for
// removal at the next in-place save. The default layer cannot be deleted.
func (ls *LayerSet) DeleteLayer(name string) error {
	v, ok := ls.layers.Get(name)
	if !ok {
		return core.Error(core.EMISSING, "no layer %q", name)
	}
	if name == ls.defaultName {
		return core.Error(core.EINVALID, "cannot delete the default layer %q", name)
	}
	ls.layers.Remove(name)
	if dir := v.(layerEntry).dir; dir != "" {
		ls.deletedDirs.Add(dir)
	}
	return nil
}

// RenameLayer gives the named layer a new name. Renaming onto an existing
// name requires overwrite, which deletes the other layer first; renaming to
// the same name is a no-op. The renamed layer moves to the end of the order.
// Renaming the default layer keeps it the default.
func (ls *LayerSet) RenameLayer(name, newName string, overwrite bool) error {
	if name == newName {
		return nil
	}
	if newName == "" {
		return core.Error(core.EINVALID, "layer has no name")
	}
	if newName == DefaultLayerName && name != ls.defaultName {
		return core.Error(core.EINVALID, "%q is reserved for the default layer", newName)
	}
	if ls.Has(newName) {
		if !overwrite {
			return core.Error(core.EEXISTS, "layer %q already exists", newName)
		}
		if err := ls.DeleteLayer(newName); err != nil {
			return err
		}
	}
	// materialize before the old directory is scheduled away
	l, err := ls.Layer(name)
	if err != nil {
		return err
	}
	if err := l.loadAll(); err != nil {
		return err
	}
	v, _ := ls.layers.Get(name)
	if dir := v.(layerEntry).dir; dir != "" {
		ls.deletedDirs.Add(dir)
	}
	ls.layers.Remove(name)
	l.name = newName
	l.reader = nil
	l.dir = ""
	ls.layers.Put(newName, layerEntry{loaded: true, layer: l})
	if ls.defaultName == name {
		ls.defaultName = newName
	}
	return nil
}

// SetDefault makes the named layer the default layer. A default layer
// carrying the reserved default name has to be renamed before it can be
// demoted. Both the old and the new default move to different directories
// in the container, so both are materialized in full.
func (ls *LayerSet) SetDefault(name string) error {
	if name == ls.defaultName {
		return nil
	}
	if !ls.Has(name) {
		return core.Error(core.EMISSING, "no layer %q", name)
	}
	if ls.defaultName == DefaultLayerName {
		return core.Error(core.EINVALID, "rename layer %q before choosing another default", DefaultLayerName)
	}
	for _, n := range []string{ls.defaultName, name} {
		l, err := ls.Layer(n)
		if err != nil {
			return err
		}
		if err := l.loadAll(); err != nil {
			return err
		}
	}
	ls.defaultName = name
	return nil
}

// loadAll materializes every layer and every glyph.
func (ls *LayerSet) loadAll() error {
	it := ls.layers.Iterator()
	for it.Next() {
		l, err := ls.Layer(it.Key().(string))
		if err != nil {
			return err
		}
		if err := l.loadAll(); err != nil {
			return err
		}
	}
	return nil
}

// write flushes the layer set into a container writer. In-place saves leave
// unloaded layers untouched on disk; layers whose directory changed since
// reading (renames, default-layer changes) are materialized first, their old
// directory removed, and rewritten in full.
func (ls *LayerSet) write(w *container.Writer, saveAs bool) error {
	if ls.defaultName != DefaultLayerName && ls.Has(DefaultLayerName) {
		// would collide with the default layer's directory naming on disk
		return core.Error(core.EINVALID, "layer %q exists but is not the default layer", DefaultLayerName)
	}
	if saveAs {
		if err := ls.loadAll(); err != nil {
			return err
		}
		ls.reader = nil
	}
	entries := make([]container.LayerEntry, 0, ls.layers.Size())
	it := ls.layers.Iterator()
	for it.Next() {
		name := it.Key().(string)
		e := it.Value().(layerEntry)
		isDefault := name == ls.defaultName
		desired := container.GlyphsDir(name, isDefault)
		entries = append(entries, container.LayerEntry{Name: name, Dir: desired, Default: isDefault})
		if !saveAs && e.dir != "" && e.dir != desired {
			// materialize from the old directory before it goes away
			l, err := ls.Layer(name)
			if err != nil {
				return err
			}
			if err := l.loadAll(); err != nil {
				return err
			}
			ls.deletedDirs.Add(e.dir)
		}
	}
	if !saveAs {
		for _, dir := range ls.deletedDirs.Values() {
			if err := w.DeleteGlyphDir(dir.(string)); err != nil {
				return err
			}
		}
	}
	it = ls.layers.Iterator()
	for it.Next() {
		name := it.Key().(string)
		e := it.Value().(layerEntry)
		if !e.loaded && !saveAs {
			continue // untouched on disk
		}
		l, err := ls.Layer(name)
		if err != nil {
			return err
		}
		isDefault := name == ls.defaultName
		gs, err := w.GlyphSet(name, isDefault)
		if err != nil {
			return err
		}
		if err := l.write(gs, saveAs); err != nil {
			return err
		}
		// the layer now occupies its canonical directory
		e2, _ := ls.layers.Get(name)
		entry := e2.(layerEntry)
		entry.dir = container.GlyphsDir(name, isDefault)
		ls.layers.Put(name, entry)
	}
	if err := w.WriteLayerContents(entries); err != nil {
		return err
	}
	ls.deletedDirs.Clear()
	return nil
}
