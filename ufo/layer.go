package ufo

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/typesmith/ufolib/container"
	"github.com/typesmith/ufolib/core"
)

type glyphEntry struct {
	loaded bool
	glyph  *Glyph
}

// Layer is an ordered collection of glyphs keyed by unique name, plus a
// display color and a lib. The layer owns glyph naming: glyphs get their
// name assigned when they enter the layer, and renaming is a layer
// operation.
//
// A lazily read layer knows its glyph names up front and materializes glyph
// objects on first access. Deleted glyph names are scheduled for removal at
// the next in-place save; re-adding a name cancels the scheduled removal.
type Layer struct {
	name string

	// Color is the display color of the layer, empty for none.
	Color string

	// Lib maps string keys to arbitrary data attached to the layer.
	Lib map[string]interface{}

	glyphs  *linkedhashmap.Map // name -> glyphEntry
	deleted *hashset.Set
	reader  *container.Reader
	dir     string // glyph directory within the originating container
}

// NewLayer creates an empty layer.
func NewLayer(name string) *Layer {
	return &Layer{
		name:    name,
		Lib:     make(map[string]interface{}),
		glyphs:  linkedhashmap.New(),
		deleted: hashset.New(),
	}
}

// readLayer enumerates a layer from a container. With lazy set, glyph
// payloads stay unloaded until first access.
func readLayer(name, dir string, r *container.Reader, lazy bool) (*Layer, error) {
	l := NewLayer(name)
	info, err := r.ReadLayerInfo(dir)
	if err != nil {
		return nil, err
	}
	l.Color = info.Color
	if info.Lib != nil {
		l.Lib = info.Lib
	}
	names, err := r.GlyphNames(dir)
	if err != nil {
		return nil, err
	}
	for _, gname := range names {
		if lazy {
			l.glyphs.Put(gname, glyphEntry{})
			continue
		}
		data, err := r.ReadGlyph(dir, gname)
		if err != nil {
			return nil, err
		}
		g, err := decodeGlyph(gname, data)
		if err != nil {
			return nil, err
		}
		l.glyphs.Put(gname, glyphEntry{loaded: true, glyph: g})
	}
	if lazy {
		l.reader = r
		l.dir = dir
	}
	tracer().Debugf("read layer %q with %d glyph(s), lazy=%v", name, l.glyphs.Size(), lazy)
	return l, nil
}

// Name returns the name of the layer.
func (l *Layer) Name() string {
	return l.name
}

// Len returns the number of glyphs in the layer.
func (l *Layer) Len() int {
	return l.glyphs.Size()
}

// Has reports whether the layer contains a glyph with this name.
func (l *Layer) Has(name string) bool {
	_, ok := l.glyphs.Get(name)
	return ok
}

// GlyphNames lists the names of the layer's glyphs, in insertion order.
func (l *Layer) GlyphNames() []string {
	names := make([]string, 0, l.glyphs.Size())
	it := l.glyphs.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

// Glyph returns the named glyph, materializing it from the originating
// container if it has not been loaded yet.
func (l *Layer) Glyph(name string) (*Glyph, error) {
	v, ok := l.glyphs.Get(name)
	if !ok {
		return nil, core.Error(core.EMISSING, "no glyph %q in layer %q", name, l.name)
	}
	e := v.(glyphEntry)
	if e.loaded {
		return e.glyph, nil
	}
	if l.reader == nil {
		return nil, core.Error(core.EINTERNAL, "glyph %q is unloaded and has no backing container", name)
	}
	data, err := l.reader.ReadGlyph(l.dir, name)
	if err != nil {
		return nil, err
	}
	g, err := decodeGlyph(name, data)
	if err != nil {
		return nil, err
	}
	l.glyphs.Put(name, glyphEntry{loaded: true, glyph: g})
	return g, nil
}

// NewGlyph creates an empty glyph with this name in the layer.
func (l *Layer) NewGlyph(name string) (*Glyph, error) {
	if l.Has(name) {
		return nil, core.Error(core.EEXISTS, "glyph %q already exists in layer %q", name, l.name)
	}
	g := NewGlyph(name)
	l.SetGlyph(name, g)
	return g, nil
}

// AddGlyph adds a glyph under its own name. The name must be free.
func (l *Layer) AddGlyph(g *Glyph) error {
	if g.name == "" {
		return core.Error(core.EINVALID, "glyph has no name")
	}
	if l.Has(g.name) {
		return core.Error(core.EEXISTS, "glyph %q already exists in layer %q", g.name, l.name)
	}
	l.SetGlyph(g.name, g)
	return nil
}

// InsertGlyph adds a deep copy of a glyph under name, or under the glyph's
// own name if name is empty. An existing glyph of that name is replaced.
func (l *Layer) InsertGlyph(g *Glyph, name string) error {
	if name == "" {
		name = g.name
	}
	if name == "" {
		return core.Error(core.EINVALID, "glyph has no name")
	}
	l.SetGlyph(name, g.Copy(name))
	return nil
}

// SetGlyph stores a glyph under name, replacing an existing one and
// canceling a scheduled removal of the same name. The glyph is renamed to
// match.
func (l *Layer) SetGlyph(name string, g *Glyph) {
	g.name = name
	l.glyphs.Put(name, glyphEntry{loaded: true, glyph: g})
	l.deleted.Remove(name)
}

// DeleteGlyph removes the named glyph and schedules its backing file for
// removal at the next in-place save.
func (l *Layer) DeleteGlyph(name string) error {
	if !l.Has(name) {
		return core.Error(core.EMISSING, "no glyph %q in layer %q", name, l.name)
	}
	l.glyphs.Remove(name)
	l.deleted.Add(name)
	return nil
}

// RenameGlyph gives the named glyph a new name. Renaming onto an existing
// name requires overwrite; renaming to the same name is a no-op.
func (l *Layer) RenameGlyph(name, newName string, overwrite bool) error {
	if name == newName {
		return nil
	}
	if !overwrite && l.Has(newName) {
		return core.Error(core.EEXISTS, "glyph %q already exists in layer %q", newName, l.name)
	}
	g, err := l.Glyph(name)
	if err != nil {
		return err
	}
	if err := l.DeleteGlyph(name); err != nil {
		return err
	}
	l.SetGlyph(newName, g)
	return nil
}

// loadAll materializes every unloaded glyph.
func (l *Layer) loadAll() error {
	it := l.glyphs.Iterator()
	for it.Next() {
		if !it.Value().(glyphEntry).loaded {
			if _, err := l.Glyph(it.Key().(string)); err != nil {
				return err
			}
		}
	}
	return nil
}

// write flushes the layer into a container glyph set. When saving to a new
// destination every glyph is materialized and written; in place, only loaded
// glyphs are rewritten and scheduled removals are flushed.
func (l *Layer) write(gs *container.GlyphSet, saveAs bool) error {
	if saveAs {
		if err := l.loadAll(); err != nil {
			return err
		}
		l.reader = nil
		l.dir = ""
	} else {
		for _, name := range l.deleted.Values() {
			if err := gs.DeleteGlyph(name.(string)); err != nil {
				return err
			}
		}
	}
	it := l.glyphs.Iterator()
	for it.Next() {
		e := it.Value().(glyphEntry)
		if !e.loaded {
			continue
		}
		data, err := encodeGlyph(e.glyph)
		if err != nil {
			return err
		}
		if err := gs.WriteGlyph(it.Key().(string), data); err != nil {
			return err
		}
	}
	if err := gs.WriteContents(); err != nil {
		return err
	}
	if err := gs.WriteLayerInfo(container.LayerInfo{Color: l.Color, Lib: l.Lib}); err != nil {
		return err
	}
	l.deleted.Clear()
	return nil
}
