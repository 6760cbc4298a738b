package ufo

import (
	"sort"

	"github.com/typesmith/ufolib/core"
)

// Lib keys exposed as typed glyph attributes.
const (
	markColorKey      = "public.markColor"
	verticalOriginKey = "public.verticalOrigin"
)

// Glyph is one character/shape definition: geometry, metadata, advance
// width/height and lib data. A glyph does not choose its own name; the name
// is assigned by the containing layer, and renaming is a layer operation.
type Glyph struct {
	name string

	// Width and Height are the advance dimensions of the glyph.
	Width  float64
	Height float64

	// Unicodes are the code points assigned to the glyph. The first entry
	// is "the" unicode of the glyph; see Unicode and SetUnicode.
	Unicodes []rune

	// Note is a free-form text note.
	Note string

	image Image

	// Lib maps string keys to arbitrary data. Some well-known keys are
	// exposed as typed attributes (MarkColor, VerticalOrigin, the
	// robocjk deep-component keys).
	Lib map[string]interface{}

	Anchors    []Anchor
	Guidelines []Guideline

	// Components are simple affine references to sibling glyphs.
	Components []Component

	// DeepComponents are parametric references carrying a 5-parameter
	// transformation and a design-space coordinate vector.
	DeepComponents []DeepComponent

	// GlyphVariationLayers names the layers holding variation geometry of
	// an atomic element, derived from the glyph lib.
	GlyphVariationLayers []string

	Contours []*Contour
}

// NewGlyph creates an empty glyph. The name is advisory until the glyph is
// added to a layer, which owns naming.
func NewGlyph(name string) *Glyph {
	return &Glyph{
		name:  name,
		image: Image{Transformation: Identity},
		Lib:   make(map[string]interface{}),
	}
}

// Name returns the name of the glyph.
func (g *Glyph) Name() string {
	return g.name
}

// --- Unicode ---------------------------------------------------------------

// Unicode returns the first assigned code point, if any.
func (g *Glyph) Unicode() (rune, bool) {
	if len(g.Unicodes) == 0 {
		return 0, false
	}
	return g.Unicodes[0], true
}

// SetUnicode makes value the first of the assigned code points, removing a
// duplicate entry if one exists. A no-op if value already is first.
func (g *Glyph) SetUnicode(value rune) {
	if len(g.Unicodes) == 0 {
		g.Unicodes = []rune{value}
		return
	}
	if g.Unicodes[0] == value {
		return
	}
	for i, u := range g.Unicodes {
		if u == value {
			g.Unicodes = append(g.Unicodes[:i], g.Unicodes[i+1:]...)
			break
		}
	}
	g.Unicodes = append([]rune{value}, g.Unicodes...)
}

// ClearUnicodes removes all assigned code points.
func (g *Glyph) ClearUnicodes() {
	g.Unicodes = nil
}

// --- Background image ------------------------------------------------------

// Image returns the glyph's background image reference. The reference is
// always present; check IsEmpty for absence.
func (g *Glyph) Image() *Image {
	return &g.image
}

// SetImage sets the background image reference. A nil image clears the
// reference in place.
func (g *Glyph) SetImage(img *Image) {
	if img == nil {
		g.image.Clear()
		return
	}
	g.image = *img
}

// SetImageValues sets the background image reference from raw scalars.
func (g *Glyph) SetImageValues(fileName string, t Transform, color string) {
	g.image = Image{FileName: fileName, Transformation: t, Color: color}
}

// --- Lib views -------------------------------------------------------------

// MarkColor returns the color assigned to the glyph, if any.
func (g *Glyph) MarkColor() (string, bool) {
	s, ok := asString(g.Lib[markColorKey])
	return s, ok && s != ""
}

// SetMarkColor assigns a color to the glyph.
func (g *Glyph) SetMarkColor(color string) {
	g.Lib[markColorKey] = color
}

// ClearMarkColor removes the assigned color, if present.
func (g *Glyph) ClearMarkColor() {
	delete(g.Lib, markColorKey)
}

// VerticalOrigin returns the vertical origin of the glyph, if set.
func (g *Glyph) VerticalOrigin() (float64, bool) {
	v, ok := asFloat(g.Lib[verticalOriginKey])
	return v, ok
}

// SetVerticalOrigin sets the vertical origin of the glyph.
func (g *Glyph) SetVerticalOrigin(value float64) {
	g.Lib[verticalOriginKey] = value
}

// ClearVerticalOrigin removes the vertical origin, if present.
func (g *Glyph) ClearVerticalOrigin() {
	delete(g.Lib, verticalOriginKey)
}

// AtomicElements returns the deep components recorded under the
// atomic-elements lib key.
func (g *Glyph) AtomicElements() []DeepComponent {
	return g.deepComponentsFromLib(KeyDeepComponentAtomicElements)
}

// CharacterDeepComponents returns the deep components recorded under the
// character-glyph lib key.
func (g *Glyph) CharacterDeepComponents() []DeepComponent {
	return g.deepComponentsFromLib(KeyCharacterGlyphDeepComponents)
}

func (g *Glyph) deepComponentsFromLib(key string) []DeepComponent {
	recs, ok := g.Lib[key].([]interface{})
	if !ok {
		return nil
	}
	var out []DeepComponent
	for _, r := range recs {
		rec, ok := r.(map[string]interface{})
		if !ok {
			continue
		}
		if dc, ok := deepComponentFromRecord(rec); ok {
			out = append(out, dc)
		}
	}
	return out
}

// --- Clearing and appending ------------------------------------------------

// Clear removes anchors, components, deep components, contours, guidelines
// and the background image reference.
func (g *Glyph) Clear() {
	g.Anchors = nil
	g.Components = nil
	g.DeepComponents = nil
	g.Contours = nil
	g.Guidelines = nil
	g.image.Clear()
}

// ClearAnchors removes all anchors.
func (g *Glyph) ClearAnchors() {
	g.Anchors = nil
}

// ClearContours removes all contours.
func (g *Glyph) ClearContours() {
	g.Contours = nil
}

// ClearComponents removes all components.
func (g *Glyph) ClearComponents() {
	g.Components = nil
}

// ClearGuidelines removes all guidelines.
func (g *Glyph) ClearGuidelines() {
	g.Guidelines = nil
}

// AppendAnchor appends an anchor.
func (g *Glyph) AppendAnchor(a Anchor) {
	g.Anchors = append(g.Anchors, a)
}

// AppendGuideline appends a guideline after validating its shape. On error
// the glyph is left unmodified.
func (g *Glyph) AppendGuideline(gl Guideline) error {
	if err := gl.validate(); err != nil {
		return err
	}
	g.Guidelines = append(g.Guidelines, gl)
	return nil
}

// AppendContour appends a contour.
func (g *Glyph) AppendContour(c *Contour) error {
	if c == nil {
		return core.Error(core.EINVALID, "expected a contour, found nil")
	}
	g.Contours = append(g.Contours, c)
	return nil
}

// --- Copying ---------------------------------------------------------------

// Copy returns a deep copy of the glyph. A non-empty name overrides the
// copy's name.
func (g *Glyph) Copy(name string) *Glyph {
	other := NewGlyph(g.name)
	if name != "" {
		other.name = name
	}
	other.CopyDataFrom(g)
	return other
}

// CopyDataFrom deep-copies everything from the other glyph into g, except
// for the name. Existing data is overwritten, not appended to.
func (g *Glyph) CopyDataFrom(other *Glyph) {
	g.Width = other.Width
	g.Height = other.Height
	g.Unicodes = append([]rune(nil), other.Unicodes...)
	g.Note = other.Note
	g.image = other.image
	g.Lib = copyLib(other.Lib)
	g.Anchors = append([]Anchor(nil), other.Anchors...)
	g.Guidelines = copyGuidelines(other.Guidelines)
	g.GlyphVariationLayers = append([]string(nil), other.GlyphVariationLayers...)
	g.Contours = nil
	g.Components = nil
	g.DeepComponents = nil
	other.drawOutline(g.PointPen())
}

func copyLib(lib map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(lib))
	for k, v := range lib {
		out[k] = copyLibValue(v)
	}
	return out
}

func copyLibValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		return copyLib(val)
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, e := range val {
			out[i] = copyLibValue(e)
		}
		return out
	}
	return v
}

func copyGuidelines(gls []Guideline) []Guideline {
	out := make([]Guideline, len(gls))
	for i, gl := range gls {
		out[i] = gl
		if gl.X != nil {
			out[i].X = Float(*gl.X)
		}
		if gl.Y != nil {
			out[i].Y = Float(*gl.Y)
		}
		if gl.Angle != nil {
			out[i].Angle = Float(*gl.Angle)
		}
	}
	return out
}

// Move shifts all contours, components and anchors by (dx, dy) font units.
func (g *Glyph) Move(dx, dy float64) {
	for _, c := range g.Contours {
		c.Move(dx, dy)
	}
	for i := range g.Components {
		g.Components[i].Move(dx, dy)
	}
	for i := range g.Anchors {
		g.Anchors[i].Move(dx, dy)
	}
}

// --- Pen methods -----------------------------------------------------------

// drawOutline streams contours and simple components only. Used when
// duplicating geometry, where the lib (and with it the deep-component
// records) is copied separately.
func (g *Glyph) drawOutline(pen PointPen) {
	for _, c := range g.Contours {
		c.DrawPoints(pen)
	}
	for i := range g.Components {
		g.Components[i].DrawPoints(pen)
	}
}

// DrawPoints streams the glyph's geometry into a point pen: contours first,
// then simple components, then the deep components recorded in the glyph
// lib. Atomic-element variation data in the lib updates
// GlyphVariationLayers as a side effect.
func (g *Glyph) DrawPoints(pen PointPen) {
	g.drawOutline(pen)
	for _, key := range []string{KeyDeepComponentAtomicElements, KeyCharacterGlyphDeepComponents} {
		dcs := g.deepComponentsFromLib(key)
		for i := range dcs {
			dcs[i].DrawPoints(pen)
		}
	}
	if variations, ok := g.Lib[KeyAtomicElementGlyphVariations].(map[string]interface{}); ok {
		g.GlyphVariationLayers = variationLayerNames(variations)
		tracer().Debugf("glyph %q has %d variation layer(s)", g.name, len(g.GlyphVariationLayers))
	}
}

func variationLayerNames(variations map[string]interface{}) []string {
	axes := make([]string, 0, len(variations))
	for axis := range variations {
		axes = append(axes, axis)
	}
	sort.Strings(axes)
	layers := make([]string, 0, len(axes))
	for _, axis := range axes {
		if layerName, ok := asString(variations[axis]); ok {
			layers = append(layers, layerName)
		}
	}
	return layers
}

// --- Bounds and side-bearings ----------------------------------------------

// Bounds returns the bounding box of the glyph's control points. The layer
// is required to resolve components and may be nil for pure-contour glyphs;
// ok is false for glyphs without geometry.
func (g *Glyph) Bounds(layer *Layer) (box BoundingBox, ok bool, err error) {
	if layer == nil && len(g.Components) > 0 {
		return BoundingBox{}, false, core.Error(core.EINVALID, "layer is required to compute bounds of components")
	}
	return controlBounds(g, layer)
}

// LeftMargin returns the space from the point of origin to the left side of
// the glyph.
func (g *Glyph) LeftMargin(layer *Layer) (float64, bool, error) {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return 0, false, err
	}
	return box.XMin, true, nil
}

// SetLeftMargin sets the space from the point of origin to the left side of
// the glyph, adjusting the advance width and shifting the geometry. A no-op
// for glyphs without geometry.
func (g *Glyph) SetLeftMargin(value float64, layer *Layer) error {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return err
	}
	diff := value - box.XMin
	if diff != 0 {
		g.Width += diff
		g.Move(diff, 0)
	}
	return nil
}

// RightMargin returns the space from the right side of the glyph to the
// advance width.
func (g *Glyph) RightMargin(layer *Layer) (float64, bool, error) {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return 0, false, err
	}
	return g.Width - box.XMax, true, nil
}

// SetRightMargin sets the space from the right side of the glyph to the
// advance width by adjusting the width only.
func (g *Glyph) SetRightMargin(value float64, layer *Layer) error {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return err
	}
	g.Width = box.XMax + value
	return nil
}

// BottomMargin returns the space from the bottom of the canvas to the
// bottom of the glyph. With a vertical origin set, the canvas bottom is
// measured from the origin rather than the height.
func (g *Glyph) BottomMargin(layer *Layer) (float64, bool, error) {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return 0, false, err
	}
	if origin, set := g.VerticalOrigin(); set {
		return box.YMin - (origin - g.Height), true, nil
	}
	return box.YMin, true, nil
}

// SetBottomMargin sets the space from the bottom of the canvas to the
// bottom of the glyph by adjusting the advance height. If no vertical
// origin was set, it is initialized to the current height, which changes
// the margin semantics of subsequent calls.
func (g *Glyph) SetBottomMargin(value float64, layer *Layer) error {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return err
	}
	var oldValue float64
	if origin, set := g.VerticalOrigin(); set {
		oldValue = box.YMin - (origin - g.Height)
	} else {
		oldValue = box.YMin
		g.SetVerticalOrigin(g.Height)
	}
	if diff := value - oldValue; diff != 0 {
		g.Height += diff
	}
	return nil
}

// TopMargin returns the space from the top of the canvas to the top of the
// glyph.
func (g *Glyph) TopMargin(layer *Layer) (float64, bool, error) {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return 0, false, err
	}
	if origin, set := g.VerticalOrigin(); set {
		return origin - box.YMax, true, nil
	}
	return g.Height - box.YMax, true, nil
}

// SetTopMargin sets the space from the top of the canvas to the top of the
// glyph, pinning the vertical origin to the new top edge.
func (g *Glyph) SetTopMargin(value float64, layer *Layer) error {
	box, ok, err := g.Bounds(layer)
	if err != nil || !ok {
		return err
	}
	var oldValue float64
	if origin, set := g.VerticalOrigin(); set {
		oldValue = origin - box.YMax
	} else {
		oldValue = g.Height - box.YMax
	}
	if oldValue != value {
		g.SetVerticalOrigin(box.YMax + value)
		g.Height += value - oldValue
	}
	return nil
}
