package ufo

import "sort"

// Glyph lib keys carrying deep-component and variation data.
const (
	KeyAtomicElementGlyphVariations = "robocjk.atomicElement.glyphVariations"
	KeyDeepComponentAtomicElements  = "robocjk.deepComponent.atomicElements"
	KeyCharacterGlyphDeepComponents = "robocjk.characterGlyph.deepComponents"
)

// DeepTransform is the 5-parameter transformation of a deep component.
// Deliberately narrower than the 6-parameter affine Transform used by
// Component and Image; downstream consumers depend on this arity.
type DeepTransform struct {
	X, Y, ScaleX, ScaleY, Rotation float64
}

// List returns the transformation parameters in wire order.
func (t DeepTransform) List() [5]float64 {
	return [5]float64{t.X, t.Y, t.ScaleX, t.ScaleY, t.Rotation}
}

// CoordPair is one entry of a deep component's design-space coordinate
// vector.
type CoordPair struct {
	Index int
	Value float64
}

// DeepComponent is a parametric reference to another glyph that has several
// layer or glyph variations. The base glyph must resolve within the same
// layer at draw time.
type DeepComponent struct {
	BaseGlyph      string
	Transformation DeepTransform
	Coord          []CoordPair
	Identifier     string
}

// DrawPoints streams the deep component into a point pen. Pens that do not
// implement DeepPointPen cannot receive it; the reference is then dropped
// with a trace warning.
func (dc *DeepComponent) DrawPoints(pen PointPen) {
	dp, ok := pen.(DeepPointPen)
	if !ok {
		tracer().Infof("point pen %T cannot take deep components, dropping %q", pen, dc.BaseGlyph)
		return
	}
	dp.AddDeepComponent(dc.BaseGlyph, dc.Transformation, dc.Coord, dc.Identifier)
}

// deepComponentFromRecord builds a deep component from a raw lib record.
//
// The coord attribute arrives as a mapping but should be a list of pairs;
// the producing application needs updating. We reproduce the established
// reshaping: entries are enumerated and each becomes an (index, value) pair.
func deepComponentFromRecord(rec map[string]interface{}) (DeepComponent, bool) {
	name, ok := asString(rec["name"])
	if !ok {
		return DeepComponent{}, false
	}
	dc := DeepComponent{BaseGlyph: name}
	dc.Transformation.X, _ = asFloat(rec["x"])
	dc.Transformation.Y, _ = asFloat(rec["y"])
	dc.Transformation.ScaleX, _ = asFloat(rec["scalex"])
	dc.Transformation.ScaleY, _ = asFloat(rec["scaley"])
	dc.Transformation.Rotation, _ = asFloat(rec["rotation"])
	if coord, ok := rec["coord"].(map[string]interface{}); ok {
		axes := make([]string, 0, len(coord))
		for axis := range coord {
			axes = append(axes, axis)
		}
		sort.Strings(axes)
		for i, axis := range axes {
			v, _ := asFloat(coord[axis])
			dc.Coord = append(dc.Coord, CoordPair{Index: i, Value: v})
		}
	}
	return dc, true
}

// asFloat coerces the numeric shapes a property-list decoder may produce.
func asFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

func asString(v interface{}) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
