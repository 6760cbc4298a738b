package ufo

import (
	"github.com/typesmith/ufolib/core"
)

// Transform is a 6-parameter affine transformation, in the parameter order
// used throughout font sources: xScale, xyScale, yxScale, yScale, xOffset,
// yOffset.
type Transform struct {
	XScale  float64 `plist:"xScale"`
	XYScale float64 `plist:"xyScale"`
	YXScale float64 `plist:"yxScale"`
	YScale  float64 `plist:"yScale"`
	XOffset float64 `plist:"xOffset"`
	YOffset float64 `plist:"yOffset"`
}

// Identity is the neutral transformation.
var Identity = Transform{XScale: 1, YScale: 1}

// Apply transforms a point.
func (t Transform) Apply(x, y float64) (float64, float64) {
	return t.XScale*x + t.YXScale*y + t.XOffset,
		t.XYScale*x + t.YScale*y + t.YOffset
}

// Compose combines two transformations such that
// t.Compose(u).Apply(x, y) == t.Apply(u.Apply(x, y)).
func (t Transform) Compose(u Transform) Transform {
	return Transform{
		XScale:  t.XScale*u.XScale + t.YXScale*u.XYScale,
		XYScale: t.XYScale*u.XScale + t.YScale*u.XYScale,
		YXScale: t.XScale*u.YXScale + t.YXScale*u.YScale,
		YScale:  t.XYScale*u.YXScale + t.YScale*u.YScale,
		XOffset: t.XScale*u.XOffset + t.YXScale*u.YOffset + t.XOffset,
		YOffset: t.XYScale*u.XOffset + t.YScale*u.YOffset + t.YOffset,
	}
}

// IsIdentity reports whether t is the neutral transformation.
func (t Transform) IsIdentity() bool {
	return t == Identity
}

// View returns the transformation as a key-value mapping, using the
// canonical parameter names.
func (t Transform) View() map[string]float64 {
	return map[string]float64{
		"xScale":  t.XScale,
		"xyScale": t.XYScale,
		"yxScale": t.YXScale,
		"yScale":  t.YScale,
		"xOffset": t.XOffset,
		"yOffset": t.YOffset,
	}
}

// BoundingBox is an (xMin, yMin, xMax, yMax) rectangle in font units.
type BoundingBox struct {
	XMin, YMin, XMax, YMax float64
}

func (b *BoundingBox) extend(x, y float64) {
	if x < b.XMin {
		b.XMin = x
	}
	if x > b.XMax {
		b.XMax = x
	}
	if y < b.YMin {
		b.YMin = y
	}
	if y > b.YMax {
		b.YMax = y
	}
}

// --- Points and contours ---------------------------------------------------

// Segment types of on-curve points. An empty type marks an off-curve point.
const (
	SegmentMove   = "move"
	SegmentLine   = "line"
	SegmentCurve  = "curve"
	SegmentQCurve = "qcurve"
)

// Point is a single point of a contour.
type Point struct {
	X, Y       float64
	Type       string // segment type, empty for off-curve points
	Smooth     bool
	Name       string
	Identifier string
}

// Contour is an ordered sequence of points, possibly open.
type Contour struct {
	Points     []Point
	Identifier string
}

// Open reports whether the contour is an open path. An empty contour counts
// as open.
func (c *Contour) Open() bool {
	if len(c.Points) == 0 {
		return true
	}
	return c.Points[0].Type == SegmentMove
}

// Move shifts all points by (dx, dy) font units.
func (c *Contour) Move(dx, dy float64) {
	for i := range c.Points {
		c.Points[i].X += dx
		c.Points[i].Y += dy
	}
}

// DrawPoints streams the contour into a point pen.
func (c *Contour) DrawPoints(pen PointPen) {
	pen.BeginPath(c.Identifier)
	for _, p := range c.Points {
		pen.AddPoint(p.X, p.Y, p.Type, p.Smooth, p.Name, p.Identifier)
	}
	pen.EndPath()
}

// --- Components ------------------------------------------------------------

// Component is an affine reference to a sibling glyph within the same layer.
// The base glyph is a name-based weak reference: it is resolved at draw or
// bounds time, not checked at assignment.
type Component struct {
	BaseGlyph      string
	Transformation Transform
	Identifier     string
}

// Move shifts the component by (dx, dy) font units.
func (c *Component) Move(dx, dy float64) {
	c.Transformation.XOffset += dx
	c.Transformation.YOffset += dy
}

// DrawPoints streams the component reference into a point pen.
func (c *Component) DrawPoints(pen PointPen) {
	pen.AddComponent(c.BaseGlyph, c.Transformation, c.Identifier)
}

// --- Anchors ---------------------------------------------------------------

// Anchor is a named position on a glyph.
type Anchor struct {
	X, Y       float64
	Name       string
	Color      string
	Identifier string
}

// Move shifts the anchor by (dx, dy) font units.
func (a *Anchor) Move(dx, dy float64) {
	a.X += dx
	a.Y += dy
}

// View returns the anchor as a key-value mapping. Unset optional attributes
// are omitted.
func (a Anchor) View() map[string]interface{} {
	m := map[string]interface{}{"x": a.X, "y": a.Y}
	if a.Name != "" {
		m["name"] = a.Name
	}
	if a.Color != "" {
		m["color"] = a.Color
	}
	if a.Identifier != "" {
		m["identifier"] = a.Identifier
	}
	return m
}

// --- Guidelines ------------------------------------------------------------

// Guideline is a straight guide attached to a glyph or to the font info.
// X, Y and Angle are optional; the combination rules are checked by
// validate (and surface through AppendGuideline).
type Guideline struct {
	X          *float64 `plist:"x,omitempty"`
	Y          *float64 `plist:"y,omitempty"`
	Angle      *float64 `plist:"angle,omitempty"`
	Name       string   `plist:"name,omitempty"`
	Color      string   `plist:"color,omitempty"`
	Identifier string   `plist:"identifier,omitempty"`
}

// Float is a convenience for building optional guideline attributes.
func Float(v float64) *float64 {
	return &v
}

func (g Guideline) validate() error {
	if g.X == nil && g.Y == nil {
		return core.Error(core.EINVALID, "guideline needs x or y")
	}
	if g.X == nil || g.Y == nil {
		if g.Angle != nil {
			return core.Error(core.EINVALID, "guideline with only x or y must not have an angle")
		}
		return nil
	}
	if g.Angle == nil {
		return core.Error(core.EINVALID, "guideline with x and y must have an angle")
	}
	if *g.Angle < 0 || *g.Angle > 360 {
		return core.Error(core.EINVALID, "guideline angle must be between 0 and 360")
	}
	return nil
}

// View returns the guideline as a key-value mapping. Unset optional
// attributes are omitted.
func (g Guideline) View() map[string]interface{} {
	m := make(map[string]interface{})
	if g.X != nil {
		m["x"] = *g.X
	}
	if g.Y != nil {
		m["y"] = *g.Y
	}
	if g.Angle != nil {
		m["angle"] = *g.Angle
	}
	if g.Name != "" {
		m["name"] = g.Name
	}
	if g.Color != "" {
		m["color"] = g.Color
	}
	if g.Identifier != "" {
		m["identifier"] = g.Identifier
	}
	return m
}

// --- Background images -----------------------------------------------------

// Image is a glyph's background image reference. Presence is signalled by a
// non-empty file name; Clear resets the reference in place rather than
// dropping the slot.
type Image struct {
	FileName       string
	Transformation Transform
	Color          string
}

// Clear resets the image reference.
func (img *Image) Clear() {
	*img = Image{Transformation: Identity}
}

// IsEmpty reports whether no background image is referenced.
func (img Image) IsEmpty() bool {
	return img.FileName == ""
}

// View returns the image reference as a key-value mapping with the raw
// transformation scalars inlined.
func (img Image) View() map[string]interface{} {
	m := map[string]interface{}{"fileName": img.FileName}
	for k, v := range img.Transformation.View() {
		m[k] = v
	}
	if img.Color != "" {
		m["color"] = img.Color
	}
	return m
}
