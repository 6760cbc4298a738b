package ufo

import "github.com/typesmith/ufolib/core"

// PointPen is the drawing protocol consumed by the model: glyphs, contours
// and components stream their geometry into a point pen as ordered
// point/segment emissions.
type PointPen interface {
	BeginPath(identifier string)
	AddPoint(x, y float64, segmentType string, smooth bool, name, identifier string)
	EndPath()
	AddComponent(baseGlyph string, transformation Transform, identifier string)
}

// DeepPointPen is an optional extension of PointPen for consumers that can
// take parametric deep components.
type DeepPointPen interface {
	AddDeepComponent(baseGlyph string, transformation DeepTransform, coord []CoordPair, identifier string)
}

// --- Glyph-building pen ----------------------------------------------------

// GlyphPointPen appends drawn geometry to a glyph. It implements PointPen
// and DeepPointPen, so a glyph can be reproduced by replaying another
// glyph's DrawPoints into it.
type GlyphPointPen struct {
	glyph   *Glyph
	contour *Contour
}

var _ PointPen = (*GlyphPointPen)(nil)
var _ DeepPointPen = (*GlyphPointPen)(nil)

// PointPen returns a pen for others to draw points into the glyph.
func (g *Glyph) PointPen() *GlyphPointPen {
	return &GlyphPointPen{glyph: g}
}

func (p *GlyphPointPen) BeginPath(identifier string) {
	p.contour = &Contour{Identifier: identifier}
}

func (p *GlyphPointPen) AddPoint(x, y float64, segmentType string, smooth bool, name, identifier string) {
	if p.contour == nil {
		tracer().Errorf("point added outside of a path, dropped")
		return
	}
	p.contour.Points = append(p.contour.Points, Point{
		X: x, Y: y, Type: segmentType, Smooth: smooth, Name: name, Identifier: identifier,
	})
}

func (p *GlyphPointPen) EndPath() {
	if p.contour == nil {
		return
	}
	p.glyph.Contours = append(p.glyph.Contours, p.contour)
	p.contour = nil
}

func (p *GlyphPointPen) AddComponent(baseGlyph string, transformation Transform, identifier string) {
	p.glyph.Components = append(p.glyph.Components, Component{
		BaseGlyph:      baseGlyph,
		Transformation: transformation,
		Identifier:     identifier,
	})
}

func (p *GlyphPointPen) AddDeepComponent(baseGlyph string, transformation DeepTransform, coord []CoordPair, identifier string) {
	dc := DeepComponent{
		BaseGlyph:      baseGlyph,
		Transformation: transformation,
		Identifier:     identifier,
	}
	dc.Coord = append(dc.Coord, coord...)
	p.glyph.DeepComponents = append(p.glyph.DeepComponents, dc)
}

// --- Bounds pen ------------------------------------------------------------

// boundsPen accumulates the control bounding box of everything drawn into
// it. Components are resolved by name in a layer and drawn through a
// transforming relay; deep components carry no geometry of their own and
// are skipped.
type boundsPen struct {
	layer *Layer
	trans Transform
	box   *BoundingBox
	has   bool
	seen  map[string]bool
	err   error
}

var _ PointPen = (*boundsPen)(nil)

func (p *boundsPen) BeginPath(identifier string) {}

func (p *boundsPen) EndPath() {}

func (p *boundsPen) AddPoint(x, y float64, segmentType string, smooth bool, name, identifier string) {
	x, y = p.trans.Apply(x, y)
	if !p.has {
		p.box.XMin, p.box.YMin, p.box.XMax, p.box.YMax = x, y, x, y
		p.has = true
		return
	}
	p.box.extend(x, y)
}

func (p *boundsPen) AddComponent(baseGlyph string, transformation Transform, identifier string) {
	if p.err != nil {
		return
	}
	if p.layer == nil {
		p.err = core.Error(core.EINVALID, "layer is required to compute bounds of components")
		return
	}
	if p.seen[baseGlyph] {
		p.err = core.Error(core.EINVALID, "component cycle through glyph %q", baseGlyph)
		return
	}
	base, err := p.layer.Glyph(baseGlyph)
	if err != nil {
		p.err = err
		return
	}
	sub := &boundsPen{
		layer: p.layer,
		trans: p.trans.Compose(transformation),
		box:   p.box,
		has:   p.has,
		seen:  p.seen,
	}
	p.seen[baseGlyph] = true
	base.DrawPoints(sub)
	delete(p.seen, baseGlyph)
	p.has = sub.has
	p.err = sub.err
}

// controlBounds computes the bounding box of a glyph's control points,
// resolving simple components within layer.
func controlBounds(g *Glyph, layer *Layer) (BoundingBox, bool, error) {
	var box BoundingBox
	pen := &boundsPen{layer: layer, trans: Identity, box: &box, seen: make(map[string]bool)}
	g.DrawPoints(pen)
	if pen.err != nil {
		return BoundingBox{}, false, pen.err
	}
	return box, pen.has, nil
}
