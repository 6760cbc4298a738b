package ufo

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/typesmith/ufolib/core"
)

func boxGlyph(name string, width float64) *Glyph {
	g := NewGlyph(name)
	g.Width = width
	c := &Contour{}
	for _, p := range [][2]float64{{0, 0}, {10, 0}, {10, 10}, {0, 10}} {
		c.Points = append(c.Points, Point{X: p[0], Y: p[1], Type: SegmentLine})
	}
	g.Contours = append(g.Contours, c)
	return g
}

func TestUnicodePrimacy(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := NewGlyph("A")
	if _, ok := g.Unicode(); ok {
		t.Errorf("expected fresh glyph to have no unicode")
	}
	g.Unicodes = []rune{'A', 'a', 0x0391}
	g.SetUnicode(0x0391)
	if u, _ := g.Unicode(); u != 0x0391 {
		t.Errorf("expected 0x0391 to be primary, got %#x", u)
	}
	if len(g.Unicodes) != 3 {
		t.Errorf("expected 3 unicodes after promoting an existing one, got %d", len(g.Unicodes))
	}
	g.SetUnicode('B')
	if u, _ := g.Unicode(); u != 'B' || len(g.Unicodes) != 4 {
		t.Errorf("expected B to be prepended")
	}
	g.ClearUnicodes()
	if len(g.Unicodes) != 0 {
		t.Errorf("expected no unicodes after clearing")
	}
}

func TestImageClearedInPlace(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := NewGlyph("A")
	img := g.Image()
	g.SetImageValues("bg.png", Identity, "1,0,0,1")
	if img.IsEmpty() || img.FileName != "bg.png" {
		t.Fatalf("expected the image view to track the glyph")
	}
	g.SetImage(nil)
	if !img.IsEmpty() {
		t.Errorf("expected clearing to reset the reference in place")
	}
	if !img.Transformation.IsIdentity() {
		t.Errorf("expected cleared image to carry the identity transformation")
	}
}

func TestMarkColorAndVerticalOrigin(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := NewGlyph("A")
	if _, ok := g.MarkColor(); ok {
		t.Errorf("expected no mark color on a fresh glyph")
	}
	g.SetMarkColor("1,0,0,1")
	if c, ok := g.MarkColor(); !ok || c != "1,0,0,1" {
		t.Errorf("expected mark color to round-trip through the lib")
	}
	if _, ok := g.Lib[markColorKey]; !ok {
		t.Errorf("expected the mark color to be backed by the lib")
	}
	g.ClearMarkColor()
	if _, ok := g.Lib[markColorKey]; ok {
		t.Errorf("expected clearing to remove the lib entry")
	}
	g.SetVerticalOrigin(880)
	if v, ok := g.VerticalOrigin(); !ok || v != 880 {
		t.Errorf("expected vertical origin 880, got %v", v)
	}
}

func TestBoundsAndMargins(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := boxGlyph("A", 12)
	box, ok, err := g.Bounds(nil)
	if err != nil || !ok {
		t.Fatalf("expected bounds for a contour glyph, got ok=%v err=%v", ok, err)
	}
	if box.XMin != 0 || box.XMax != 10 || box.YMin != 0 || box.YMax != 10 {
		t.Fatalf("unexpected bounds %+v", box)
	}
	if err := g.SetLeftMargin(2, nil); err != nil {
		t.Fatal(err)
	}
	if g.Width != 14 {
		t.Errorf("expected width 14 after widening the left margin, got %v", g.Width)
	}
	if g.Contours[0].Points[0].X != 2 {
		t.Errorf("expected the outline to shift with the left margin")
	}
	rm, _, err := g.RightMargin(nil)
	if err != nil || rm != 2 {
		t.Errorf("expected right margin 2, got %v (err=%v)", rm, err)
	}
	if err := g.SetRightMargin(5, nil); err != nil {
		t.Fatal(err)
	}
	if g.Width != 17 {
		t.Errorf("expected width 17 after setting the right margin, got %v", g.Width)
	}
}

func TestBottomMarginInitializesVerticalOrigin(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := boxGlyph("A", 12)
	g.Height = 100
	bm, _, err := g.BottomMargin(nil)
	if err != nil || bm != 0 {
		t.Fatalf("expected bottom margin 0, got %v (err=%v)", bm, err)
	}
	if err := g.SetBottomMargin(5, nil); err != nil {
		t.Fatal(err)
	}
	if v, ok := g.VerticalOrigin(); !ok || v != 100 {
		t.Errorf("expected the vertical origin to be pinned to the old height, got %v", v)
	}
	if g.Height != 105 {
		t.Errorf("expected height 105, got %v", g.Height)
	}
}

func TestComponentBoundsNeedLayer(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := NewGlyph("B")
	g.Components = append(g.Components, Component{BaseGlyph: "A", Transformation: Identity})
	_, _, err := g.Bounds(nil)
	if core.Code(err) != core.EINVALID {
		t.Errorf("expected EINVALID without a layer, got %v", err)
	}
	//
	l := NewLayer("test")
	l.SetGlyph("A", boxGlyph("A", 12))
	l.SetGlyph("B", g)
	tr := Identity
	tr.XOffset = 100
	g.Components[0].Transformation = tr
	box, ok, err := g.Bounds(l)
	if err != nil || !ok {
		t.Fatalf("expected component bounds, got ok=%v err=%v", ok, err)
	}
	if box.XMin != 100 || box.XMax != 110 {
		t.Errorf("expected the component transform to apply, got %+v", box)
	}
}

func TestComponentCycleIsRejected(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	l := NewLayer("test")
	a := NewGlyph("A")
	a.Components = append(a.Components, Component{BaseGlyph: "B", Transformation: Identity})
	b := NewGlyph("B")
	b.Components = append(b.Components, Component{BaseGlyph: "A", Transformation: Identity})
	l.SetGlyph("A", a)
	l.SetGlyph("B", b)
	_, _, err := a.Bounds(l)
	if core.Code(err) != core.EINVALID {
		t.Errorf("expected a cycle error, got %v", err)
	}
}

func TestCopyIsDeep(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := boxGlyph("A", 12)
	g.SetMarkColor("0,1,0,1")
	g.AppendAnchor(Anchor{X: 5, Y: 10, Name: "top"})
	other := g.Copy("A.alt")
	if other.Name() != "A.alt" {
		t.Errorf("expected the copy to take the new name")
	}
	other.Contours[0].Points[0].X = 99
	other.Lib["x"] = 1
	if g.Contours[0].Points[0].X == 99 {
		t.Errorf("expected contours to be copied, not shared")
	}
	if _, ok := g.Lib["x"]; ok {
		t.Errorf("expected libs to be copied, not shared")
	}
	if len(other.Anchors) != 1 || other.Anchors[0].Name != "top" {
		t.Errorf("expected anchors to be carried over")
	}
}

func TestGuidelineValidation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := NewGlyph("A")
	if err := g.AppendGuideline(Guideline{}); core.Code(err) != core.EINVALID {
		t.Errorf("expected a guideline without x and y to be rejected")
	}
	if err := g.AppendGuideline(Guideline{X: Float(1), Angle: Float(10)}); core.Code(err) != core.EINVALID {
		t.Errorf("expected an angle without both x and y to be rejected")
	}
	if err := g.AppendGuideline(Guideline{X: Float(1), Y: Float(2)}); core.Code(err) != core.EINVALID {
		t.Errorf("expected x and y without an angle to be rejected")
	}
	if err := g.AppendGuideline(Guideline{X: Float(1), Y: Float(2), Angle: Float(45)}); err != nil {
		t.Errorf("expected a complete guideline to be accepted, got %v", err)
	}
	if len(g.Guidelines) != 1 {
		t.Errorf("expected exactly the valid guideline to be appended")
	}
}

func TestDeepComponentsFromLib(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	g := NewGlyph("uni4E00")
	g.Lib[KeyDeepComponentAtomicElements] = []interface{}{
		map[string]interface{}{
			"name": "stroke.horizontal", "x": 10.0, "y": 20.0,
			"scalex": 1.0, "scaley": 0.5, "rotation": 90.0,
			"coord": map[string]interface{}{"WGHT": 0.6, "CNTR": 0.1},
		},
	}
	dcs := g.AtomicElements()
	if len(dcs) != 1 {
		t.Fatalf("expected one atomic element, got %d", len(dcs))
	}
	dc := dcs[0]
	if dc.BaseGlyph != "stroke.horizontal" {
		t.Errorf("unexpected base glyph %q", dc.BaseGlyph)
	}
	if dc.Transformation.List() != [5]float64{10, 20, 1, 0.5, 90} {
		t.Errorf("unexpected transformation %v", dc.Transformation)
	}
	// axes are enumerated in sorted order
	if len(dc.Coord) != 2 || dc.Coord[0] != (CoordPair{Index: 0, Value: 0.1}) || dc.Coord[1] != (CoordPair{Index: 1, Value: 0.6}) {
		t.Errorf("unexpected coord reshaping %v", dc.Coord)
	}
	//
	target := NewGlyph("copy")
	g.DrawPoints(target.PointPen())
	if len(target.DeepComponents) != 1 {
		t.Errorf("expected the deep component to reach a deep point pen")
	}
}
