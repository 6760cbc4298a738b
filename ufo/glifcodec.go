package ufo

import (
	"howett.net/plist"

	"github.com/typesmith/ufolib/core"
)

// Wire records for glyph serialization. Glyph records are property lists, the
// same codec as every other record of the container. Deep components are not
// part of the geometry records; they live in the glyph lib and travel with it.

type glyphRecord struct {
	Name       string                 `plist:"name"`
	Width      float64                `plist:"width,omitempty"`
	Height     float64                `plist:"height,omitempty"`
	Unicodes   []int                  `plist:"unicodes,omitempty"`
	Note       string                 `plist:"note,omitempty"`
	Image      *imageRecord           `plist:"image,omitempty"`
	Guidelines []Guideline            `plist:"guidelines,omitempty"`
	Anchors    []anchorRecord         `plist:"anchors,omitempty"`
	Contours   []contourRecord        `plist:"contours,omitempty"`
	Components []componentRecord      `plist:"components,omitempty"`
	Lib        map[string]interface{} `plist:"lib,omitempty"`
}

type imageRecord struct {
	FileName       string    `plist:"fileName"`
	Transformation Transform `plist:"transformation"`
	Color          string    `plist:"color,omitempty"`
}

type anchorRecord struct {
	X          float64 `plist:"x"`
	Y          float64 `plist:"y"`
	Name       string  `plist:"name,omitempty"`
	Color      string  `plist:"color,omitempty"`
	Identifier string  `plist:"identifier,omitempty"`
}

type contourRecord struct {
	Identifier string        `plist:"identifier,omitempty"`
	Points     []pointRecord `plist:"points"`
}

type pointRecord struct {
	X          float64 `plist:"x"`
	Y          float64 `plist:"y"`
	Type       string  `plist:"type,omitempty"`
	Smooth     bool    `plist:"smooth,omitempty"`
	Name       string  `plist:"name,omitempty"`
	Identifier string  `plist:"identifier,omitempty"`
}

type componentRecord struct {
	Base           string    `plist:"base"`
	Transformation Transform `plist:"transformation"`
	Identifier     string    `plist:"identifier,omitempty"`
}

// encodeGlyph serializes a glyph into its container record.
func encodeGlyph(g *Glyph) ([]byte, error) {
	rec := glyphRecord{
		Name:   g.name,
		Width:  g.Width,
		Height: g.Height,
		Note:   g.Note,
	}
	for _, u := range g.Unicodes {
		rec.Unicodes = append(rec.Unicodes, int(u))
	}
	if !g.image.IsEmpty() {
		rec.Image = &imageRecord{
			FileName:       g.image.FileName,
			Transformation: g.image.Transformation,
			Color:          g.image.Color,
		}
	}
	rec.Guidelines = g.Guidelines
	for _, a := range g.Anchors {
		rec.Anchors = append(rec.Anchors, anchorRecord(a))
	}
	for _, c := range g.Contours {
		cr := contourRecord{Identifier: c.Identifier}
		for _, p := range c.Points {
			cr.Points = append(cr.Points, pointRecord(p))
		}
		rec.Contours = append(rec.Contours, cr)
	}
	for _, c := range g.Components {
		rec.Components = append(rec.Components, componentRecord{
			Base:           c.BaseGlyph,
			Transformation: c.Transformation,
			Identifier:     c.Identifier,
		})
	}
	if len(g.Lib) > 0 {
		rec.Lib = g.Lib
	}
	data, err := plist.MarshalIndent(rec, plist.XMLFormat, "  ")
	if err != nil {
		return nil, core.WrapError(err, core.EINTERNAL, "cannot serialize glyph %q", g.name)
	}
	return data, nil
}

// decodeGlyph builds a glyph from a container record. The name under which
// the glyph is registered wins over the name stored in the record.
func decodeGlyph(name string, data []byte) (*Glyph, error) {
	var rec glyphRecord
	if _, err := plist.Unmarshal(data, &rec); err != nil {
		return nil, core.WrapError(err, core.EFORMAT, "malformed glyph record %q", name)
	}
	g := NewGlyph(name)
	g.Width = rec.Width
	g.Height = rec.Height
	g.Note = rec.Note
	for _, u := range rec.Unicodes {
		g.Unicodes = append(g.Unicodes, rune(u))
	}
	if rec.Image != nil {
		g.image = Image{
			FileName:       rec.Image.FileName,
			Transformation: rec.Image.Transformation,
			Color:          rec.Image.Color,
		}
	}
	g.Guidelines = rec.Guidelines
	for _, a := range rec.Anchors {
		g.Anchors = append(g.Anchors, Anchor(a))
	}
	for _, cr := range rec.Contours {
		c := &Contour{Identifier: cr.Identifier}
		for _, p := range cr.Points {
			c.Points = append(c.Points, Point(p))
		}
		g.Contours = append(g.Contours, c)
	}
	for _, cr := range rec.Components {
		g.Components = append(g.Components, Component{
			BaseGlyph:      cr.Base,
			Transformation: cr.Transformation,
			Identifier:     cr.Identifier,
		})
	}
	if rec.Lib != nil {
		g.Lib = rec.Lib
	}
	return g, nil
}
