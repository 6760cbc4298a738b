package ufo

import "reflect"

// Info is the font-wide metadata record: naming, dimensions, vertical
// metrics, style mapping and miscellaneous notes. Numeric attributes are
// optional; zero is a meaningful value for most of them, so absence is
// modelled with pointers (see Float).
type Info struct {
	FamilyName         string `plist:"familyName,omitempty"`
	StyleName          string `plist:"styleName,omitempty"`
	StyleMapFamilyName string `plist:"styleMapFamilyName,omitempty"`
	StyleMapStyleName  string `plist:"styleMapStyleName,omitempty"`
	VersionMajor       int    `plist:"versionMajor,omitempty"`
	VersionMinor       int    `plist:"versionMinor,omitempty"`

	Copyright string `plist:"copyright,omitempty"`
	Trademark string `plist:"trademark,omitempty"`
	Note      string `plist:"note,omitempty"`
	Year      int    `plist:"year,omitempty"`

	OpenTypeNameDesigner     string `plist:"openTypeNameDesigner,omitempty"`
	OpenTypeNameDesignerURL  string `plist:"openTypeNameDesignerURL,omitempty"`
	OpenTypeNameManufacturer string `plist:"openTypeNameManufacturer,omitempty"`
	OpenTypeNameLicense      string `plist:"openTypeNameLicense,omitempty"`
	OpenTypeNameLicenseURL   string `plist:"openTypeNameLicenseURL,omitempty"`

	UnitsPerEm  *float64 `plist:"unitsPerEm,omitempty"`
	Ascender    *float64 `plist:"ascender,omitempty"`
	Descender   *float64 `plist:"descender,omitempty"`
	XHeight     *float64 `plist:"xHeight,omitempty"`
	CapHeight   *float64 `plist:"capHeight,omitempty"`
	ItalicAngle *float64 `plist:"italicAngle,omitempty"`

	OpenTypeOS2TypoAscender  *float64 `plist:"openTypeOS2TypoAscender,omitempty"`
	OpenTypeOS2TypoDescender *float64 `plist:"openTypeOS2TypoDescender,omitempty"`
	OpenTypeOS2TypoLineGap   *float64 `plist:"openTypeOS2TypoLineGap,omitempty"`
	OpenTypeHheaAscender     *float64 `plist:"openTypeHheaAscender,omitempty"`
	OpenTypeHheaDescender    *float64 `plist:"openTypeHheaDescender,omitempty"`
	OpenTypeHheaLineGap      *float64 `plist:"openTypeHheaLineGap,omitempty"`

	PostscriptFontName           string   `plist:"postscriptFontName,omitempty"`
	PostscriptFullName           string   `plist:"postscriptFullName,omitempty"`
	PostscriptUnderlinePosition  *float64 `plist:"postscriptUnderlinePosition,omitempty"`
	PostscriptUnderlineThickness *float64 `plist:"postscriptUnderlineThickness,omitempty"`

	// Guidelines are the font-wide guidelines; per-glyph guidelines live on
	// the glyph. Access through Font.Guidelines/Font.SetGuidelines for
	// validation.
	Guidelines []Guideline `plist:"guidelines,omitempty"`
}

// IsEmpty reports whether the record carries no data at all, in which case
// it is omitted from the container.
func (info *Info) IsEmpty() bool {
	return info == nil || reflect.DeepEqual(*info, Info{})
}
