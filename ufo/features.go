package ufo

import "strings"

// Features holds the OpenType feature definition text of a font, in .fea
// syntax. The text travels verbatim; only line endings are normalized on
// request.
type Features struct {
	Text string
}

func (f Features) String() string {
	return f.Text
}

// IsEmpty reports whether there is no feature text.
func (f Features) IsEmpty() bool {
	return f.Text == ""
}

// Normalize rewrites Windows and old-Mac line endings to newlines.
func (f *Features) Normalize() {
	f.Text = strings.ReplaceAll(f.Text, "\r\n", "\n")
	f.Text = strings.ReplaceAll(f.Text, "\r", "\n")
}
