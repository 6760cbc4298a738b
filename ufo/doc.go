/*
Package ufo implements an in-memory document model for directory-based font
sources: a Font aggregate composed of layers, glyphs, contours, components,
anchors and guidelines, plus binary data and image stores.

The model round-trips losslessly to and from its on-disk container (see
package container) and supports partial materialization of large documents:
when a font is opened lazily, glyphs, layers and binary entries are
represented by unloaded placeholders and pulled from the originating reader
on first access. Saving can happen in place, to a new path, or over an
existing path; the overwrite mode stages the complete new container in a
temporary directory and only swaps it into place after a fully successful
write. A failed save never touches the previously saved data.

The aggregate is meant to be owned by one goroutine at a time; there is no
internal locking.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package ufo

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ufolib.model'
func tracer() tracing.Trace {
	return tracing.Select("ufolib.model")
}
