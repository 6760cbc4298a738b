/*
Package container reads and writes the on-disk packaging of a font source.

A font source is a structured directory (or a single zipped file) holding
property-list metadata, feature text, per-layer glyph sets and auxiliary
binary/image entries. This package is deliberately dumb about the document
model: it moves bytes and plist records in and out of a container and keeps
the bookkeeping files (layercontents, per-layer contents, metainfo)
consistent. Interpreting glyph records is the job of package ufo.

All filesystem access goes through afero.Fs, so containers can live on the
real filesystem, in memory (tests), or on any other afero backend. Zipped
containers are read through afero's zipfs and written by staging a package
tree in a temporary directory and zipping it on Close.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.
*/
package container

import "github.com/npillmayer/schuko/tracing"

// tracer writes to trace with key 'ufolib.container'
func tracer() tracing.Trace {
	return tracing.Select("ufolib.container")
}
