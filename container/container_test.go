package container

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/spf13/afero"
	"github.com/typesmith/ufolib/core"
)

func TestEscapeName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	for name, expected := range map[string]string{
		"A":          "A",
		".notdef":    "_.notdef",
		"a/b":        "a_b",
		"Q?":         "Q_",
		"":           "_",
		"A.alt":      "A.alt",
		"foo bar":    "foo bar",
		"con\x01trol": "con_trol",
	} {
		if got := escapeName(name); got != expected {
			t.Errorf("escapeName(%q) = %q, expected %q", name, got, expected)
		}
	}
}

func TestGlyphFileNameCollisions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	taken := make(map[string]bool)
	first := glyphFileName("a/b", taken)
	if first != "a_b.glif" {
		t.Errorf("unexpected file name %q", first)
	}
	taken[first] = true
	second := glyphFileName("a?b", taken)
	if second == first {
		t.Errorf("expected a collision suffix, got %q twice", second)
	}
	if second != "a_b000001.glif" {
		t.Errorf("unexpected collision file name %q", second)
	}
}

func TestGlyphsDir(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	if dir := GlyphsDir("whatever", true); dir != "glyphs" {
		t.Errorf("expected the default layer to live in \"glyphs\", got %q", dir)
	}
	if dir := GlyphsDir("background", false); dir != "glyphs.background" {
		t.Errorf("unexpected layer directory %q", dir)
	}
}

func writeMinimal(t *testing.T, fs afero.Fs, path string, structure Structure) {
	t.Helper()
	w, err := NewWriter(fs, path, structure, true)
	if err != nil {
		t.Fatal(err)
	}
	gs, err := w.GlyphSet("foo", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := gs.WriteGlyph("A", []byte("record A")); err != nil {
		t.Fatal(err)
	}
	if err := gs.WriteContents(); err != nil {
		t.Fatal(err)
	}
	if err := gs.WriteLayerInfo(LayerInfo{Color: "0,0,1,1"}); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteLayerContents([]LayerEntry{{Name: "foo", Default: true}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestPackageRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	writeMinimal(t, fs, "rt.ufo", StructurePackage)
	//
	r, err := NewReader(fs, "rt.ufo", true)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Structure() != StructurePackage {
		t.Errorf("expected package structure, got %s", r.Structure())
	}
	if r.DefaultLayerName() != "foo" {
		t.Errorf("expected default layer \"foo\", got %q", r.DefaultLayerName())
	}
	names, err := r.GlyphNames("glyphs")
	if err != nil || len(names) != 1 || names[0] != "A" {
		t.Fatalf("unexpected glyph names %v (err=%v)", names, err)
	}
	data, err := r.ReadGlyph("glyphs", "A")
	if err != nil || string(data) != "record A" {
		t.Errorf("unexpected glyph record %q (err=%v)", data, err)
	}
	info, err := r.ReadLayerInfo("glyphs")
	if err != nil || info.Color != "0,0,1,1" {
		t.Errorf("unexpected layer info %+v (err=%v)", info, err)
	}
}

func TestZipRoundTrip(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	writeMinimal(t, fs, "rt.ufoz", StructureZip)
	//
	if ok, _ := afero.DirExists(fs, "rt.ufoz"); ok {
		t.Fatalf("expected the zip structure to produce a file")
	}
	r, err := NewReader(fs, "rt.ufoz", true)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Structure() != StructureZip {
		t.Errorf("expected zip structure, got %s", r.Structure())
	}
	data, err := r.ReadGlyph("glyphs", "A")
	if err != nil || string(data) != "record A" {
		t.Errorf("unexpected glyph record %q (err=%v)", data, err)
	}
}

// Archives carry no directory entries, so listing has to work off the
// archive's file list.
func TestZipListsDataAndImages(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "blobs.ufoz", StructureZip, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteData("com.example/deep/one.bin", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteData("two.bin", []byte("two")); err != nil {
		t.Fatal(err)
	}
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 1}
	if err := w.WriteImage("pic.png", png); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteLayerContents([]LayerEntry{{Name: "foo", Default: true}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	//
	r, err := NewReader(fs, "blobs.ufoz", true)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	names, err := r.DataNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "com.example/deep/one.bin" || names[1] != "two.bin" {
		t.Fatalf("unexpected data names %v", names)
	}
	data, err := r.ReadData("com.example/deep/one.bin")
	if err != nil || string(data) != "one" {
		t.Errorf("unexpected data payload %q (err=%v)", data, err)
	}
	images, err := r.ImageNames()
	if err != nil || len(images) != 1 || images[0] != "pic.png" {
		t.Fatalf("unexpected image names %v (err=%v)", images, err)
	}
}

func TestClosedReaderRefusesReads(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	writeMinimal(t, fs, "closed.ufo", StructurePackage)
	r, err := NewReader(fs, "closed.ufo", true)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GlyphNames("glyphs"); core.Code(err) != core.EINTERNAL {
		t.Errorf("expected EINTERNAL when enumerating after Close, got %v", err)
	}
	if _, err := r.ReadData("x.bin"); core.Code(err) != core.EINTERNAL {
		t.Errorf("expected EINTERNAL when reading after Close, got %v", err)
	}
	if _, err := r.DataNames(); core.Code(err) != core.EINTERNAL {
		t.Errorf("expected EINTERNAL when listing after Close, got %v", err)
	}
}

func TestAbortedWriterLeavesNoArchive(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "aborted.ufoz", StructureZip, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteData("x.bin", []byte("x")); err != nil {
		t.Fatal(err)
	}
	w.Abort()
	if ok, _ := afero.Exists(fs, "aborted.ufoz"); ok {
		t.Errorf("expected no archive after aborting")
	}
	if err := w.Close(); err != nil {
		t.Errorf("expected closing an aborted writer to be a no-op, got %v", err)
	}
	if ok, _ := afero.Exists(fs, "aborted.ufoz"); ok {
		t.Errorf("expected closing an aborted writer to produce nothing")
	}
}

func TestDefaultLayerExclusivity(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "bad.ufo", StructurePackage, true)
	if err != nil {
		t.Fatal(err)
	}
	err = w.WriteLayerContents([]LayerEntry{
		{Name: "one", Dir: "glyphs"},
		{Name: "two", Dir: "glyphs.two"},
		{Name: "three", Dir: "glyphs"},
	})
	if err != nil {
		t.Fatal(err)
	}
	w.Close()
	//
	if _, err := NewReader(fs, "bad.ufo", true); core.Code(err) != core.EFORMAT {
		t.Errorf("expected EFORMAT for two default layers, got %v", err)
	}
	// lenient mode falls back to the first layer
	r, err := NewReader(fs, "bad.ufo", false)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.DefaultLayerName() != "one" {
		t.Errorf("expected the first layer to become the default, got %q", r.DefaultLayerName())
	}
}

func TestUnsupportedFormatVersion(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	writeMinimal(t, fs, "v9.ufo", StructurePackage)
	if err := writePlist(fs, "v9.ufo/metainfo.plist", metaInfo{Creator: creatorID, FormatVersion: 9}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(fs, "v9.ufo", true); core.Code(err) != core.EFORMAT {
		t.Errorf("expected EFORMAT for format version 9, got %v", err)
	}
	if _, err := NewReader(fs, "v9.ufo", false); err != nil {
		t.Errorf("expected the lenient reader to accept it, got %v", err)
	}
}

func TestImageValidation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "img.ufo", StructurePackage, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteImage("bad.png", []byte("not a png")); core.Code(err) != core.EINVALID {
		t.Errorf("expected EINVALID for a non-PNG payload, got %v", err)
	}
	png := []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 1, 2, 3}
	if err := w.WriteImage("good.png", png); err != nil {
		t.Errorf("expected a PNG payload to be accepted, got %v", err)
	}
}

func TestWriterRejectsEscapingEntryNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.container")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	w, err := NewWriter(fs, "esc.ufo", StructurePackage, true)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"", "/abs", "../escape", "a/../../b"} {
		if err := w.WriteData(name, []byte("x")); core.Code(err) != core.EINVALID {
			t.Errorf("expected entry name %q to be rejected, got %v", name, err)
		}
	}
}
