package ufo

import (
	"bytes"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/spf13/afero"
	"github.com/typesmith/ufolib/container"
	"github.com/typesmith/ufolib/core"
)

func TestStoreSetGetDelete(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	s := NewDataStore()
	if err := s.Set("com.example/blob.bin", []byte{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if !s.Has("com.example/blob.bin") || s.Len() != 1 {
		t.Errorf("expected the entry to be present")
	}
	data, err := s.Get("com.example/blob.bin")
	if err != nil || !bytes.Equal(data, []byte{1, 2, 3}) {
		t.Errorf("expected the payload back, got %v (err=%v)", data, err)
	}
	if _, err := s.Get("nope"); core.Code(err) != core.EMISSING {
		t.Errorf("expected EMISSING for an unknown key, got %v", err)
	}
	if err := s.Delete("nope"); core.Code(err) != core.EMISSING {
		t.Errorf("expected EMISSING when deleting an unknown key, got %v", err)
	}
	if err := s.Delete("com.example/blob.bin"); err != nil {
		t.Fatal(err)
	}
	if s.Has("com.example/blob.bin") {
		t.Errorf("expected the entry to be gone")
	}
}

// A key must never be both present and scheduled for deletion: re-setting a
// deleted key cancels the scheduled removal.
func TestStoreDeleteThenSet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	s := NewDataStore()
	s.Set("a.bin", []byte{1})
	if err := s.Delete("a.bin"); err != nil {
		t.Fatal(err)
	}
	if !s.deleted.Contains("a.bin") {
		t.Fatalf("expected the key to be scheduled for removal")
	}
	s.Set("a.bin", []byte{2})
	if s.deleted.Contains("a.bin") {
		t.Errorf("expected re-setting to cancel the scheduled removal")
	}
	if data, _ := s.Get("a.bin"); !bytes.Equal(data, []byte{2}) {
		t.Errorf("expected the new payload")
	}
}

// An in-place flush must not issue a removal for a key that was re-set after
// being deleted; the new payload is written instead.
func TestStoreFlushAfterDeleteThenSet(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	w, err := container.NewWriter(fs, "s.ufo", container.StructurePackage, true)
	if err != nil {
		t.Fatal(err)
	}
	// b.bin is on disk from an earlier save
	if err := w.WriteData("b.bin", []byte{2}); err != nil {
		t.Fatal(err)
	}
	var wrote, removed []string
	ops := storeOps{
		kind: "data",
		write: func(w *container.Writer, name string, data []byte) error {
			wrote = append(wrote, name)
			return w.WriteData(name, data)
		},
		remove: func(w *container.Writer, name string) error {
			removed = append(removed, name)
			return w.RemoveData(name)
		},
	}
	s := newBlobStore(ops)
	s.Set("a.bin", []byte{1})
	s.Set("b.bin", []byte{2})
	if err := s.Delete("a.bin"); err != nil {
		t.Fatal(err)
	}
	s.Set("a.bin", []byte{3})
	if err := s.Delete("b.bin"); err != nil {
		t.Fatal(err)
	}
	if err := s.write(w, false); err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0] != "b.bin" {
		t.Errorf("expected only the still-deleted key to be removed, got %v", removed)
	}
	if len(wrote) != 1 || wrote[0] != "a.bin" {
		t.Errorf("expected only the re-set key to be written, got %v", wrote)
	}
	data, err := afero.ReadFile(fs, "s.ufo/data/a.bin")
	if err != nil || !bytes.Equal(data, []byte{3}) {
		t.Errorf("expected the new payload on disk, got %v (err=%v)", data, err)
	}
	if ok, _ := afero.Exists(fs, "s.ufo/data/b.bin"); ok {
		t.Errorf("expected the deleted entry to be gone from disk")
	}
}

func TestStoreLazyPullThrough(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "ufolib.model")
	defer teardown()
	//
	fs := afero.NewMemMapFs()
	w, err := container.NewWriter(fs, "s.ufo", container.StructurePackage, true)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.WriteData("sub/one.bin", []byte("one")); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteData("two.bin", []byte("two")); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteLayerContents([]container.LayerEntry{{Name: "foo", Default: true}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	//
	r, err := container.NewReader(fs, "s.ufo", true)
	if err != nil {
		t.Fatal(err)
	}
	s, err := readBlobStore(dataOps, r, true)
	if err != nil {
		t.Fatal(err)
	}
	if s.Len() != 2 {
		t.Fatalf("expected 2 enumerated keys, got %d", s.Len())
	}
	if v, _ := s.entries.Get("sub/one.bin"); v.(blobEntry).loaded {
		t.Errorf("expected lazy entries to start unloaded")
	}
	data, err := s.Get("sub/one.bin")
	if err != nil || string(data) != "one" {
		t.Errorf("expected pull-through from the container, got %q (err=%v)", data, err)
	}
	if v, _ := s.entries.Get("sub/one.bin"); !v.(blobEntry).loaded {
		t.Errorf("expected the entry to be retained after loading")
	}
}
