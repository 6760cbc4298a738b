package ufo

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/hashset"

	"github.com/typesmith/ufolib/container"
	"github.com/typesmith/ufolib/core"
)

// storeOps binds a blob store to one of the two binary areas of a container.
type storeOps struct {
	kind   string
	list   func(*container.Reader) ([]string, error)
	read   func(*container.Reader, string) ([]byte, error)
	write  func(*container.Writer, string, []byte) error
	remove func(*container.Writer, string) error
}

var dataOps = storeOps{
	kind:   "data",
	list:   (*container.Reader).DataNames,
	read:   (*container.Reader).ReadData,
	write:  (*container.Writer).WriteData,
	remove: (*container.Writer).RemoveData,
}

var imageOps = storeOps{
	kind:   "images",
	list:   (*container.Reader).ImageNames,
	read:   (*container.Reader).ReadImage,
	write:  (*container.Writer).WriteImage,
	remove: (*container.Writer).RemoveImage,
}

type blobEntry struct {
	loaded bool
	data   []byte
}

// BlobStore is a mapping of names to binary payloads, backed by one of the
// two binary areas of a font source: arbitrary data entries or images.
//
// A store opened lazily enumerates its keys up front but materializes a
// payload only when it is asked for. Deleting a key schedules the backing
// file for removal at the next in-place save; setting the key again cancels
// the scheduled removal. A key is never both present and scheduled.
type BlobStore struct {
	ops     storeOps
	reader  *container.Reader
	entries *linkedhashmap.Map // name -> blobEntry
	deleted *hashset.Set
}

func newBlobStore(ops storeOps) *BlobStore {
	return &BlobStore{
		ops:     ops,
		entries: linkedhashmap.New(),
		deleted: hashset.New(),
	}
}

// NewDataStore creates an empty store for arbitrary binary data entries.
func NewDataStore() *BlobStore {
	return newBlobStore(dataOps)
}

// NewImageStore creates an empty store for image entries.
func NewImageStore() *BlobStore {
	return newBlobStore(imageOps)
}

// readBlobStore enumerates the store's keys from a container. With lazy set,
// payloads stay unloaded until first access and the store keeps a reference
// to the reader.
func readBlobStore(ops storeOps, r *container.Reader, lazy bool) (*BlobStore, error) {
	s := newBlobStore(ops)
	names, err := ops.list(r)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if lazy {
			s.entries.Put(name, blobEntry{})
			continue
		}
		data, err := ops.read(r, name)
		if err != nil {
			return nil, err
		}
		s.entries.Put(name, blobEntry{loaded: true, data: data})
	}
	if lazy {
		s.reader = r
	}
	tracer().Debugf("read %d %s entr(ies), lazy=%v", s.entries.Size(), ops.kind, lazy)
	return s, nil
}

// Len returns the number of entries.
func (s *BlobStore) Len() int {
	return s.entries.Size()
}

// Has reports whether name is present.
func (s *BlobStore) Has(name string) bool {
	_, ok := s.entries.Get(name)
	return ok
}

// Names lists the keys of the store, in insertion order.
func (s *BlobStore) Names() []string {
	names := make([]string, 0, s.entries.Size())
	it := s.entries.Iterator()
	for it.Next() {
		names = append(names, it.Key().(string))
	}
	return names
}

// Get returns the payload for name, materializing it from the originating
// container if it has not been loaded yet.
func (s *BlobStore) Get(name string) ([]byte, error) {
	v, ok := s.entries.Get(name)
	if !ok {
		return nil, core.Error(core.EMISSING, "no %s entry %q", s.ops.kind, name)
	}
	e := v.(blobEntry)
	if e.loaded {
		return e.data, nil
	}
	if s.reader == nil {
		return nil, core.Error(core.EINTERNAL, "%s entry %q is unloaded and has no backing container", s.ops.kind, name)
	}
	data, err := s.ops.read(s.reader, name)
	if err != nil {
		return nil, err
	}
	s.entries.Put(name, blobEntry{loaded: true, data: data})
	return data, nil
}

// Set stores a payload under name, canceling a scheduled removal of the same
// key if there is one.
func (s *BlobStore) Set(name string, data []byte) error {
	if name == "" {
		return core.Error(core.EINVALID, "%s entry has no name", s.ops.kind)
	}
	s.entries.Put(name, blobEntry{loaded: true, data: data})
	s.deleted.Remove(name)
	return nil
}

// Delete removes name from the store and schedules the backing file for
// removal at the next in-place save.
func (s *BlobStore) Delete(name string) error {
	if _, ok := s.entries.Get(name); !ok {
		return core.Error(core.EMISSING, "no %s entry %q", s.ops.kind, name)
	}
	s.entries.Remove(name)
	s.deleted.Add(name)
	return nil
}

// Clear removes all entries, scheduling every backing file for removal.
func (s *BlobStore) Clear() {
	it := s.entries.Iterator()
	for it.Next() {
		s.deleted.Add(it.Key().(string))
	}
	s.entries.Clear()
}

// loadAll materializes every unloaded payload.
func (s *BlobStore) loadAll() error {
	it := s.entries.Iterator()
	for it.Next() {
		if !it.Value().(blobEntry).loaded {
			if _, err := s.Get(it.Key().(string)); err != nil {
				return err
			}
		}
	}
	return nil
}

// write flushes the store into a container writer. When saving to a new
// destination every entry is materialized and written; in place, only loaded
// entries are rewritten and scheduled removals are flushed. The scheduled
// set is cleared either way.
func (s *BlobStore) write(w *container.Writer, saveAs bool) error {
	if saveAs {
		if err := s.loadAll(); err != nil {
			return err
		}
		s.reader = nil
	} else {
		for _, name := range s.deleted.Values() {
			if err := s.ops.remove(w, name.(string)); err != nil {
				return err
			}
		}
	}
	it := s.entries.Iterator()
	for it.Next() {
		e := it.Value().(blobEntry)
		if !e.loaded {
			continue
		}
		if err := s.ops.write(w, it.Key().(string), e.data); err != nil {
			return err
		}
	}
	s.deleted.Clear()
	return nil
}
