package container

import (
	"github.com/spf13/afero"
	"github.com/typesmith/ufolib/core"
	"howett.net/plist"
)

// writePlist marshals v as an XML property list and writes it to path.
func writePlist(fsys afero.Fs, path string, v interface{}) error {
	data, err := plist.MarshalIndent(v, plist.XMLFormat, "  ")
	if err != nil {
		return core.WrapError(err, core.EINTERNAL, "cannot encode %s", path)
	}
	if err := afero.WriteFile(fsys, path, data, 0644); err != nil {
		return core.WrapError(err, core.EIO, "cannot write %s", path)
	}
	return nil
}

// readPlist reads path and unmarshals it into dst, which must be a pointer.
func readPlist(fsys afero.Fs, path string, dst interface{}) error {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return core.WrapError(err, core.EIO, "cannot read %s", path)
	}
	if _, err := plist.Unmarshal(data, dst); err != nil {
		return core.WrapError(err, core.EFORMAT, "malformed property list %s", path)
	}
	return nil
}

// readPlistIfExists is readPlist for optional files; a missing file leaves
// dst untouched and is not an error.
func readPlistIfExists(fsys afero.Fs, path string, dst interface{}) error {
	if ok, err := afero.Exists(fsys, path); err != nil {
		return core.WrapError(err, core.EIO, "cannot stat %s", path)
	} else if !ok {
		return nil
	}
	return readPlist(fsys, path, dst)
}
