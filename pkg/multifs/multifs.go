// Package multifs serves several hashfs trees as one http.FileSystem.
package multifs

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/benbjohnson/hashfs"
)

type MultiHashFS struct {
	fsList []*hashfs.FS
}

func New(fsList ...*hashfs.FS) *MultiHashFS {
	return &MultiHashFS{fsList: fsList}
}

// Open tries each tree in registration order. Hashed names resolve to the
// underlying file.
func (m *MultiHashFS) Open(name string) (http.File, error) {
	for _, fsys := range m.fsList {
		f, err := http.FS(fsys).Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fs.ErrNotExist
}
