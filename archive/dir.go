package archive

import (
	"io/fs"
	"os"
	"path/filepath"
)

// DirSource walks a directory tree and yields every regular file under it,
// keyed by its path relative to the root. Grounded on the teacher's own
// directory-walking loader (classloader.go's `walk`), generalized into the
// Source collaborator interface.
type DirSource struct {
	Root string
}

func (d DirSource) Entries() ([]Entry, error) {
	var entries []Entry
	err := filepath.WalkDir(d.Root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(d.Root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		entries = append(entries, Entry{Name: filepath.ToSlash(rel), Data: data})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
