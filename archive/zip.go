package archive

import (
	"archive/zip"
	"io"
)

// ZipSource wraps a jar-shaped zip archive. No third-party zip reader
// appears anywhere in the retrieval pack (see DESIGN.md), so this uses the
// standard library's archive/zip directly. Nothing is cached: every
// Entries call reopens and rereads the archive.
type ZipSource struct {
	Path string
}

func (z ZipSource) Entries() ([]Entry, error) {
	r, err := zip.OpenReader(z.Path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	entries := make([]Entry, 0, len(r.File))
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{Name: f.Name, Data: data})
	}
	return entries, nil
}
