// Package pdx reads PDX archives: ZIP containers bundling diagnostic
// description documents alongside binary blobs and metadata. Only entry
// listing and payload reading live here; deciding which entries are
// documents is the loader's concern.
package pdx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// Size limits.
const (
	// MaxArchiveSize is the maximum accepted archive size (500MB).
	MaxArchiveSize = 500 * 1024 * 1024

	// MaxEntrySize is the maximum accepted size of one extracted entry
	// (100MB), guarding against decompression bombs.
	MaxEntrySize = 100 * 1024 * 1024
)

// Entry describes one archive member.
type Entry struct {
	// Name is the full path inside the archive.
	Name string

	// Dir reports whether the entry is a directory.
	Dir bool

	// Size is the uncompressed size in bytes.
	Size int64
}

// Archive is an open PDX container.
type Archive struct {
	zr *zip.Reader
}

// IsArchive reports whether data starts with a ZIP signature.
func IsArchive(data []byte) bool {
	return len(data) >= 4 && data[0] == 'P' && data[1] == 'K' &&
		data[2] == 0x03 && data[3] == 0x04
}

// Open reads a PDX archive from memory.
func Open(data []byte) (*Archive, error) {
	if len(data) > MaxArchiveSize {
		return nil, ErrArchiveTooLarge
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	return &Archive{zr: zr}, nil
}

// Entries lists the archive members in archive order.
func (a *Archive) Entries() []Entry {
	out := make([]Entry, 0, len(a.zr.File))
	for _, f := range a.zr.File {
		out = append(out, Entry{
			Name: f.Name,
			Dir:  f.FileInfo().IsDir(),
			Size: int64(f.UncompressedSize64),
		})
	}
	return out
}

// Read extracts one entry by name.
func (a *Archive) Read(name string) ([]byte, error) {
	for _, f := range a.zr.File {
		if f.Name != name {
			continue
		}
		if f.UncompressedSize64 > MaxEntrySize {
			return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, name)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(io.LimitReader(rc, MaxEntrySize+1))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, name, err)
		}
		if len(data) > MaxEntrySize {
			return nil, fmt.Errorf("%w: %s", ErrEntryTooLarge, name)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
}
