// Package mapfile opens input files as read-only memory maps.
package mapfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// File is a read-only memory-mapped file. It reads like any io.Reader and
// must be closed to release the mapping.
type File struct {
	*bytes.Reader

	fp *os.File
	mm mmap.MMap
}

// Open maps path into memory. Empty files are valid and read as empty.
func Open(path string) (*File, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := fp.Stat()
	if err != nil {
		fp.Close()
		return nil, err
	}
	if !fi.Mode().IsRegular() {
		fp.Close()
		return nil, fmt.Errorf("mapfile: %s is not a regular file", path)
	}

	f := &File{fp: fp}
	if fi.Size() > 0 {
		if f.mm, err = mmap.Map(fp, mmap.RDONLY, 0); err != nil {
			fp.Close()
			return nil, fmt.Errorf("mapfile: map %s: %w", path, err)
		}
	}
	f.Reader = bytes.NewReader(f.mm)
	return f, nil
}

// Bytes returns the mapped contents. The slice is only valid until Close.
func (f *File) Bytes() []byte {
	return f.mm
}

// Close unmaps the file and closes the descriptor.
func (f *File) Close() error {
	var err error
	if f.mm != nil {
		err = f.mm.Unmap()
		f.mm = nil
	}
	if cerr := f.fp.Close(); err == nil {
		err = cerr
	}
	return err
}
