// Package archive packs a single named file into a zip container and back.
package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

var (
	ErrCorruptArchive = errors.New("corrupt archive")
	ErrInvalidName    = errors.New("invalid archive entry name")
)

// ContentType is the media type produced by Compress.
const ContentType = "application/zip"

// Codec is the single-entry zip archiver. The zero value is ready to use.
type Codec struct {
	// Modified is stamped on entries; zero means the current time.
	Modified time.Time
}

// Compress returns a zip archive holding data under name. Empty data is
// allowed; names must be non-empty and must not denote a directory.
func (c Codec) Compress(name string, data []byte) ([]byte, error) {
	if name == "" || strings.HasSuffix(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	modified := c.Modified
	if modified.IsZero() {
		modified = time.Now()
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     name,
		Method:   zip.Deflate,
		Modified: modified,
	})
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress returns the entry name and content of an archive made by
// Compress. Extra entries are ignored; an archive without entries is corrupt.
func (c Codec) Decompress(archive []byte) (string, []byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	if len(zr.File) == 0 {
		return "", nil, ErrCorruptArchive
	}

	entry := zr.File[0]
	rc, err := entry.Open()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrCorruptArchive, err)
	}
	return entry.Name, data, nil
}
