package scan

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"unicode/utf16"

	"github.com/standardbeagle/refscan/internal/corpus"
	refserrors "github.com/standardbeagle/refscan/internal/errors"
	"github.com/standardbeagle/refscan/internal/types"
	"github.com/standardbeagle/refscan/pkg/pathutil"
)

// Loader assembles the scannable text for one corpus path at a time.
// Each scan worker owns exactly one Loader: the fixed read buffer and
// the assembly buffer are reused for every file in the worker's batch,
// so a Loader must never be shared between goroutines.
type Loader struct {
	// MaxFileSize bounds the primary and sidecar reads. Oversized
	// files fail the load and the caller treats them as non-matches.
	MaxFileSize int64

	readBuf  []byte
	raw      bytes.Buffer
	assembly bytes.Buffer
}

// NewLoader creates a loader with the default size bound.
func NewLoader() *Loader {
	return &Loader{
		MaxFileSize: types.DefaultMaxFileSize,
		readBuf:     make([]byte, types.ReadBufferSize),
	}
}

// Load returns the text to match against for one project-relative path.
//
// The primary content read is skipped when the extension is on the
// binary deny-list or the mode is MetaOnly; the sidecar is read for
// MetaWithAsset (appended after the asset text, newline-separated;
// a missing sidecar contributes nothing) and MetaOnly (where a missing
// sidecar is an error). A missing or unreadable primary file is an
// error: the scan treats it as a non-match and keeps going.
func (l *Loader) Load(root, rel string, meta types.MetaMode) (string, error) {
	l.assembly.Reset()

	if meta != types.MetaOnly && !corpus.ContentDenied(rel) {
		if err := l.appendDecoded(pathutil.FromProjectKey(rel, root)); err != nil {
			return "", refserrors.NewScanError("read", err).WithPath(rel)
		}
	}

	switch meta {
	case types.MetaWithAsset:
		err := l.appendSidecar(root, rel)
		if err != nil && !os.IsNotExist(err) {
			return "", refserrors.NewScanError("read-meta", err).WithPath(rel)
		}
	case types.MetaOnly:
		if err := l.appendSidecar(root, rel); err != nil {
			return "", refserrors.NewScanError("read-meta", err).WithPath(rel)
		}
	}

	return l.assembly.String(), nil
}

// appendSidecar appends the .meta companion, separated from any
// already-assembled asset text by a single newline.
func (l *Loader) appendSidecar(root, rel string) error {
	hadPrimary := l.assembly.Len() > 0

	sep := l.assembly.Len()
	if hadPrimary {
		l.assembly.WriteByte('\n')
	}
	if err := l.appendDecoded(pathutil.FromProjectKey(rel+types.MetaSuffix, root)); err != nil {
		l.assembly.Truncate(sep)
		return err
	}
	return nil
}

// appendDecoded reads one file through the fixed buffer and appends its
// content to the assembly as UTF-8, honoring byte-order marks: a UTF-8
// BOM is stripped, UTF-16 content is decoded.
func (l *Loader) appendDecoded(osPath string) error {
	f, err := os.Open(osPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil && fi.Size() > l.MaxFileSize {
		return fmt.Errorf("file size %d exceeds limit %d", fi.Size(), l.MaxFileSize)
	}

	l.raw.Reset()
	if _, err := io.CopyBuffer(&l.raw, f, l.readBuf); err != nil {
		return err
	}

	data := l.raw.Bytes()
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		l.assembly.Write(data[3:])
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		appendUTF16(&l.assembly, data[2:], false)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		appendUTF16(&l.assembly, data[2:], true)
	default:
		l.assembly.Write(data)
	}
	return nil
}

// appendUTF16 decodes UTF-16 code units into UTF-8 output. A trailing
// odd byte is dropped rather than failing the whole file.
func appendUTF16(dst *bytes.Buffer, data []byte, bigEndian bool) {
	units := make([]uint16, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		if bigEndian {
			units = append(units, uint16(data[i])<<8|uint16(data[i+1]))
		} else {
			units = append(units, uint16(data[i])|uint16(data[i+1])<<8)
		}
	}
	for _, r := range utf16.Decode(units) {
		dst.WriteRune(r)
	}
}
