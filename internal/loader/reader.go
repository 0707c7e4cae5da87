package loader

// reader.go prepares raw CSV bytes for encoding/csv.
//
//   - bomSkippingReader: Removes the UTF-8 BOM (0xEF 0xBB 0xBF) that Windows
//     programs prepend
//   - decodeText: Passes valid UTF-8 through and decodes anything else as
//     ISO-8859-1, which is what spreadsheet exports usually are

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type bomSkippingReader struct {
	reader     io.Reader
	bomChecked bool
	buf        [3]byte
	pending    []byte // bytes read during the BOM check that belong to the data
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.bomChecked {
		r.bomChecked = true

		n, err := io.ReadFull(r.reader, r.buf[:])
		if err == io.ErrUnexpectedEOF {
			err = io.EOF
		}
		if err != nil && err != io.EOF {
			return 0, err
		}
		if n < 3 || !bytes.Equal(r.buf[:], utf8BOM) {
			r.pending = r.buf[:n]
		}
		if err == io.EOF && len(r.pending) == 0 {
			return 0, io.EOF
		}
	}

	if len(r.pending) > 0 {
		copied := copy(p, r.pending)
		r.pending = r.pending[copied:]
		return copied, nil
	}

	return r.reader.Read(p)
}

// decodeText returns a reader yielding UTF-8 text for data.
func decodeText(data []byte) io.Reader {
	body := bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(body) {
		return newBOMSkippingReader(bytes.NewReader(data))
	}
	return charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(data))
}
