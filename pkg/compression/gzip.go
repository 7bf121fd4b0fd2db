package compression

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// EncodingGzip is the HTTP content coding for GZIP
	EncodingGzip = "gzip"
	// EncodingIdentity is the HTTP content coding for uncompressed data
	EncodingIdentity = "identity"
)

// ErrUnsupportedEncoding is returned for content codings other than gzip and identity
var ErrUnsupportedEncoding = errors.New("unsupported content encoding")

var gzipMagic = []byte{0x1f, 0x8b}

// IsGzip reports whether data starts with the GZIP magic number
func IsGzip(data []byte) bool {
	return bytes.HasPrefix(data, gzipMagic)
}

// NewReader returns a reader decoding r according to the HTTP
// Content-Encoding value encoding. An empty value or "identity" returns r
// unchanged.
func NewReader(r io.Reader, encoding string) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingIdentity:
		return io.NopCloser(r), nil
	case EncodingGzip, "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return zr, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
}
