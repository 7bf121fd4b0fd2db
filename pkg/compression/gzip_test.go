package compression

import (
	"bytes"
	"compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipData(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestNewReader_Gzip(t *testing.T) {
	testData := []byte("<Invoice>compressed</Invoice>")
	compressed := gzipData(t, testData)

	for _, encoding := range []string{"gzip", "GZIP", " x-gzip "} {
		t.Run(encoding, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(compressed), encoding)
			require.NoError(t, err)
			defer r.Close()

			data, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, testData, data)
		})
	}
}

func TestNewReader_Identity(t *testing.T) {
	for _, encoding := range []string{"", "identity"} {
		r, err := NewReader(strings.NewReader("plain"), encoding)
		require.NoError(t, err)

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "plain", string(data))
	}
}

func TestNewReader_Errors(t *testing.T) {
	_, err := NewReader(strings.NewReader("data"), "br")
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)

	_, err = NewReader(strings.NewReader("not gzip"), "gzip")
	assert.Error(t, err)
}

func TestIsGzip(t *testing.T) {
	assert.True(t, IsGzip(gzipData(t, []byte("x"))))
	assert.False(t, IsGzip([]byte("<xml/>")))
	assert.False(t, IsGzip(nil))
}
