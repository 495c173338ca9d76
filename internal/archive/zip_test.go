package archive

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	random := make([]byte, 256*1024)
	rnd.Read(random)

	tests := []struct {
		name     string
		fileName string
		data     []byte
	}{
		{"csv", "sales.csv", []byte("region,total\nnorth,10\nsouth,20\n")},
		{"empty payload", "empty.csv", []byte{}},
		{"unicode name", "données été 2024 – résumé.xlsx", []byte{0x50, 0x4b, 0x03, 0x04}},
		{"spaces in name", "quarterly report final.csv", []byte("a,b\n1,2\n")},
		{"nested path name", "exports/2024/q1.csv", []byte("x")},
		{"random bytes", "blob.bin", random},
	}
	var c Codec
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed, err := c.Compress(tt.fileName, tt.data)
			require.NoError(t, err)
			require.NotEmpty(t, packed)

			name, data, err := c.Decompress(packed)
			require.NoError(t, err)
			assert.Equal(t, tt.fileName, name)
			assert.True(t, bytes.Equal(tt.data, data), "content differs")
		})
	}
}

func TestCompressRejectsBadNames(t *testing.T) {
	var c Codec
	for _, name := range []string{"", "folder/"} {
		_, err := c.Compress(name, []byte("x"))
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}
}

func TestDecompressEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, zip.NewWriter(&buf).Close())

	_, _, err := Codec{}.Decompress(buf.Bytes())
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestDecompressGarbage(t *testing.T) {
	_, _, err := Codec{}.Decompress([]byte("definitely not a zip"))
	assert.ErrorIs(t, err, ErrCorruptArchive)

	_, _, err = Codec{}.Decompress(nil)
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestDecompressReturnsFirstEntry(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range []string{"first.csv", "second.csv"} {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write([]byte(n))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	name, data, err := Codec{}.Decompress(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "first.csv", name)
	assert.Equal(t, []byte("first.csv"), data)
}
