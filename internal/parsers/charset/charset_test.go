package charset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestDetectEncodingUTF8(t *testing.T) {
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte(`<root>hello</root>`)))
	assert.Equal(t, EncodingUTF8, DetectEncoding([]byte{0xEF, 0xBB, 0xBF, '<', '/', '>'}))
}

func TestDetectEncodingWindows1255(t *testing.T) {
	hebrewBytes, err := charmap.Windows1255.NewEncoder().String("מחיר")
	require.NoError(t, err)
	assert.Equal(t, EncodingWindows1255, DetectEncoding([]byte(hebrewBytes)))
}

func TestDecodeWindows1255RoundTrips(t *testing.T) {
	original := "מוצר לדוגמה"
	encoded, err := charmap.Windows1255.NewEncoder().String(original)
	require.NoError(t, err)

	decoded, err := Decode([]byte(encoded), EncodingWindows1255)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeUTF8PassesThrough(t *testing.T) {
	decoded, err := Decode([]byte("already utf-8"), EncodingUTF8)
	require.NoError(t, err)
	assert.Equal(t, "already utf-8", decoded)
}
