package imaging

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeScalesTwice(t *testing.T) {
	out, err := Normalize(pngBytes(t, 30, 20, color.NRGBA{R: 10, G: 200, B: 10, A: 255}), Options{})
	require.NoError(t, err)
	assert.Equal(t, 60, out.Width)
	assert.Equal(t, 40, out.Height)

	decoded, format, err := image.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 60, decoded.Bounds().Dx())
}

func TestNormalizeCapsLongestSide(t *testing.T) {
	out, err := Normalize(pngBytes(t, 400, 100, color.Black), Options{MaxDimension: 500})
	require.NoError(t, err)
	assert.Equal(t, 500, out.Width)
	assert.Equal(t, 125, out.Height)
}

func TestNormalizeIsDeterministic(t *testing.T) {
	in := pngBytes(t, 16, 16, color.NRGBA{R: 255, A: 128})
	a, err := Normalize(in, Options{})
	require.NoError(t, err)
	b, err := Normalize(in, Options{})
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)
}

func TestNormalizeFlattensTransparency(t *testing.T) {
	out, err := Normalize(pngBytes(t, 8, 8, color.NRGBA{}), Options{Scale: 1})
	require.NoError(t, err)

	decoded, err := jpeg.Decode(bytes.NewReader(out.Data))
	require.NoError(t, err)
	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.Greater(t, r, uint32(0xf000))
	assert.Greater(t, g, uint32(0xf000))
	assert.Greater(t, b, uint32(0xf000))
}

func TestNormalizeRejectsGarbage(t *testing.T) {
	_, err := Normalize([]byte("not an image"), Options{})
	assert.Error(t, err)
}

func TestOrientRotates(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})

	cw := Orient(src, 6)
	assert.Equal(t, 2, cw.Bounds().Dx())
	assert.Equal(t, 3, cw.Bounds().Dy())
	r, _, _, _ := cw.At(1, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	ccw := Orient(src, 8)
	r, _, _, _ = ccw.At(0, 2).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	flipped := Orient(src, 3)
	r, _, _, _ = flipped.At(2, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)

	assert.Equal(t, src, Orient(src, 1))
}

func TestOrientationWithoutExif(t *testing.T) {
	assert.Equal(t, 1, Orientation(pngBytes(t, 2, 2, color.White)))
}

func TestDefaultLogo(t *testing.T) {
	logo, err := DefaultLogo()
	require.NoError(t, err)
	assert.Equal(t, 240, logo.Width)

	again, err := DefaultLogo()
	require.NoError(t, err)
	assert.Equal(t, logo.Data, again.Data)

	fromEmpty, err := LoadLogo("")
	require.NoError(t, err)
	assert.Equal(t, logo.Data, fromEmpty.Data)
}

func TestNormalizeRejectsHugeDimensions(t *testing.T) {
	data := pngBytes(t, 1, 1, color.White)
	binary.BigEndian.PutUint32(data[16:20], 30000)
	binary.BigEndian.PutUint32(data[20:24], 30000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	_, err := Normalize(data, Options{})
	assert.ErrorIs(t, err, ErrImageTooLarge)
}
