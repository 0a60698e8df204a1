package capture

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignaturePadEmpty(t *testing.T) {
	pad := NewSignaturePad(300, 120)
	assert.True(t, pad.IsEmpty())

	_, err := pad.Confirm()
	assert.ErrorIs(t, err, ErrEmptySignature)

	// a stroke still in progress does not count
	pad.BeginStroke(10, 10)
	pad.AddPoint(20, 20)
	assert.True(t, pad.IsEmpty())
}

func TestSignaturePadRendersPNG(t *testing.T) {
	pad := NewSignaturePad(300, 120)
	pad.BeginStroke(10, 60)
	pad.AddPoint(100, 20)
	pad.AddPoint(200, 100)
	pad.EndStroke()

	img, err := pad.Confirm()
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)

	decoded, err := png.Decode(bytes.NewReader(img.Data))
	require.NoError(t, err)
	assert.Equal(t, 300, decoded.Bounds().Dx())
	assert.Equal(t, 120, decoded.Bounds().Dy())

	r, g, b, _ := decoded.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r&g&b)
}

func TestSignaturePadClear(t *testing.T) {
	pad := NewSignaturePad(100, 50)
	pad.BeginStroke(1, 1)
	pad.EndStroke()
	require.False(t, pad.IsEmpty())

	pad.Clear()
	assert.True(t, pad.IsEmpty())
}

func TestRenderSignatureDeterministic(t *testing.T) {
	strokes := [][]Point{{{X: 5, Y: 5}, {X: 50, Y: 40}}, {{X: 70, Y: 10}}}

	a, err := RenderSignature(100, 50, strokes)
	require.NoError(t, err)
	b, err := RenderSignature(100, 50, strokes)
	require.NoError(t, err)
	assert.Equal(t, a.Data, b.Data)

	_, err = RenderSignature(0, 50, strokes)
	assert.Error(t, err)
}

func TestRenderSignatureRejectsOversizedSurface(t *testing.T) {
	strokes := [][]Point{{{X: 5, Y: 5}, {X: 50, Y: 40}}}

	_, err := RenderSignature(30000, 30000, strokes)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = RenderSignature(MaxSignatureWidth+1, 100, strokes)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	_, err = RenderSignature(MaxSignatureWidth, MaxSignatureHeight, strokes)
	assert.NoError(t, err)

	_, err = RenderSignature(300, 100, [][]Point{make([]Point, MaxSignaturePoints+1)})
	assert.Error(t, err)
}
