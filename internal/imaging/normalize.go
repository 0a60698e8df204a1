// Package imaging prepares photos and logos for embedding in PDF reports.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

const (
	// Quality of re-encoded report images.
	Quality = 92

	defaultScale        = 2.0
	defaultMaxDimension = 2400

	// MaxPixels bounds the decoded size of a source image.
	MaxPixels = 24_000_000
)

var (
	ErrEmptyImage    = errors.New("image has no pixels")
	ErrImageTooLarge = errors.New("image dimensions exceed limit")
)

type Options struct {
	// Scale applied to the decoded image before encoding. Zero means 2x.
	Scale float64
	// MaxDimension caps the longest side after scaling. Zero means 2400px.
	MaxDimension int
}

// Normalized is a JPEG ready to be embedded as is.
type Normalized struct {
	Data   []byte
	Width  int
	Height int
}

// Normalize decodes a JPEG or PNG, applies its EXIF orientation, flattens it
// on white, scales it and re-encodes it as JPEG. The output depends only on
// the input bytes.
func Normalize(data []byte, opts Options) (Normalized, error) {
	if opts.Scale <= 0 {
		opts.Scale = defaultScale
	}
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = defaultMaxDimension
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Normalized{}, ErrEmptyImage
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return Normalized{}, fmt.Errorf("image is %dx%d: %w", cfg.Width, cfg.Height, ErrImageTooLarge)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Normalized{}, fmt.Errorf("decode image: %w", err)
	}
	if format == "jpeg" {
		src = Orient(src, Orientation(data))
	}

	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Normalized{}, ErrEmptyImage
	}

	w, h := scaledSize(b.Dx(), b.Dy(), opts.Scale, opts.MaxDimension)

	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, b, draw.Src, nil)

	// transparent PNG pixels would turn black in JPEG
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(scaled, 0, 0)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: Quality}); err != nil {
		return Normalized{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Normalized{Data: buf.Bytes(), Width: w, Height: h}, nil
}

func scaledSize(w, h int, scale float64, maxDim int) (int, int) {
	longest := w
	if h > longest {
		longest = h
	}
	if float64(longest)*scale > float64(maxDim) {
		scale = float64(maxDim) / float64(longest)
	}

	nw := int(float64(w)*scale + 0.5)
	nh := int(float64(h)*scale + 0.5)
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}
