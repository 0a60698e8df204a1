package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"

	"github.com/fogleman/gg"

	"vigilance-service/internal/pkg/datauri"
)

const (
	// JPEGQuality is the encoder quality used for camera captures.
	JPEGQuality = 88
	// MaxPixels bounds the decoded size of an uploaded picture.
	MaxPixels = 24_000_000
)

// Image is a captured picture ready to be stored as a data URI.
type Image struct {
	MIME   string
	Data   []byte
	Width  int
	Height int
}

func (i Image) DataURI() string {
	return datauri.Encode(i.MIME, i.Data)
}

// encodeJPEG redraws src on an offscreen surface of its native size and encodes it.
func encodeJPEG(src image.Image) (Image, error) {
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return Image{}, ErrNotReady
	}

	dc := gg.NewContext(b.Dx(), b.Dy())
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.DrawImage(src, -b.Min.X, -b.Min.Y)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: JPEGQuality}); err != nil {
		return Image{}, fmt.Errorf("encode jpeg: %w", err)
	}

	return Image{MIME: datauri.MimeJPEG, Data: buf.Bytes(), Width: b.Dx(), Height: b.Dy()}, nil
}

// FromFile decodes an uploaded JPEG or PNG and re-encodes it the same way as a
// camera capture. It is the gallery fallback when the camera is unavailable.
func FromFile(data []byte) (Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode upload: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > MaxPixels {
		return Image{}, fmt.Errorf("upload is %dx%d: %w", cfg.Width, cfg.Height, ErrImageTooLarge)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Image{}, fmt.Errorf("decode upload: %w", err)
	}
	return encodeJPEG(src)
}
