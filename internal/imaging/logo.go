package imaging

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"os"
	"sync"

	"github.com/fogleman/gg"
)

var (
	defaultLogoOnce sync.Once
	defaultLogo     Normalized
	defaultLogoErr  error
)

// DefaultLogo returns the built-in report logo, a shield badge drawn once and cached.
func DefaultLogo() (Normalized, error) {
	defaultLogoOnce.Do(func() {
		defaultLogo, defaultLogoErr = drawDefaultLogo()
	})
	return defaultLogo, defaultLogoErr
}

// LoadLogo normalizes the logo at path, falling back to DefaultLogo when path is empty.
func LoadLogo(path string) (Normalized, error) {
	if path == "" {
		return DefaultLogo()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Normalized{}, fmt.Errorf("read logo: %w", err)
	}
	return Normalize(data, Options{Scale: 1})
}

func drawDefaultLogo() (Normalized, error) {
	const w, h = 240, 240

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// shield outline
	dc.MoveTo(120, 16)
	dc.LineTo(212, 52)
	dc.CubicTo(212, 140, 180, 196, 120, 226)
	dc.CubicTo(60, 196, 28, 140, 28, 52)
	dc.ClosePath()
	dc.SetHexColor("#1F3A68")
	dc.FillPreserve()
	dc.SetLineWidth(6)
	dc.SetHexColor("#C9A227")
	dc.Stroke()

	// check mark
	dc.SetLineWidth(16)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()
	dc.SetRGB(1, 1, 1)
	dc.MoveTo(78, 118)
	dc.LineTo(108, 150)
	dc.LineTo(164, 88)
	dc.Stroke()

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dc.Image(), &jpeg.Options{Quality: Quality}); err != nil {
		return Normalized{}, fmt.Errorf("encode default logo: %w", err)
	}
	return Normalized{Data: buf.Bytes(), Width: w, Height: h}, nil
}
