package capture

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/fogleman/gg"

	"vigilance-service/internal/pkg/datauri"
)

const (
	signatureLineWidth = 2.5
	signatureMinPoints = 1

	MaxSignatureWidth  = 2000
	MaxSignatureHeight = 1000
	MaxSignaturePoints = 20000
)

type Point struct {
	X float64
	Y float64
}

// SignaturePad collects pen strokes and renders them to a lossless PNG.
type SignaturePad struct {
	width  int
	height int

	mu      sync.Mutex
	strokes [][]Point
	current []Point
	drawing bool
}

func NewSignaturePad(width, height int) *SignaturePad {
	return &SignaturePad{width: width, height: height}
}

func (p *SignaturePad) BeginStroke(x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drawing = true
	p.current = []Point{{X: x, Y: y}}
}

func (p *SignaturePad) AddPoint(x, y float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.drawing {
		return
	}
	p.current = append(p.current, Point{X: x, Y: y})
}

func (p *SignaturePad) EndStroke() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.drawing {
		return
	}
	if len(p.current) >= signatureMinPoints {
		p.strokes = append(p.strokes, p.current)
	}
	p.current = nil
	p.drawing = false
}

func (p *SignaturePad) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.strokes = nil
	p.current = nil
	p.drawing = false
}

// IsEmpty reports whether no stroke has been completed yet.
func (p *SignaturePad) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.strokes) == 0
}

// Confirm renders the strokes. It fails with ErrEmptySignature until a stroke exists.
func (p *SignaturePad) Confirm() (Image, error) {
	p.mu.Lock()
	strokes := make([][]Point, len(p.strokes))
	copy(strokes, p.strokes)
	p.mu.Unlock()

	return RenderSignature(p.width, p.height, strokes)
}

// RenderSignature draws strokes in black on white and encodes them as PNG.
func RenderSignature(width, height int, strokes [][]Point) (Image, error) {
	if width <= 0 || height <= 0 {
		return Image{}, fmt.Errorf("invalid signature surface %dx%d", width, height)
	}
	if width > MaxSignatureWidth || height > MaxSignatureHeight {
		return Image{}, fmt.Errorf("signature surface %dx%d: %w", width, height, ErrImageTooLarge)
	}

	points := 0
	for _, s := range strokes {
		points += len(s)
	}
	if points == 0 {
		return Image{}, ErrEmptySignature
	}
	if points > MaxSignaturePoints {
		return Image{}, fmt.Errorf("signature has %d points, limit is %d", points, MaxSignaturePoints)
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetRGB(0, 0, 0)
	dc.SetLineWidth(signatureLineWidth)
	dc.SetLineCapRound()
	dc.SetLineJoinRound()

	for _, s := range strokes {
		switch len(s) {
		case 0:
			continue
		case 1:
			dc.DrawPoint(s[0].X, s[0].Y, signatureLineWidth/2)
			dc.Fill()
		default:
			dc.MoveTo(s[0].X, s[0].Y)
			for _, pt := range s[1:] {
				dc.LineTo(pt.X, pt.Y)
			}
			dc.Stroke()
		}
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return Image{}, fmt.Errorf("encode png: %w", err)
	}
	return Image{MIME: datauri.MimePNG, Data: buf.Bytes(), Width: width, Height: height}, nil
}
