package report

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/imaging"
	"vigilance-service/internal/pkg/datauri"
	"vigilance-service/internal/pkg/retry"
)

func testPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testGenerator(t *testing.T) *Generator {
	t.Helper()
	loader := NewHTTPLoader(2*time.Second, retry.Policy{Attempts: 2, BaseDelay: time.Millisecond})
	g, err := NewGenerator(loader, zap.NewNop(), Options{Location: time.UTC})
	require.NoError(t, err)
	return g
}

func janeDoe(t *testing.T) *checklist.Checklist {
	return &checklist.Checklist{
		ID:              1,
		CondominiumID:   10,
		VigilanteID:     20,
		VigilanteName:   "Jane Doe",
		MotorcycleID:    30,
		MotorcyclePlate: "ABC-1234",
		Type:            checklist.TypeStart,
		Components: map[checklist.ComponentKey]checklist.Component{
			checklist.Tires: {Status: checklist.StatusGood},
		},
		FuelLevel: 75,
		Signature: datauri.Encode(datauri.MimePNG, testPNG(t, 40, 20, color.Black)),
		Status:    checklist.RecordCompleted,
		CreatedAt: time.Date(2024, 3, 5, 14, 7, 0, 0, time.UTC),
	}
}

func TestRenderJaneDoeScenario(t *testing.T) {
	doc, err := testGenerator(t).Render(context.Background(), Entry{Checklist: janeDoe(t)})
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "checklist-ABC-1234-05-03-2024-14-07.pdf", doc.Filename)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF-")))

	assert.Contains(t, string(doc.Data), "(ABC-1234)Tj")
	assert.Contains(t, string(doc.Data), "(Jane Doe)Tj")

	green := bytes.Index(doc.Data, []byte("0.086 0.639 0.290 rg"))
	badge := bytes.Index(doc.Data, []byte("(Bom)Tj"))
	require.NotEqual(t, -1, green, "green fill missing")
	require.NotEqual(t, -1, badge, "Bom badge missing")
	assert.Less(t, green, badge)

	assert.NotContains(t, string(doc.Data), "(Fotos do ve")
	assert.NotContains(t, string(doc.Data), "(Foto do vigilante)")
	assert.Equal(t, 1, doc.Embedded)
	assert.Equal(t, 0, doc.Placeholders)
}

func TestRenderIsIdempotent(t *testing.T) {
	c := janeDoe(t)
	c.VehiclePhotos = []checklist.Photo{
		{Source: datauri.Encode(datauri.MimePNG, testPNG(t, 12, 8, color.RGBA{R: 200, A: 255})), Category: checklist.CategoryFront},
	}

	for _, compress := range []bool{false, true} {
		g, err := NewGenerator(NewHTTPLoader(time.Second, retry.Default), zap.NewNop(), Options{Compress: compress})
		require.NoError(t, err)

		a, err := g.Render(context.Background(), Entry{Checklist: c})
		require.NoError(t, err)
		b, err := g.Render(context.Background(), Entry{Checklist: c})
		require.NoError(t, err)
		assert.Equal(t, a.Data, b.Data, "compress=%v", compress)
	}
}

func TestRenderEmbedsNormalizedImages(t *testing.T) {
	photo := testPNG(t, 16, 10, color.RGBA{G: 180, A: 255})
	c := janeDoe(t)
	c.FuelPhotos = []checklist.Photo{{Source: datauri.Encode(datauri.MimePNG, photo)}}

	doc, err := testGenerator(t).Render(context.Background(), Entry{Checklist: c})
	require.NoError(t, err)

	normalized, err := imaging.Normalize(photo, imaging.Options{})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(doc.Data, normalized.Data), "normalized photo bytes not embedded")
	assert.False(t, bytes.Contains(doc.Data, photo), "raw PNG should never be embedded")

	_, sig, err := datauri.Decode(c.Signature)
	require.NoError(t, err)
	normalizedSig, err := imaging.Normalize(sig, imaging.Options{})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(doc.Data, normalizedSig.Data))

	assert.Contains(t, string(doc.Data), "(Fotos do combust")
	assert.Equal(t, 2, doc.Embedded)
}

func TestRenderDegradesOnUnreachablePhoto(t *testing.T) {
	good := testPNG(t, 10, 10, color.RGBA{B: 255, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(good)
	}))
	defer srv.Close()

	c := janeDoe(t)
	c.VehiclePhotos = []checklist.Photo{
		{Source: srv.URL + "/front.png", Category: checklist.CategoryFront},
		{Source: srv.URL + "/missing.png", Category: checklist.CategoryBack},
		{Source: srv.URL + "/left.png", Category: "sideways"},
	}

	doc, err := testGenerator(t).Render(context.Background(), Entry{Checklist: c})
	require.NoError(t, err)

	assert.Equal(t, 1, doc.Placeholders)
	assert.Equal(t, 3, doc.Embedded) // two photos plus the signature
	assert.Contains(t, string(doc.Data), "(Foto n\xe3o carregada)Tj")
	assert.Contains(t, string(doc.Data), "(Frente)Tj")
	assert.Contains(t, string(doc.Data), "(Traseira)Tj")
	assert.Contains(t, string(doc.Data), "(Foto 3)Tj")
}

func TestRenderFallsBackToDefaultLogo(t *testing.T) {
	g := testGenerator(t)
	c := janeDoe(t)

	withBroken, err := g.Render(context.Background(), Entry{Checklist: c, Logo: "ftp://nowhere/logo.png"})
	require.NoError(t, err)
	withDefault, err := g.Render(context.Background(), Entry{Checklist: c})
	require.NoError(t, err)

	assert.Equal(t, withDefault.Data, withBroken.Data)
}

func TestRenderBatchOrdersNewestFirst(t *testing.T) {
	older := janeDoe(t)
	older.ID = 1
	older.MotorcyclePlate = "ZZZ-0001"
	older.CreatedAt = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	newer := janeDoe(t)
	newer.ID = 2
	newer.MotorcyclePlate = "AAA-0002"
	newer.CreatedAt = time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)

	doc, err := testGenerator(t).RenderBatch(context.Background(), "Residencial Águas Claras",
		[]Entry{{Checklist: older}, {Checklist: newer}})
	require.NoError(t, err)

	assert.Equal(t, "checklists-Residencial-Aguas-Claras.pdf", doc.Filename)
	first := bytes.Index(doc.Data, []byte("(AAA-0002)Tj"))
	second := bytes.Index(doc.Data, []byte("(ZZZ-0001)Tj"))
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.Equal(t, 2, doc.Embedded)
}

func TestRenderBatchRejectsEmptyAndMissing(t *testing.T) {
	g := testGenerator(t)

	_, err := g.RenderBatch(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrNoRecords)

	_, err = g.RenderBatch(context.Background(), "x", []Entry{{Checklist: janeDoe(t)}, {}})
	assert.ErrorIs(t, err, ErrMissingRecord)
}

func TestRenderHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testGenerator(t).Render(ctx, Entry{Checklist: janeDoe(t)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestObservationsOmittedWhenEmpty(t *testing.T) {
	c := janeDoe(t)
	doc, err := testGenerator(t).Render(context.Background(), Entry{Checklist: c})
	require.NoError(t, err)
	assert.NotContains(t, string(doc.Data), "(Observa")

	c.Damages = "Risco no tanque"
	doc, err = testGenerator(t).Render(context.Background(), Entry{Checklist: c})
	require.NoError(t, err)
	assert.Contains(t, string(doc.Data), "(Avarias)Tj")
	assert.Contains(t, string(doc.Data), "Risco no tanque")
}

func TestSortEntriesStable(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	in := []Entry{
		{Checklist: &checklist.Checklist{ID: 1, CreatedAt: at}},
		{Checklist: &checklist.Checklist{ID: 3, CreatedAt: at.Add(-time.Hour)}},
		{Checklist: &checklist.Checklist{ID: 2, CreatedAt: at}},
	}

	out := SortEntries(in)
	ids := []int64{out[0].Checklist.ID, out[1].Checklist.ID, out[2].Checklist.ID}
	assert.Equal(t, []int64{2, 1, 3}, ids)
	assert.Equal(t, int64(1), in[0].Checklist.ID)
}

// pageStreams returns the uncompressed content stream of every page in order.
func pageStreams(t *testing.T, data []byte) []string {
	t.Helper()
	var pages []string
	rest := string(data)
	for {
		i := strings.Index(rest, "<</Type /Page\n")
		if i < 0 {
			return pages
		}
		rest = rest[i:]
		start := strings.Index(rest, "stream\n")
		end := strings.Index(rest, "\nendstream")
		require.True(t, start >= 0 && end > start, "page without content stream")
		pages = append(pages, rest[start+len("stream\n"):end])
		rest = rest[end:]
	}
}

var (
	photoCaption = regexp.MustCompile(`\(Foto \d+\)Tj`)
	imageDraw    = regexp.MustCompile(`q [\d.]+ 0 0 ([\d.]+) [\d.]+ ([\d.]+) cm /I\w+ Do Q`)
)

func TestRenderBreaksPagesBeforeOverflow(t *testing.T) {
	c := janeDoe(t)
	long := strings.Repeat("Desgaste irregular observado durante a ronda noturna. ", 6)
	c.Components = map[checklist.ComponentKey]checklist.Component{}
	for _, key := range checklist.ComponentOrder {
		c.Components[key] = checklist.Component{Status: checklist.StatusRegular, Observation: long}
	}
	for i := 0; i < 6; i++ {
		shade := uint8(40 * i)
		c.VehiclePhotos = append(c.VehiclePhotos, checklist.Photo{
			Source: datauri.Encode(datauri.MimePNG, testPNG(t, 12+i, 8, color.RGBA{R: shade, G: 90, B: 30, A: 255})),
		})
	}
	for i := 0; i < 5; i++ {
		c.FuelPhotos = append(c.FuelPhotos, checklist.Photo{
			Source: datauri.Encode(datauri.MimePNG, testPNG(t, 10, 10+i, color.RGBA{B: uint8(50 * i), A: 255})),
		})
	}

	short, err := testGenerator(t).Render(context.Background(), Entry{Checklist: janeDoe(t)})
	require.NoError(t, err)
	doc, err := testGenerator(t).Render(context.Background(), Entry{Checklist: c})
	require.NoError(t, err)
	require.Equal(t, 0, doc.Placeholders)

	pages := pageStreams(t, doc.Data)
	require.Len(t, pageStreams(t, short.Data), 1)
	require.GreaterOrEqual(t, len(pages), 3)

	// nothing is drawn into the bottom margin (PDF y grows upwards, in points)
	minY := marginBottom * 72 / 25.4
	captions := 0
	for n, page := range pages {
		for _, m := range imageDraw.FindAllStringSubmatch(page, -1) {
			y, err := strconv.ParseFloat(m[2], 64)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, y+0.01, minY, "page %d image below margin", n+1)
		}

		// every caption is followed by its image on the same page
		locs := photoCaption.FindAllStringIndex(page, -1)
		captions += len(locs)
		for i, loc := range locs {
			limit := len(page)
			if i+1 < len(locs) {
				limit = locs[i+1][0]
			}
			assert.True(t, imageDraw.MatchString(page[loc[1]:limit]), "page %d caption %d has no image", n+1, i)
		}
	}
	assert.Equal(t, 11, captions)
	assert.Equal(t, 12, doc.Embedded)

	for n := range pages {
		assert.Contains(t, pages[n], "(P\xe1gina "+strconv.Itoa(n+1)+" de "+strconv.Itoa(len(pages))+")Tj")
	}
}

func TestRenderBatchResolvesLogoPerRecord(t *testing.T) {
	g := testGenerator(t)
	redLogo := testPNG(t, 30, 12, color.RGBA{R: 220, A: 255})
	blueLogo := testPNG(t, 24, 24, color.RGBA{B: 220, A: 255})

	first := janeDoe(t)
	first.ID, first.MotorcyclePlate = 1, "AAA-0001"
	second := janeDoe(t)
	second.ID, second.MotorcyclePlate = 2, "BBB-0002"
	second.CreatedAt = first.CreatedAt.Add(time.Hour)
	third := janeDoe(t)
	third.ID, third.MotorcyclePlate = 3, "CCC-0003"
	third.CreatedAt = first.CreatedAt.Add(2 * time.Hour)

	normalize := func(data []byte) []byte {
		n, err := imaging.Normalize(data, imaging.Options{Scale: 1, MaxDimension: 600})
		require.NoError(t, err)
		return n.Data
	}
	fallback, err := imaging.DefaultLogo()
	require.NoError(t, err)

	// an operator logo replaces the default one
	single, err := g.Render(context.Background(), Entry{Checklist: first, Logo: datauri.Encode(datauri.MimePNG, redLogo)})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(single.Data, normalize(redLogo)))
	assert.False(t, bytes.Contains(single.Data, fallback.Data))

	doc, err := g.RenderBatch(context.Background(), "Residencial Aurora", []Entry{
		{Checklist: first, Logo: datauri.Encode(datauri.MimePNG, redLogo)},
		{Checklist: second, Logo: datauri.Encode(datauri.MimePNG, blueLogo)},
		{Checklist: third},
	})
	require.NoError(t, err)

	assert.True(t, bytes.Contains(doc.Data, normalize(redLogo)), "first operator logo missing")
	assert.True(t, bytes.Contains(doc.Data, normalize(blueLogo)), "second operator logo missing")
	assert.True(t, bytes.Contains(doc.Data, fallback.Data), "record without logo should use the default")
	require.Len(t, pageStreams(t, doc.Data), 3)
}
