// Package report renders checklist records into PDF documents.
package report

import (
	"bytes"
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/imaging"
)

const (
	dateTimeLayout = "02/01/2006 15:04"

	marginX      = 15.0
	marginTop    = 12.0
	marginBottom = 15.0

	logoBox      = 24.0
	photoHeight  = 60.0
	captionH     = 6.0
	gridGap      = 5.0
	signatureW   = 70.0
	signatureH   = 28.0
	sectionTitle = 9.0
)

var (
	ErrNoRecords     = errors.New("no checklist records to render")
	ErrMissingRecord = errors.New("checklist record is missing")
)

type Options struct {
	// Location used to print dates; UTC when nil.
	Location *time.Location
	// Logo used when an operator has none or theirs fails to load.
	DefaultLogo *imaging.Normalized
	// Compress deflates page content streams.
	Compress bool
}

type Generator struct {
	loader   ImageLoader
	logger   *zap.Logger
	loc      *time.Location
	logo     imaging.Normalized
	compress bool
}

func NewGenerator(loader ImageLoader, logger *zap.Logger, opts Options) (*Generator, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	var logo imaging.Normalized
	if opts.DefaultLogo != nil {
		logo = *opts.DefaultLogo
	} else {
		l, err := imaging.DefaultLogo()
		if err != nil {
			return nil, err
		}
		logo = l
	}

	return &Generator{
		loader:   loader,
		logger:   logger,
		loc:      loc,
		logo:     logo,
		compress: opts.Compress,
	}, nil
}

// Location is the time zone dates are printed in.
func (g *Generator) Location() *time.Location {
	return g.loc
}

// Render produces the report of a single checklist.
func (g *Generator) Render(ctx context.Context, e Entry) (*Document, error) {
	if e.Checklist == nil {
		return nil, ErrMissingRecord
	}

	start := time.Now()
	doc, err := g.render(ctx, []Entry{e}, Filename(e.Checklist, g.loc))
	if err != nil {
		return nil, err
	}

	documentsTotal.WithLabelValues("single").Inc()
	renderDuration.WithLabelValues("single").Observe(time.Since(start).Seconds())
	return doc, nil
}

// RenderBatch produces one document with a page group per record, newest first.
func (g *Generator) RenderBatch(ctx context.Context, condominiumName string, entries []Entry) (*Document, error) {
	if len(entries) == 0 {
		return nil, ErrNoRecords
	}
	for _, e := range entries {
		if e.Checklist == nil {
			return nil, ErrMissingRecord
		}
	}

	start := time.Now()
	doc, err := g.render(ctx, SortEntries(entries), BatchFilename(condominiumName))
	if err != nil {
		return nil, err
	}

	documentsTotal.WithLabelValues("batch").Inc()
	renderDuration.WithLabelValues("batch").Observe(time.Since(start).Seconds())
	return doc, nil
}

// SortEntries returns a copy ordered by creation time descending, ties by id descending.
func SortEntries(entries []Entry) []Entry {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Checklist, sorted[j].Checklist
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return sorted
}

func (g *Generator) render(ctx context.Context, entries []Entry, filename string) (*Document, error) {
	// dates come from the records so the same input yields the same bytes
	stamp := entries[0].Checklist.CreatedAt

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(g.compress)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(stamp)
	pdf.SetModificationDate(stamp)
	pdf.SetMargins(marginX, marginTop, marginX)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetCreator("vigilance-service", false)
	pdf.SetTitle(tr(documentTitle(entries)), false)

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(colorMuted.r, colorMuted.g, colorMuted.b)
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("Página %d de {nb}", pdf.PageNo())), "", 0, "C", false, 0, "")
	})

	r := &renderer{
		ctx:    ctx,
		g:      g,
		pdf:    pdf,
		tr:     tr,
		doc:    &Document{Filename: filename, ContentType: ContentType},
		logger: g.logger,
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := r.record(e); err != nil {
			return nil, err
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("generate PDF: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write PDF: %w", err)
	}
	r.doc.Data = buf.Bytes()
	return r.doc, nil
}

func documentTitle(entries []Entry) string {
	if len(entries) == 1 {
		return "Checklist " + entries[0].Checklist.MotorcyclePlate
	}
	return "Checklists (" + strconv.Itoa(len(entries)) + ")"
}

// renderer holds the state of one document being written.
type renderer struct {
	ctx    context.Context
	g      *Generator
	pdf    *gofpdf.Fpdf
	tr     func(string) string
	doc    *Document
	logger *zap.Logger

	current *checklist.Checklist
}

func (r *renderer) record(e Entry) error {
	c := e.Checklist
	r.current = c
	r.pdf.AddPage()

	r.header(e.Logo, c)
	r.metadata(c)
	r.components(c)

	if len(c.VehiclePhotos) > 0 {
		if err := r.photoGrid("Fotos do veículo", "vehicle", c.VehiclePhotos, true); err != nil {
			return err
		}
	}
	if len(c.FuelPhotos) > 0 {
		if err := r.photoGrid("Fotos do combustível", "fuel", c.FuelPhotos, false); err != nil {
			return err
		}
	}
	if len(c.OdometerPhotos) > 0 {
		if err := r.photoGrid("Fotos do odômetro", "odometer", c.OdometerPhotos, false); err != nil {
			return err
		}
	}
	if c.FacePhoto != nil && c.FacePhoto.Source != "" {
		if err := r.photoGrid("Foto do vigilante", "face", []checklist.Photo{*c.FacePhoto}, false); err != nil {
			return err
		}
	}

	r.observations(c)
	return r.signature(c)
}

func (r *renderer) header(logoSource string, c *checklist.Checklist) {
	logo := r.g.logo
	if logoSource != "" {
		if l, err := r.loadImage(logoSource, imaging.Options{Scale: 1, MaxDimension: 600}); err == nil {
			logo = l
		} else {
			r.logger.Warn("operator logo unavailable, using default",
				zap.Int64("checklist_id", c.ID),
				zap.Error(err))
		}
	}

	y := r.pdf.GetY()
	r.placeImage(logo, marginX, y, logoBox, logoBox)

	r.pdf.SetXY(marginX+logoBox+6, y+3)
	r.setText(colorHeading)
	r.pdf.SetFont("Helvetica", "B", 16)
	r.pdf.CellFormat(0, 8, r.tr("Checklist de Inspeção"), "", 2, "L", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 11)
	r.setText(colorMuted)
	r.pdf.CellFormat(0, 6, r.tr("Motocicleta de ronda - "+typeLabel(c.Type)), "", 1, "L", false, 0, "")

	r.pdf.SetY(y + logoBox + 3)
	r.rule()
}

func (r *renderer) metadata(c *checklist.Checklist) {
	r.section("Dados da inspeção", 3*7)

	odometer := c.OdometerReading
	if odometer == "" {
		odometer = "-"
	}

	rows := [][4]string{
		{"Data/Hora", c.CreatedAt.In(r.g.loc).Format(dateTimeLayout), "Tipo", typeLabel(c.Type)},
		{"Vigilante", c.VigilanteName, "Placa", c.MotorcyclePlate},
		{"Odômetro", odometer, "Combustível", strconv.Itoa(c.FuelLevel) + "%"},
	}

	half := r.contentWidth() / 2
	for _, row := range rows {
		for col := 0; col < 2; col++ {
			r.pdf.SetFont("Helvetica", "B", 10)
			r.setText(colorMuted)
			r.pdf.CellFormat(28, 7, r.tr(row[col*2]+":"), "", 0, "L", false, 0, "")
			r.pdf.SetFont("Helvetica", "", 10)
			r.pdf.SetTextColor(0, 0, 0)
			ln := 0
			if col == 1 {
				ln = 1
			}
			r.pdf.CellFormat(half-28, 7, r.tr(row[col*2+1]), "", ln, "L", false, 0, "")
		}
	}
	r.pdf.Ln(2)
}

func (r *renderer) components(c *checklist.Checklist) {
	const badgeW, rowH, lineH = 36.0, 8.0, 5.0

	r.section("Itens inspecionados", rowH)
	width := r.contentWidth()

	for _, key := range checklist.ComponentOrder {
		comp := c.Component(key)

		var lines [][]byte
		if comp.Observation != "" {
			r.pdf.SetFont("Helvetica", "I", 9)
			lines = r.pdf.SplitLines([]byte(r.tr("Obs.: "+comp.Observation)), width-4)
		}
		r.ensureSpace(rowH + float64(len(lines))*lineH + 2)

		y := r.pdf.GetY()
		r.pdf.SetFont("Helvetica", "", 10)
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.CellFormat(width-badgeW, rowH, r.tr(componentLabel(key)), "", 0, "L", false, 0, "")

		text, color := statusBadge(comp.Status)
		r.pdf.SetFillColor(color.r, color.g, color.b)
		r.pdf.SetTextColor(255, 255, 255)
		r.pdf.SetFont("Helvetica", "B", 9)
		r.pdf.SetXY(marginX+width-badgeW, y+1)
		r.pdf.CellFormat(badgeW, rowH-2, r.tr(text), "", 1, "C", true, 0, "")
		r.pdf.SetY(y + rowH)

		if len(lines) > 0 {
			r.pdf.SetFont("Helvetica", "I", 9)
			r.setText(colorMuted)
			for _, l := range lines {
				r.pdf.SetX(marginX + 2)
				r.pdf.CellFormat(width-4, lineH, string(l), "", 1, "L", false, 0, "")
			}
		}
		r.rule()
	}
}

// photoGrid lays photos out two per row. Only vehicle photos carry category labels.
func (r *renderer) photoGrid(title, section string, photos []checklist.Photo, categorized bool) error {
	colW := (r.contentWidth() - gridGap) / 2
	rowH := photoHeight + captionH + 4

	r.section(title, rowH)

	for i := 0; i < len(photos); i += 2 {
		r.ensureSpace(rowH)
		y := r.pdf.GetY()

		for col := 0; col < 2 && i+col < len(photos); col++ {
			if err := r.ctx.Err(); err != nil {
				return err
			}

			idx := i + col
			p := photos[idx]
			x := marginX + float64(col)*(colW+gridGap)

			label := "Foto " + strconv.Itoa(idx+1)
			if categorized {
				label = photoLabel(p, idx)
			}

			r.pdf.SetXY(x, y)
			r.pdf.SetFont("Helvetica", "B", 9)
			r.setText(colorMuted)
			r.pdf.CellFormat(colW, captionH, r.tr(label), "", 0, "L", false, 0, "")

			r.embed(p.Source, section, x, y+captionH, colW, photoHeight, "Foto não carregada")
		}

		r.pdf.SetY(y + rowH)
	}
	return nil
}

func (r *renderer) observations(c *checklist.Checklist) {
	if c.GeneralObservations == "" && c.Damages == "" {
		return
	}

	r.section("Observações", 14)
	for _, block := range []struct{ title, text string }{
		{"Observações gerais", c.GeneralObservations},
		{"Avarias", c.Damages},
	} {
		if block.text == "" {
			continue
		}
		r.ensureSpace(14)
		r.pdf.SetFont("Helvetica", "B", 10)
		r.setText(colorMuted)
		r.pdf.CellFormat(0, 6, r.tr(block.title), "", 1, "L", false, 0, "")
		r.pdf.SetFont("Helvetica", "", 10)
		r.pdf.SetTextColor(0, 0, 0)
		r.pdf.MultiCell(0, 5, r.tr(block.text), "", "L", false)
		r.pdf.Ln(2)
	}
}

func (r *renderer) signature(c *checklist.Checklist) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}

	r.section("Assinatura", signatureH+22)

	y := r.pdf.GetY()
	r.embed(c.Signature, "signature", marginX, y, signatureW, signatureH, "Assinatura não carregada")

	r.pdf.SetY(y + signatureH + 1)
	r.pdf.SetDrawColor(0, 0, 0)
	r.pdf.Line(marginX, r.pdf.GetY(), marginX+signatureW, r.pdf.GetY())
	r.pdf.Ln(1)

	r.pdf.SetFont("Helvetica", "B", 10)
	r.pdf.SetTextColor(0, 0, 0)
	r.pdf.CellFormat(0, 6, r.tr(c.VigilanteName), "", 1, "L", false, 0, "")
	r.pdf.SetFont("Helvetica", "", 9)
	r.setText(colorMuted)
	r.pdf.CellFormat(0, 5, r.tr("Data/Hora: "+c.CreatedAt.In(r.g.loc).Format(dateTimeLayout)), "", 1, "L", false, 0, "")
	return nil
}

// embed draws the image behind source fitted in the box, or a placeholder when it cannot be loaded.
func (r *renderer) embed(source, section string, x, y, w, h float64, failText string) {
	img, err := r.loadImage(source, imaging.Options{})
	if err != nil {
		r.doc.Placeholders++
		imageFailuresTotal.WithLabelValues(section).Inc()
		r.logger.Warn("report image replaced by placeholder",
			zap.Int64("checklist_id", r.current.ID),
			zap.String("section", section),
			zap.Error(err))
		r.placeholder(x, y, w, h, failText)
		return
	}

	r.placeImage(img, x, y, w, h)
	r.doc.Embedded++
}

func (r *renderer) loadImage(source string, opts imaging.Options) (imaging.Normalized, error) {
	data, err := r.g.loader.Load(r.ctx, source)
	if err != nil {
		return imaging.Normalized{}, err
	}
	return imaging.Normalize(data, opts)
}

func (r *renderer) placeImage(img imaging.Normalized, x, y, w, h float64) {
	name := fmt.Sprintf("img-%x", sha1.Sum(img.Data))
	r.pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(img.Data))

	fw, fh := fit(float64(img.Width), float64(img.Height), w, h)
	r.pdf.ImageOptions(name, x+(w-fw)/2, y+(h-fh)/2, fw, fh, false, gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
}

func (r *renderer) placeholder(x, y, w, h float64, text string) {
	r.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	r.pdf.SetFillColor(243, 244, 246)
	r.pdf.Rect(x, y, w, h, "FD")
	r.pdf.SetXY(x, y+h/2-3)
	r.pdf.SetFont("Helvetica", "I", 9)
	r.setText(colorNeutral)
	r.pdf.CellFormat(w, 6, r.tr(text), "", 0, "C", false, 0, "")
}

func (r *renderer) section(title string, next float64) {
	r.ensureSpace(sectionTitle + next)
	r.pdf.Ln(2)
	r.pdf.SetFont("Helvetica", "B", 12)
	r.setText(colorHeading)
	r.pdf.CellFormat(0, sectionTitle-2, r.tr(title), "", 1, "L", false, 0, "")
}

// ensureSpace starts a new page when fewer than h millimetres remain.
func (r *renderer) ensureSpace(h float64) {
	_, pageH := r.pdf.GetPageSize()
	if r.pdf.GetY()+h > pageH-marginBottom {
		r.pdf.AddPage()
	}
}

func (r *renderer) rule() {
	r.pdf.SetDrawColor(colorRule.r, colorRule.g, colorRule.b)
	y := r.pdf.GetY()
	r.pdf.Line(marginX, y, marginX+r.contentWidth(), y)
	r.pdf.Ln(1)
}

func (r *renderer) setText(c rgb) {
	r.pdf.SetTextColor(c.r, c.g, c.b)
}

func (r *renderer) contentWidth() float64 {
	pageW, _ := r.pdf.GetPageSize()
	return pageW - 2*marginX
}

// fit scales w x h to fit inside maxW x maxH keeping the aspect ratio.
func fit(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if s := maxH / h; s < scale {
		scale = s
	}
	return w * scale, h * scale
}
