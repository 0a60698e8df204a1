package report

import "vigilance-service/internal/domain/checklist"

const ContentType = "application/pdf"

// Document is a rendered report ready to be saved or streamed.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte

	// Embedded counts photos and signatures placed in the document.
	Embedded int
	// Placeholders counts images replaced by a "not loaded" marker.
	Placeholders int
}

// Entry is one record to render with the logo of its operator.
// Logo is a data URI, an URL or empty for the default logo.
type Entry struct {
	Checklist *checklist.Checklist
	Logo      string
}
