// internal/domain/checklist/dto.go
package checklist

// AddPhotoRequest uploads one captured image into a draft slot.
type AddPhotoRequest struct {
	Slot     PhotoSlot     `json:"slot" binding:"required,oneof=face vehicle fuel odometer"`
	Source   string        `json:"source" binding:"required"`
	Category PhotoCategory `json:"category"`
}

// SignatureRequest sets the draft signature either from an encoded image
// or from raw pad strokes rendered server-side.
type SignatureRequest struct {
	Image   string    `json:"image"`
	Strokes [][]Point `json:"strokes"`
	Width   int       `json:"width" binding:"min=0,max=2000"`
	Height  int       `json:"height" binding:"min=0,max=1000"`
}

// Point is one sampled pointer position on the signature pad.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type SubmitResponse struct {
	Checklist *Checklist `json:"checklist"`
	PDFURL    string     `json:"pdf_url"`
}

type ListResponse struct {
	Checklists []Summary `json:"checklists"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}
