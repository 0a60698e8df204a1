// internal/service/checklist/checklist.go
package checklist

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"vigilance-service/internal/capture"
	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	"vigilance-service/internal/domain/motorcycle"
	"vigilance-service/internal/domain/vigilante"
	"vigilance-service/internal/pkg/datauri"
	xerrors "vigilance-service/internal/pkg/errors"
	"vigilance-service/internal/report"
	condosvc "vigilance-service/internal/service/condominium"
)

// Notifier receives checklist lifecycle events.
type Notifier interface {
	ChecklistCreated(condominiumID int64, summary checklist.Summary)
	ChecklistsDeleted(condominiumID int64, ids []int64)
}

type ChecklistService struct {
	repo           checklist.Repository
	drafts         checklist.DraftStore
	condos         *condosvc.CondominiumService
	vigilanteRepo  vigilante.Repository
	motorcycleRepo motorcycle.Repository
	generator      *report.Generator
	notifier       Notifier
	logger         *zap.Logger
}

func NewChecklistService(
	repo checklist.Repository,
	drafts checklist.DraftStore,
	condos *condosvc.CondominiumService,
	vigilanteRepo vigilante.Repository,
	motorcycleRepo motorcycle.Repository,
	generator *report.Generator,
	notifier Notifier,
	logger *zap.Logger,
) *ChecklistService {
	return &ChecklistService{
		repo:           repo,
		drafts:         drafts,
		condos:         condos,
		vigilanteRepo:  vigilanteRepo,
		motorcycleRepo: motorcycleRepo,
		generator:      generator,
		notifier:       notifier,
		logger:         logger,
	}
}

// ========== Draft ==========

func (s *ChecklistService) GetDraft(ctx context.Context, p *auth.Principal) (*checklist.Draft, error) {
	return s.drafts.Get(ctx, p.UserID)
}

// UpdateDraft merges patch into the caller's draft. Nothing but photo
// sources is checked until submit.
func (s *ChecklistService) UpdateDraft(ctx context.Context, p *auth.Principal, patch checklist.Patch) (*checklist.Draft, error) {
	if patch.FacePhoto != nil {
		if err := validateSource(patch.FacePhoto.Source); err != nil {
			return nil, err
		}
	}
	for _, list := range []*[]checklist.Photo{patch.VehiclePhotos, patch.FuelPhotos, patch.OdometerPhotos} {
		if list == nil {
			continue
		}
		for _, photo := range *list {
			if err := validateSource(photo.Source); err != nil {
				return nil, err
			}
		}
	}
	if patch.Signature != nil && *patch.Signature != "" {
		if err := validateImageDataURI(*patch.Signature); err != nil {
			return nil, err
		}
	}

	return s.drafts.Mutate(ctx, p.UserID, func(d *checklist.Draft) error {
		d.Update(patch)
		return nil
	})
}

// AddPhoto stores one captured photo in a draft slot. Uploaded image bytes
// are re-encoded like a camera capture; URLs are kept as given.
func (s *ChecklistService) AddPhoto(ctx context.Context, p *auth.Principal, req *checklist.AddPhotoRequest) (*checklist.Draft, error) {
	source := req.Source
	if datauri.IsDataURI(source) {
		_, data, err := datauri.Decode(source)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, xerrors.ErrInvalidInput)
		}
		img, err := capture.FromFile(data)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, xerrors.ErrInvalidInput)
		}
		source = img.DataURI()
	} else if err := validateSource(source); err != nil {
		return nil, err
	}

	return s.drafts.Mutate(ctx, p.UserID, func(d *checklist.Draft) error {
		if err := d.AddPhoto(req.Slot, checklist.Photo{Source: source, Category: req.Category}); err != nil {
			return fmt.Errorf("%v: %w", err, xerrors.ErrInvalidInput)
		}
		return nil
	})
}

func (s *ChecklistService) RemovePhoto(ctx context.Context, p *auth.Principal, slot checklist.PhotoSlot, index int) (*checklist.Draft, error) {
	return s.drafts.Mutate(ctx, p.UserID, func(d *checklist.Draft) error {
		if err := d.RemovePhoto(slot, index); err != nil {
			return fmt.Errorf("%v: %w", err, xerrors.ErrInvalidInput)
		}
		return nil
	})
}

// SetSignature stores the signature from an encoded image or from raw
// pad strokes, which are rendered the same way the signature pad does.
func (s *ChecklistService) SetSignature(ctx context.Context, p *auth.Principal, req *checklist.SignatureRequest) (*checklist.Draft, error) {
	signature, err := RenderSignature(req)
	if err != nil {
		return nil, err
	}

	return s.drafts.Mutate(ctx, p.UserID, func(d *checklist.Draft) error {
		d.Signature = signature
		return nil
	})
}

// RenderSignature returns the signature data URI described by req.
func RenderSignature(req *checklist.SignatureRequest) (string, error) {
	if req.Image != "" {
		if err := validateImageDataURI(req.Image); err != nil {
			return "", err
		}
		return req.Image, nil
	}

	width, height := req.Width, req.Height
	if width <= 0 || height <= 0 {
		width, height = 600, 200
	}

	strokes := make([][]capture.Point, len(req.Strokes))
	for i, stroke := range req.Strokes {
		strokes[i] = make([]capture.Point, len(stroke))
		for j, pt := range stroke {
			strokes[i][j] = capture.Point{X: pt.X, Y: pt.Y}
		}
	}

	img, err := capture.RenderSignature(width, height, strokes)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, xerrors.ErrInvalidInput)
	}
	return img.DataURI(), nil
}

// ResetDraft discards the caller's draft.
func (s *ChecklistService) ResetDraft(ctx context.Context, p *auth.Principal) error {
	return s.drafts.Delete(ctx, p.UserID)
}

// Submit validates the draft and persists it. An invalid draft never
// reaches the repository; the draft is kept whatever the outcome.
func (s *ChecklistService) Submit(ctx context.Context, p *auth.Principal) (*checklist.SubmitResponse, error) {
	draft, err := s.drafts.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	v, err := s.vigilanteRepo.FindByID(ctx, draft.VigilanteID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, &checklist.ValidationError{Fields: []string{"vigilante"}}
	}
	if err != nil {
		return nil, err
	}
	if _, err := s.condos.Authorize(ctx, p, v.CondominiumID, condosvc.AccessRead); err != nil {
		return nil, err
	}

	m, err := s.motorcycleRepo.FindByID(ctx, draft.MotorcycleID)
	if errors.Is(err, xerrors.ErrNotFound) || (err == nil && m.CondominiumID != v.CondominiumID) {
		return nil, &checklist.ValidationError{Fields: []string{"motorcycle"}}
	}
	if err != nil {
		return nil, err
	}

	c := draft.ToChecklist()
	c.CreatedBy = p.UserID
	if err := s.repo.Create(ctx, c); err != nil {
		s.logger.Error("failed to save checklist",
			zap.Int64("user_id", p.UserID),
			zap.Int64("vigilante_id", draft.VigilanteID),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := s.drafts.Mutate(ctx, p.UserID, func(d *checklist.Draft) error {
		d.LastSavedID = &c.ID
		return nil
	}); err != nil {
		s.logger.Warn("failed to record last saved checklist on draft", zap.Int64("checklist_id", c.ID), zap.Error(err))
	}

	s.logger.Info("checklist submitted",
		zap.Int64("checklist_id", c.ID),
		zap.Int64("condominium_id", c.CondominiumID),
		zap.String("type", string(c.Type)),
	)

	if s.notifier != nil {
		s.notifier.ChecklistCreated(c.CondominiumID, summaryOf(c))
	}

	return &checklist.SubmitResponse{
		Checklist: c,
		PDFURL:    "/api/v1/checklists/" + strconv.FormatInt(c.ID, 10) + "/pdf",
	}, nil
}

func summaryOf(c *checklist.Checklist) checklist.Summary {
	return checklist.Summary{
		ID:              c.ID,
		CondominiumID:   c.CondominiumID,
		VigilanteID:     c.VigilanteID,
		VigilanteName:   c.VigilanteName,
		MotorcycleID:    c.MotorcycleID,
		MotorcyclePlate: c.MotorcyclePlate,
		Type:            c.Type,
		FuelLevel:       c.FuelLevel,
		Status:          c.Status,
		CreatedAt:       c.CreatedAt,
	}
}

// ========== Records ==========

func (s *ChecklistService) Get(ctx context.Context, p *auth.Principal, id int64) (*checklist.Checklist, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.condos.Authorize(ctx, p, c.CondominiumID, condosvc.AccessRead); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ChecklistService) List(ctx context.Context, p *auth.Principal, condominiumID int64, filters *checklist.ListFilters) (*checklist.ListResponse, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessRead); err != nil {
		return nil, err
	}
	if filters.Type != "" && !filters.Type.Valid() {
		return nil, fmt.Errorf("unknown checklist type %q: %w", filters.Type, xerrors.ErrInvalidInput)
	}
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	summaries, total, err := s.repo.ListSummaries(ctx, condominiumID, filters)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}
	return &checklist.ListResponse{
		Checklists: summaries,
		Total:      total,
		Page:       filters.Page,
		PageSize:   filters.PageSize,
		TotalPages: totalPages,
	}, nil
}

// PDF renders the report of one checklist.
func (s *ChecklistService) PDF(ctx context.Context, p *auth.Principal, id int64) (*report.Document, error) {
	c, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	entry, err := s.ReportEntry(ctx, c)
	if err != nil {
		return nil, err
	}

	doc, err := s.generator.Render(ctx, entry)
	if err != nil {
		return nil, err
	}
	if doc.Placeholders > 0 {
		s.logger.Warn("report rendered with missing images",
			zap.Int64("checklist_id", c.ID),
			zap.Int("placeholders", doc.Placeholders),
		)
	}
	return doc, nil
}

// ReportEntry pairs c with the logo of its operator. It fails with a
// MissingEntityError when the guard or the motorcycle is gone.
func (s *ChecklistService) ReportEntry(ctx context.Context, c *checklist.Checklist) (report.Entry, error) {
	refs, err := s.repo.ReportRefs(ctx, c.ID)
	if err != nil {
		return report.Entry{}, err
	}
	if !refs.VigilanteFound {
		return report.Entry{}, &checklist.MissingEntityError{Entity: "vigilante", ID: c.VigilanteID, ChecklistID: c.ID}
	}
	if !refs.MotorcycleFound {
		return report.Entry{}, &checklist.MissingEntityError{Entity: "motorcycle", ID: c.MotorcycleID, ChecklistID: c.ID}
	}
	return report.Entry{Checklist: c, Logo: refs.LogoURL}, nil
}

func validateSource(src string) error {
	if datauri.IsDataURI(src) {
		return validateImageDataURI(src)
	}
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("photo source must be an image data URI or an http(s) URL: %w", xerrors.ErrInvalidInput)
	}
	return nil
}

func validateImageDataURI(src string) error {
	mime, data, err := datauri.Decode(src)
	if err != nil {
		return fmt.Errorf("%v: %w", err, xerrors.ErrInvalidInput)
	}
	if (mime != datauri.MimeJPEG && mime != datauri.MimePNG) || len(data) == 0 {
		return fmt.Errorf("unsupported image type %q: %w", mime, xerrors.ErrInvalidInput)
	}
	return nil
}
