// internal/service/export/export.go
package export

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/checklist"
	xerrors "vigilance-service/internal/pkg/errors"
	"vigilance-service/internal/report"
	checklistsvc "vigilance-service/internal/service/checklist"
	condosvc "vigilance-service/internal/service/condominium"
)

// ErrDeleteAfterExport means the export was saved but the records it
// covers could not be deleted afterwards.
var ErrDeleteAfterExport = errors.New("export saved but checklists were not deleted")

// MissingEntityError is returned when a checklist of the set references a
// guard or motorcycle that no longer exists.
type MissingEntityError = checklist.MissingEntityError

// Sink receives a finished export document.
type Sink interface {
	Save(ctx context.Context, doc *report.Document) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, doc *report.Document) error

func (f SinkFunc) Save(ctx context.Context, doc *report.Document) error {
	return f(ctx, doc)
}

// DeletePreview is shown before a bulk delete. Token must be sent back to
// confirm it and stops matching as soon as the set changes.
type DeletePreview struct {
	Count    int64      `json:"count"`
	LatestAt *time.Time `json:"latest_at,omitempty"`
	Token    string     `json:"token"`
}

// ExportDeleteResult is the outcome of ExportThenDelete.
type ExportDeleteResult struct {
	Document    *report.Document
	ExportedIDs []int64
	Deleted     int64
	DeleteErr   error
}

type ExportService struct {
	checklistRepo checklist.Repository
	checklists    *checklistsvc.ChecklistService
	condos        *condosvc.CondominiumService
	generator     *report.Generator
	notifier      checklistsvc.Notifier
	settleDelay   time.Duration
	logger        *zap.Logger
}

func NewExportService(
	checklistRepo checklist.Repository,
	checklists *checklistsvc.ChecklistService,
	condos *condosvc.CondominiumService,
	generator *report.Generator,
	notifier checklistsvc.Notifier,
	settleDelay time.Duration,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		checklistRepo: checklistRepo,
		checklists:    checklists,
		condos:        condos,
		generator:     generator,
		notifier:      notifier,
		settleDelay:   settleDelay,
		logger:        logger,
	}
}

// ExportOnly renders every checklist of the condominium into one document
// and hands it to sink.
func (s *ExportService) ExportOnly(ctx context.Context, p *auth.Principal, condominiumID int64, sink Sink) (*report.Document, error) {
	doc, _, err := s.export(ctx, p, condominiumID)
	if err != nil {
		return nil, err
	}
	if err := sink.Save(ctx, doc); err != nil {
		return nil, xerrors.Wrap(err, "failed to save export")
	}
	return doc, nil
}

func (s *ExportService) export(ctx context.Context, p *auth.Principal, condominiumID int64) (*report.Document, []int64, error) {
	condo, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage)
	if err != nil {
		return nil, nil, err
	}

	records, err := s.checklistRepo.ListByCondominium(ctx, condominiumID)
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: %w", report.ErrNoRecords, xerrors.ErrNotFound)
	}

	entries := make([]report.Entry, 0, len(records))
	ids := make([]int64, 0, len(records))
	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		entry, err := s.checklists.ReportEntry(ctx, &records[i])
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, entry)
		ids = append(ids, records[i].ID)
	}

	doc, err := s.generator.RenderBatch(ctx, condo.Name, entries)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("checklists exported",
		zap.Int64("condominium_id", condominiumID),
		zap.Int("records", len(entries)),
		zap.Int("placeholders", doc.Placeholders),
	)
	return doc, ids, nil
}

// Preview returns the size of the condominium's checklist set and the
// token that confirms deleting exactly that set.
func (s *ExportService) Preview(ctx context.Context, p *auth.Principal, condominiumID int64) (*DeletePreview, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return nil, err
	}

	stats, err := s.checklistRepo.Stats(ctx, condominiumID)
	if err != nil {
		return nil, err
	}
	return &DeletePreview{
		Count:    stats.Count,
		LatestAt: stats.LatestAt,
		Token:    EncodeToken(stats),
	}, nil
}

// DeleteOnly deletes the checklist set previewed with token. A set that
// changed since the preview is left untouched and ErrConflict is returned.
func (s *ExportService) DeleteOnly(ctx context.Context, p *auth.Principal, condominiumID int64, token string) (int64, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return 0, err
	}

	expected, err := DecodeToken(token)
	if err != nil {
		return 0, err
	}

	deleted, err := s.checklistRepo.DeleteByCondominium(ctx, condominiumID, expected)
	if err != nil {
		return 0, err
	}

	s.logger.Info("checklists deleted",
		zap.Int64("condominium_id", condominiumID),
		zap.Int64("deleted", deleted),
		zap.Int64("user_id", p.UserID),
	)
	if s.notifier != nil && deleted > 0 {
		s.notifier.ChecklistsDeleted(condominiumID, nil)
	}
	return deleted, nil
}

// ExportThenDelete exports, saves through sink, waits for the save to
// settle and then deletes only the exported records. Nothing is deleted
// when the export or the save fails. A failed delete is reported in the
// result and wrapped in ErrDeleteAfterExport.
func (s *ExportService) ExportThenDelete(ctx context.Context, p *auth.Principal, condominiumID int64, sink Sink) (*ExportDeleteResult, error) {
	doc, ids, err := s.export(ctx, p, condominiumID)
	if err != nil {
		return nil, err
	}
	if err := sink.Save(ctx, doc); err != nil {
		return nil, xerrors.Wrap(err, "failed to save export")
	}

	result := &ExportDeleteResult{Document: doc, ExportedIDs: ids}

	if s.settleDelay > 0 {
		timer := time.NewTimer(s.settleDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			result.DeleteErr = ctx.Err()
			return result, fmt.Errorf("%w: %w", ErrDeleteAfterExport, ctx.Err())
		case <-timer.C:
		}
	}

	deleted, err := s.checklistRepo.DeleteByIDs(ctx, condominiumID, ids)
	if err != nil {
		s.logger.Error("delete after export failed",
			zap.Int64("condominium_id", condominiumID),
			zap.Int("exported", len(ids)),
			zap.Error(err),
		)
		result.DeleteErr = err
		return result, fmt.Errorf("%w: %w", ErrDeleteAfterExport, err)
	}
	result.Deleted = deleted

	s.logger.Info("checklists exported and deleted",
		zap.Int64("condominium_id", condominiumID),
		zap.Int64("deleted", deleted),
	)
	if s.notifier != nil && deleted > 0 {
		s.notifier.ChecklistsDeleted(condominiumID, ids)
	}
	return result, nil
}

// EncodeToken turns set statistics into an opaque confirmation token.
func EncodeToken(stats *checklist.SetStats) string {
	var latest int64
	if stats.LatestAt != nil {
		latest = stats.LatestAt.UTC().UnixMicro()
	}
	raw := strconv.FormatInt(stats.Count, 10) + "." + strconv.FormatInt(latest, 10)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeToken(token string) (*checklist.SetStats, error) {
	invalid := fmt.Errorf("invalid confirmation token: %w", xerrors.ErrInvalidInput)

	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return nil, invalid
	}
	countPart, latestPart, ok := strings.Cut(string(raw), ".")
	if !ok {
		return nil, invalid
	}
	count, err := strconv.ParseInt(countPart, 10, 64)
	if err != nil || count < 0 {
		return nil, invalid
	}
	latest, err := strconv.ParseInt(latestPart, 10, 64)
	if err != nil {
		return nil, invalid
	}

	stats := &checklist.SetStats{Count: count}
	if latest != 0 {
		t := time.UnixMicro(latest).UTC()
		stats.LatestAt = &t
	}
	return stats, nil
}
