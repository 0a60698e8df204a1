// internal/service/condominium/condominium.go
package condominium

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/condominium"
	"vigilance-service/internal/domain/vigilante"
	xerrors "vigilance-service/internal/pkg/errors"
)

// Access is the permission a caller needs on a condominium.
type Access int

const (
	AccessRead Access = iota
	AccessManage
)

type CondominiumService struct {
	condoRepo     condominium.Repository
	vigilanteRepo vigilante.Repository
	logger        *zap.Logger
}

func NewCondominiumService(condoRepo condominium.Repository, vigilanteRepo vigilante.Repository, logger *zap.Logger) *CondominiumService {
	return &CondominiumService{
		condoRepo:     condoRepo,
		vigilanteRepo: vigilanteRepo,
		logger:        logger,
	}
}

// Authorize loads the condominium and checks the caller may act on it.
// Admins manage the condominiums they own; a guard may only read the
// condominium it belongs to.
func (s *CondominiumService) Authorize(ctx context.Context, p *auth.Principal, condominiumID int64, access Access) (*condominium.Condominium, error) {
	if p == nil {
		return nil, xerrors.ErrUnauthorized
	}

	c, err := s.condoRepo.FindByID(ctx, condominiumID)
	if err != nil {
		return nil, err
	}

	if p.IsAdmin() {
		if c.OwnerID != p.UserID {
			return nil, xerrors.ErrForbidden
		}
		return c, nil
	}

	if access == AccessManage {
		return nil, xerrors.ErrForbidden
	}
	v, err := s.vigilanteRepo.FindByUserID(ctx, p.UserID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.ErrForbidden
	}
	if err != nil {
		return nil, err
	}
	if v.CondominiumID != c.ID || !v.IsActive {
		return nil, xerrors.ErrForbidden
	}
	return c, nil
}

func (s *CondominiumService) Create(ctx context.Context, p *auth.Principal, req *condominium.CreateRequest) (*condominium.Condominium, error) {
	if !p.IsAdmin() {
		return nil, xerrors.ErrForbidden
	}

	c := &condominium.Condominium{
		OwnerID:      p.UserID,
		Name:         strings.TrimSpace(req.Name),
		Address:      strings.TrimSpace(req.Address),
		ContactName:  strings.TrimSpace(req.ContactName),
		ContactPhone: strings.TrimSpace(req.ContactPhone),
		ContactEmail: strings.TrimSpace(req.ContactEmail),
		IsActive:     true,
	}
	if c.Name == "" {
		return nil, fmt.Errorf("name is required: %w", xerrors.ErrInvalidInput)
	}

	if err := s.condoRepo.Create(ctx, c); err != nil {
		s.logger.Error("failed to create condominium", zap.Error(err))
		return nil, err
	}

	s.logger.Info("condominium created",
		zap.Int64("condominium_id", c.ID),
		zap.Int64("owner_id", c.OwnerID),
	)
	return c, nil
}

func (s *CondominiumService) Get(ctx context.Context, p *auth.Principal, id int64) (*condominium.Condominium, error) {
	return s.Authorize(ctx, p, id, AccessRead)
}

func (s *CondominiumService) Update(ctx context.Context, p *auth.Principal, id int64, req *condominium.UpdateRequest) (*condominium.Condominium, error) {
	c, err := s.Authorize(ctx, p, id, AccessManage)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", xerrors.ErrInvalidInput)
		}
		c.Name = name
	}
	if req.Address != nil {
		c.Address = strings.TrimSpace(*req.Address)
	}
	if req.ContactName != nil {
		c.ContactName = strings.TrimSpace(*req.ContactName)
	}
	if req.ContactPhone != nil {
		c.ContactPhone = strings.TrimSpace(*req.ContactPhone)
	}
	if req.ContactEmail != nil {
		c.ContactEmail = strings.TrimSpace(*req.ContactEmail)
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.condoRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CondominiumService) Delete(ctx context.Context, p *auth.Principal, id int64) error {
	if _, err := s.Authorize(ctx, p, id, AccessManage); err != nil {
		return err
	}
	if err := s.condoRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("condominium deleted", zap.Int64("condominium_id", id), zap.Int64("user_id", p.UserID))
	return nil
}

// List returns the caller's condominiums: owned ones for admins, the
// guard's own condominium otherwise.
func (s *CondominiumService) List(ctx context.Context, p *auth.Principal, filters *condominium.ListFilters) (*condominium.ListResponse, error) {
	if filters.Page < 1 {
		filters.Page = 1
	}
	if filters.PageSize < 1 {
		filters.PageSize = 20
	}
	if filters.PageSize > 100 {
		filters.PageSize = 100
	}

	if !p.IsAdmin() {
		v, err := s.vigilanteRepo.FindByUserID(ctx, p.UserID)
		if errors.Is(err, xerrors.ErrNotFound) {
			return &condominium.ListResponse{Condominiums: []condominium.Condominium{}, Page: 1, PageSize: filters.PageSize}, nil
		}
		if err != nil {
			return nil, err
		}
		c, err := s.condoRepo.FindByID(ctx, v.CondominiumID)
		if err != nil {
			return nil, err
		}
		return &condominium.ListResponse{
			Condominiums: []condominium.Condominium{*c},
			Total:        1,
			Page:         1,
			PageSize:     filters.PageSize,
			TotalPages:   1,
		}, nil
	}

	condos, total, err := s.condoRepo.ListByOwner(ctx, p.UserID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list condominiums: %w", err)
	}

	totalPages := int(total) / filters.PageSize
	if int(total)%filters.PageSize > 0 {
		totalPages++
	}

	return &condominium.ListResponse{
		Condominiums: condos,
		Total:        total,
		Page:         filters.Page,
		PageSize:     filters.PageSize,
		TotalPages:   totalPages,
	}, nil
}
