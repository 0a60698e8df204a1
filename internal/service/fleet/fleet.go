// internal/service/fleet/fleet.go
package fleet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/domain/motorcycle"
	"vigilance-service/internal/domain/vigilante"
	xerrors "vigilance-service/internal/pkg/errors"
	condosvc "vigilance-service/internal/service/condominium"
)

// AccountManager creates and revokes login accounts for guards.
type AccountManager interface {
	CreateAccount(ctx context.Context, email, password, fullName string, role auth.Role) (*auth.User, error)
	RevokeUser(ctx context.Context, userID int64, reason string) error
}

// FleetService manages the guards and motorcycles of a condominium.
type FleetService struct {
	condos         *condosvc.CondominiumService
	vigilanteRepo  vigilante.Repository
	motorcycleRepo motorcycle.Repository
	accounts       AccountManager
	logger         *zap.Logger
}

func NewFleetService(
	condos *condosvc.CondominiumService,
	vigilanteRepo vigilante.Repository,
	motorcycleRepo motorcycle.Repository,
	accounts AccountManager,
	logger *zap.Logger,
) *FleetService {
	return &FleetService{
		condos:         condos,
		vigilanteRepo:  vigilanteRepo,
		motorcycleRepo: motorcycleRepo,
		accounts:       accounts,
		logger:         logger,
	}
}

// ========== Vigilantes ==========

func (s *FleetService) CreateVigilante(ctx context.Context, p *auth.Principal, condominiumID int64, req *vigilante.CreateRequest) (*vigilante.Vigilante, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return nil, err
	}

	registration := strings.TrimSpace(req.Registration)
	exists, err := s.vigilanteRepo.ExistsByRegistration(ctx, condominiumID, registration)
	if err != nil {
		return nil, fmt.Errorf("failed to check registration: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("registration %s already in use: %w", registration, xerrors.ErrDuplicateEntry)
	}

	if (req.Email == "") != (req.Password == "") {
		return nil, fmt.Errorf("email and password must be given together: %w", xerrors.ErrInvalidInput)
	}

	v := &vigilante.Vigilante{
		CondominiumID: condominiumID,
		FullName:      strings.TrimSpace(req.FullName),
		Registration:  registration,
		Phone:         strings.TrimSpace(req.Phone),
		IsActive:      true,
	}

	if req.Email != "" {
		user, err := s.accounts.CreateAccount(ctx, req.Email, req.Password, v.FullName, auth.RoleVigilante)
		if err != nil {
			return nil, err
		}
		v.UserID = &user.ID
	}

	if err := s.vigilanteRepo.Create(ctx, v); err != nil {
		s.logger.Error("failed to create vigilante", zap.Int64("condominium_id", condominiumID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("vigilante created",
		zap.Int64("vigilante_id", v.ID),
		zap.Int64("condominium_id", condominiumID),
		zap.Bool("has_login", v.UserID != nil),
	)
	return v, nil
}

func (s *FleetService) GetVigilante(ctx context.Context, p *auth.Principal, condominiumID, id int64) (*vigilante.Vigilante, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessRead); err != nil {
		return nil, err
	}
	return s.vigilanteIn(ctx, condominiumID, id)
}

func (s *FleetService) vigilanteIn(ctx context.Context, condominiumID, id int64) (*vigilante.Vigilante, error) {
	v, err := s.vigilanteRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.CondominiumID != condominiumID {
		return nil, xerrors.ErrNotFound
	}
	return v, nil
}

func (s *FleetService) UpdateVigilante(ctx context.Context, p *auth.Principal, condominiumID, id int64, req *vigilante.UpdateRequest) (*vigilante.Vigilante, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return nil, err
	}
	v, err := s.vigilanteIn(ctx, condominiumID, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		v.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Registration != nil {
		v.Registration = strings.TrimSpace(*req.Registration)
	}
	if req.Phone != nil {
		v.Phone = strings.TrimSpace(*req.Phone)
	}
	deactivated := false
	if req.IsActive != nil {
		deactivated = v.IsActive && !*req.IsActive
		v.IsActive = *req.IsActive
	}
	if v.FullName == "" || v.Registration == "" {
		return nil, fmt.Errorf("name and registration are required: %w", xerrors.ErrInvalidInput)
	}

	if err := s.vigilanteRepo.Update(ctx, v); err != nil {
		return nil, err
	}
	if deactivated {
		s.revoke(ctx, v, "guard deactivated")
	}
	return v, nil
}

// revoke logs the guard out everywhere. Failures are logged only; Authorize
// already rejects inactive or deleted guards.
func (s *FleetService) revoke(ctx context.Context, v *vigilante.Vigilante, reason string) {
	if v.UserID == nil {
		return
	}
	if err := s.accounts.RevokeUser(ctx, *v.UserID, reason); err != nil {
		s.logger.Warn("failed to revoke guard sessions",
			zap.Int64("vigilante_id", v.ID),
			zap.Int64("user_id", *v.UserID),
			zap.Error(err),
		)
	}
}

// DeleteVigilante fails with ErrConflict while checklists reference the guard.
func (s *FleetService) DeleteVigilante(ctx context.Context, p *auth.Principal, condominiumID, id int64) error {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return err
	}
	v, err := s.vigilanteIn(ctx, condominiumID, id)
	if err != nil {
		return err
	}
	if err := s.vigilanteRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.revoke(ctx, v, "guard removed")
	return nil
}

// ListVigilantes returns every guard to admins and only active ones to guards.
func (s *FleetService) ListVigilantes(ctx context.Context, p *auth.Principal, condominiumID int64) ([]vigilante.Vigilante, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessRead); err != nil {
		return nil, err
	}
	return s.vigilanteRepo.ListByCondominium(ctx, condominiumID, !p.IsAdmin())
}

// ========== Motorcycles ==========

func (s *FleetService) CreateMotorcycle(ctx context.Context, p *auth.Principal, condominiumID int64, req *motorcycle.CreateRequest) (*motorcycle.Motorcycle, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return nil, err
	}

	plate := normalizePlate(req.Plate)
	if plate == "" {
		return nil, fmt.Errorf("plate is required: %w", xerrors.ErrInvalidInput)
	}
	exists, err := s.motorcycleRepo.ExistsByPlate(ctx, condominiumID, plate)
	if err != nil {
		return nil, fmt.Errorf("failed to check plate: %w", err)
	}
	if exists {
		return nil, fmt.Errorf("plate %s already registered: %w", plate, xerrors.ErrDuplicateEntry)
	}

	m := &motorcycle.Motorcycle{
		CondominiumID: condominiumID,
		Plate:         plate,
		Make:          strings.TrimSpace(req.Make),
		Model:         strings.TrimSpace(req.Model),
		Year:          req.Year,
		Color:         strings.TrimSpace(req.Color),
		Status:        motorcycle.StatusActive,
	}
	if m.Year == 0 {
		m.Year = time.Now().Year()
	}

	if err := s.motorcycleRepo.Create(ctx, m); err != nil {
		s.logger.Error("failed to create motorcycle", zap.Int64("condominium_id", condominiumID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("motorcycle created",
		zap.Int64("motorcycle_id", m.ID),
		zap.Int64("condominium_id", condominiumID),
		zap.String("plate", m.Plate),
	)
	return m, nil
}

func (s *FleetService) GetMotorcycle(ctx context.Context, p *auth.Principal, condominiumID, id int64) (*motorcycle.Motorcycle, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessRead); err != nil {
		return nil, err
	}
	return s.motorcycleIn(ctx, condominiumID, id)
}

func (s *FleetService) motorcycleIn(ctx context.Context, condominiumID, id int64) (*motorcycle.Motorcycle, error) {
	m, err := s.motorcycleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.CondominiumID != condominiumID {
		return nil, xerrors.ErrNotFound
	}
	return m, nil
}

func (s *FleetService) UpdateMotorcycle(ctx context.Context, p *auth.Principal, condominiumID, id int64, req *motorcycle.UpdateRequest) (*motorcycle.Motorcycle, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return nil, err
	}
	m, err := s.motorcycleIn(ctx, condominiumID, id)
	if err != nil {
		return nil, err
	}

	if req.Plate != nil {
		m.Plate = normalizePlate(*req.Plate)
	}
	if req.Make != nil {
		m.Make = strings.TrimSpace(*req.Make)
	}
	if req.Model != nil {
		m.Model = strings.TrimSpace(*req.Model)
	}
	if req.Year != nil {
		m.Year = *req.Year
	}
	if req.Color != nil {
		m.Color = strings.TrimSpace(*req.Color)
	}
	if req.Status != nil {
		m.Status = *req.Status
	}
	if m.Plate == "" {
		return nil, fmt.Errorf("plate is required: %w", xerrors.ErrInvalidInput)
	}

	if err := s.motorcycleRepo.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMotorcycle fails with ErrConflict while checklists reference the motorcycle.
func (s *FleetService) DeleteMotorcycle(ctx context.Context, p *auth.Principal, condominiumID, id int64) error {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessManage); err != nil {
		return err
	}
	if _, err := s.motorcycleIn(ctx, condominiumID, id); err != nil {
		return err
	}
	return s.motorcycleRepo.Delete(ctx, id)
}

// ListMotorcycles returns the fleet; guards only see motorcycles in service.
func (s *FleetService) ListMotorcycles(ctx context.Context, p *auth.Principal, condominiumID int64, status *motorcycle.Status) ([]motorcycle.Motorcycle, error) {
	if _, err := s.condos.Authorize(ctx, p, condominiumID, condosvc.AccessRead); err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		active := motorcycle.StatusActive
		status = &active
	}
	return s.motorcycleRepo.ListByCondominium(ctx, condominiumID, status)
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}
