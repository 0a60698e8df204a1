// internal/service/auth/admin_create.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	xerrors "vigilance-service/internal/pkg/errors"
)

// EnsureAdminExists creates the bootstrap admin account if no admin exists (called on startup).
func (s *AuthService) EnsureAdminExists(ctx context.Context, email, password, fullName string) error {
	count, err := s.userRepo.CountByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to check admin existence: %w", err)
	}

	if count > 0 {
		s.logger.Info("admin already exists, skipping creation")
		return nil
	}

	if email == "" || password == "" || fullName == "" {
		return fmt.Errorf("bootstrap admin email, password, and name must be provided via environment variables")
	}

	s.logger.Info("creating bootstrap admin account", zap.String("email", email))

	user, err := s.CreateAccount(ctx, email, password, fullName, auth.RoleAdmin)
	if errors.Is(err, xerrors.ErrDuplicateEntry) {
		return fmt.Errorf("email %s already exists but is not an admin", email)
	}
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	s.logger.Info("bootstrap admin created successfully",
		zap.String("email", user.Email),
		zap.String("full_name", user.FullName),
		zap.Int64("user_id", user.ID),
	)
	return nil
}
