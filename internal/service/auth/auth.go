// internal/service/auth/auth.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/pkg/datauri"
	xerrors "vigilance-service/internal/pkg/errors"
	"vigilance-service/internal/pkg/jwt"
	"vigilance-service/internal/pkg/session"
)

// SessionNotifier pushes session events to connected clients.
type SessionNotifier interface {
	ForceLogout(userID int64, jti, reason string)
	DisconnectUser(userID int64, reason string)
}

type AuthService struct {
	userRepo       auth.Repository
	jwtManager     *jwt.Manager
	sessionManager *session.Manager
	rateLimiter    *session.RateLimiter
	notifier       SessionNotifier
	adminEmails    map[string]bool
	logger         *zap.Logger
}

func NewAuthService(
	userRepo auth.Repository,
	jwtManager *jwt.Manager,
	sessionManager *session.Manager,
	rateLimiter *session.RateLimiter,
	notifier SessionNotifier,
	adminEmails []string,
	logger *zap.Logger,
) *AuthService {
	allow := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		allow[normalizeEmail(e)] = true
	}
	return &AuthService{
		userRepo:       userRepo,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		notifier:       notifier,
		adminEmails:    allow,
		logger:         logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ========== Registration ==========

// Register creates an admin account. The first admin may register freely;
// after that only an admin can add another one.
func (s *AuthService) Register(ctx context.Context, caller *auth.Principal, req *auth.RegisterRequest) (*auth.UserInfo, error) {
	admins, err := s.userRepo.CountByRole(ctx, auth.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("failed to count admins: %w", err)
	}
	if admins > 0 && !caller.IsAdmin() {
		return nil, xerrors.ErrForbidden
	}

	user, err := s.CreateAccount(ctx, req.Email, req.Password, req.FullName, auth.RoleAdmin)
	if err != nil {
		return nil, err
	}

	s.logger.Info("admin account registered",
		zap.Int64("user_id", user.ID),
		zap.String("email", user.Email),
	)
	info := s.userInfo(user)
	return &info, nil
}

// CreateAccount hashes the password and stores a new active account.
func (s *AuthService) CreateAccount(ctx context.Context, email, password, fullName string, role auth.Role) (*auth.User, error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return nil, fmt.Errorf("email and a password of at least 8 characters are required: %w", xerrors.ErrInvalidInput)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &auth.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		Status:       auth.StatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// ========== Login ==========

func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	email := normalizeEmail(req.Email)

	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, email)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("too many login attempts, please try again in 15 minutes: %w", xerrors.ErrRateLimited)
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", xerrors.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}

	if user.Status != auth.StatusActive {
		return nil, fmt.Errorf("account is %s: %w", user.Status, xerrors.ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("invalid credentials (attempts remaining: %d): %w", remaining, xerrors.ErrUnauthorized)
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, email)

	return s.issueSession(ctx, user, req.Device, req.IPAddress, req.UserAgent)
}

func (s *AuthService) issueSession(ctx context.Context, user *auth.User, device, ipAddress, userAgent string) (*auth.LoginResponse, error) {
	accessToken, jti, err := s.jwtManager.Generator.GenerateAccessToken(user.ID, user.Email, string(user.Role), device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtManager.Generator.TTL)

	sessionData := &session.SessionData{
		JTI:            jti,
		UserID:         user.ID,
		Email:          user.Email,
		Role:           string(user.Role),
		Device:         device,
		IPAddress:      ipAddress,
		UserAgent:      userAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	if err := s.sessionManager.CreateSession(ctx, sessionData); err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	return &auth.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwtManager.Generator.TTL.Seconds()),
		ExpiresAt:   expiresAt,
		User:        s.userInfo(user),
	}, nil
}

// ========== Token validation ==========

// Authenticate verifies an access token against the session store and
// builds the request principal.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Principal, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, xerrors.ErrUnauthorized)
	}

	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, fmt.Errorf("token revoked: %w", xerrors.ErrSessionExpired)
	}

	if _, err := s.sessionManager.GetSession(ctx, claims.UserID, claims.ID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, xerrors.ErrSessionExpired
		}
		return nil, err
	}
	if err := s.sessionManager.Touch(ctx, claims.UserID, claims.ID); err != nil {
		s.logger.Debug("failed to touch session", zap.Int64("user_id", claims.UserID), zap.Error(err))
	}

	return s.principal(claims.UserID, claims.Email, auth.Role(claims.Role), claims.ID), nil
}

func (s *AuthService) principal(userID int64, email string, role auth.Role, jti string) *auth.Principal {
	return &auth.Principal{
		UserID: userID,
		Email:  email,
		Role:   role,
		JTI:    jti,
		Admin:  role == auth.RoleAdmin || s.adminEmails[normalizeEmail(email)],
	}
}

// ========== Logout ==========

func (s *AuthService) Logout(ctx context.Context, p *auth.Principal) error {
	if err := s.sessionManager.InvalidateSession(ctx, p.UserID, p.JTI); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	if err := s.sessionManager.BlacklistToken(ctx, p.JTI, s.jwtManager.Generator.TTL); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ForceLogout(p.UserID, p.JTI, "User logged out")
	}
	return nil
}

// RevokeUser ends every session of a user and drops their live connections.
func (s *AuthService) RevokeUser(ctx context.Context, userID int64, reason string) error {
	if err := s.sessionManager.InvalidateAllUserSessions(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke sessions: %w", err)
	}
	if s.notifier != nil {
		s.notifier.DisconnectUser(userID, reason)
	}
	s.logger.Info("user sessions revoked", zap.Int64("user_id", userID), zap.String("reason", reason))
	return nil
}

// ========== Profile ==========

func (s *AuthService) Me(ctx context.Context, p *auth.Principal) (*auth.UserInfo, error) {
	user, err := s.userRepo.FindByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	info := s.userInfo(user)
	return &info, nil
}

// UpdateLogo stores the operator logo printed on the admin's reports.
func (s *AuthService) UpdateLogo(ctx context.Context, p *auth.Principal, req *auth.UpdateLogoRequest) (*auth.UserInfo, error) {
	if !p.IsAdmin() {
		return nil, xerrors.ErrForbidden
	}

	logo := strings.TrimSpace(req.LogoURL)
	if !validLogoSource(logo) {
		return nil, fmt.Errorf("logo must be an http(s) URL or an image data URI: %w", xerrors.ErrInvalidInput)
	}

	if err := s.userRepo.UpdateLogo(ctx, p.UserID, logo); err != nil {
		return nil, err
	}
	return s.Me(ctx, p)
}

func validLogoSource(src string) bool {
	if src == "" {
		return true
	}
	if datauri.IsDataURI(src) {
		_, _, err := datauri.Decode(src)
		return err == nil
	}
	u, err := url.Parse(src)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (s *AuthService) userInfo(u *auth.User) auth.UserInfo {
	return auth.UserInfo{
		ID:       u.ID,
		Email:    u.Email,
		FullName: u.FullName,
		Role:     u.Role,
		IsAdmin:  s.principal(u.ID, u.Email, u.Role, "").IsAdmin(),
		LogoURL:  u.LogoURL.String,
	}
}
