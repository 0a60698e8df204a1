// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vigilance-service/internal/domain/auth"
	"vigilance-service/internal/middleware"
	"vigilance-service/internal/pkg/response"
	authUsecase "vigilance-service/internal/service/auth"
)

type AuthHandler struct {
	authService *authUsecase.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService *authUsecase.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// ========== Registration ==========

// Register creates an admin account. Open until the first admin exists,
// admin-only afterwards.
func (h *AuthHandler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	caller, _ := middleware.GetPrincipal(c)
	user, err := h.authService.Register(c.Request.Context(), caller, &req)
	if err != nil {
		h.logger.Warn("registration failed",
			zap.String("email", req.Email),
			zap.Error(err),
		)
		response.FromError(c, "registration failed", err)
		return
	}

	response.Success(c, http.StatusCreated, "registration successful", user)
}

// ========== Login ==========

func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	loginResp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		h.logger.Warn("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		response.FromError(c, "login failed", err)
		return
	}

	h.logger.Info("user logged in",
		zap.Int64("user_id", loginResp.User.ID),
		zap.String("email", loginResp.User.Email),
	)

	response.Success(c, http.StatusOK, "login successful", loginResp)
}

// ========== Logout ==========

func (h *AuthHandler) Logout(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	if err := h.authService.Logout(c.Request.Context(), principal); err != nil {
		h.logger.Error("logout failed",
			zap.Int64("user_id", principal.UserID),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "logout failed", err)
		return
	}

	response.Success(c, http.StatusOK, "logout successful", nil)
}

// ========== Profile ==========

func (h *AuthHandler) GetMe(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	user, err := h.authService.Me(c.Request.Context(), principal)
	if err != nil {
		response.FromError(c, "failed to load profile", err)
		return
	}

	response.Success(c, http.StatusOK, "profile retrieved", user)
}

// UpdateLogo sets the operator logo printed on the caller's reports.
func (h *AuthHandler) UpdateLogo(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req auth.UpdateLogoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	user, err := h.authService.UpdateLogo(c.Request.Context(), principal, &req)
	if err != nil {
		response.FromError(c, "failed to update logo", err)
		return
	}

	response.Success(c, http.StatusOK, "logo updated", user)
}
