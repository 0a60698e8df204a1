// internal/app/router.go
package app

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	authHandler "vigilance-service/internal/handlers/auth"
	checklistHandler "vigilance-service/internal/handlers/checklist"
	condoHandler "vigilance-service/internal/handlers/condominium"
	exportHandler "vigilance-service/internal/handlers/export"
	fleetHandler "vigilance-service/internal/handlers/fleet"
	"vigilance-service/internal/handlers/signature"
	wsHandler "vigilance-service/internal/handlers/websocket"
	"vigilance-service/internal/middleware"
)

type Handlers struct {
	AuthHandler        *authHandler.AuthHandler
	CondominiumHandler *condoHandler.CondominiumHandler
	FleetHandler       *fleetHandler.FleetHandler
	ChecklistHandler   *checklistHandler.ChecklistHandler
	ExportHandler      *exportHandler.ExportHandler
	WSHandler          *wsHandler.WebSocketHandler
	AuthMiddleware     *middleware.AuthMiddleware
	Health             gin.HandlerFunc
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health & Metrics ====================
	health := h.Health
	if health == nil {
		health = func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		}
	}
	api.GET("/health", health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ==================== WebSocket ====================
	r.GET("/ws", h.WSHandler.HandleConnection)

	// ==================== Public Auth Routes ====================
	authPublic := api.Group("/auth")
	{
		// Open until the first admin exists; admin-only afterwards.
		authPublic.POST("/register", h.AuthMiddleware.OptionalAuth(), h.AuthHandler.Register)
		authPublic.POST("/login", h.AuthHandler.Login)
	}

	// ==================== Authenticated Auth Routes ====================
	authProtected := api.Group("/auth")
	authProtected.Use(h.AuthMiddleware.Auth())
	{
		authProtected.POST("/logout", h.AuthHandler.Logout)
		authProtected.GET("/me", h.AuthHandler.GetMe)
		authProtected.PUT("/logo", h.AuthHandler.UpdateLogo)
	}

	// ==================== Condominiums ====================
	condos := api.Group("/condominiums")
	condos.Use(h.AuthMiddleware.Auth())
	{
		// Guards read their own condominium and its fleet for selection.
		condos.GET("", h.CondominiumHandler.ListCondominiums)
		condos.GET("/:id", h.CondominiumHandler.GetCondominium)
		condos.GET("/:id/vigilantes", h.FleetHandler.ListVigilantes)
		condos.GET("/:id/motorcycles", h.FleetHandler.ListMotorcycles)
		condos.GET("/:id/checklists", h.ChecklistHandler.ListChecklists)

		admin := condos.Group("")
		admin.Use(h.AuthMiddleware.RequireAdmin())
		{
			admin.POST("", h.CondominiumHandler.CreateCondominium)
			admin.PUT("/:id", h.CondominiumHandler.UpdateCondominium)
			admin.DELETE("/:id", h.CondominiumHandler.DeleteCondominium)

			admin.POST("/:id/vigilantes", h.FleetHandler.CreateVigilante)
			admin.GET("/:id/vigilantes/:vid", h.FleetHandler.GetVigilante)
			admin.PUT("/:id/vigilantes/:vid", h.FleetHandler.UpdateVigilante)
			admin.DELETE("/:id/vigilantes/:vid", h.FleetHandler.DeleteVigilante)

			admin.POST("/:id/motorcycles", h.FleetHandler.CreateMotorcycle)
			admin.GET("/:id/motorcycles/:mid", h.FleetHandler.GetMotorcycle)
			admin.PUT("/:id/motorcycles/:mid", h.FleetHandler.UpdateMotorcycle)
			admin.DELETE("/:id/motorcycles/:mid", h.FleetHandler.DeleteMotorcycle)

			admin.GET("/:id/checklists/export", h.ExportHandler.Export)
			admin.GET("/:id/checklists/delete-preview", h.ExportHandler.DeletePreview)
			admin.DELETE("/:id/checklists", h.ExportHandler.DeleteAll)
			admin.POST("/:id/checklists/export-and-delete", h.ExportHandler.ExportAndDelete)
		}
	}

	// ==================== Checklists ====================
	checklists := api.Group("/checklists")
	checklists.Use(h.AuthMiddleware.Auth())
	{
		checklists.GET("/draft", h.ChecklistHandler.GetDraft)
		checklists.PATCH("/draft", h.ChecklistHandler.UpdateDraft)
		checklists.DELETE("/draft", h.ChecklistHandler.ResetDraft)
		checklists.POST("/draft/photos", h.ChecklistHandler.AddPhoto)
		checklists.DELETE("/draft/photos/:slot/:index", h.ChecklistHandler.RemovePhoto)
		checklists.POST("/draft/signature", h.ChecklistHandler.SetSignature)
		checklists.POST("/draft/submit", h.ChecklistHandler.Submit)

		checklists.GET("/:id", h.ChecklistHandler.GetChecklist)
		checklists.GET("/:id/pdf", h.ChecklistHandler.DownloadPDF)
	}

	// ==================== Signatures ====================
	api.POST("/signatures/render", h.AuthMiddleware.Auth(), signature.Render)

	// ==================== Downloads ====================
	// The token itself grants access until it expires.
	api.GET("/downloads/:token", h.ExportHandler.Download)

	// ==================== Admin ====================
	adminRoutes := api.Group("/admin")
	adminRoutes.Use(h.AuthMiddleware.AdminOnly()...)
	{
		adminRoutes.GET("/ws/stats", h.WSHandler.GetStats)
	}

	logger.Info("routes registered", zap.Int("count", len(r.Routes())))
}
