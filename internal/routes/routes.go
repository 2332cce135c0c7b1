package routes

import (
	"github.com/yujinliee/wastewise/internal/auth"
	"github.com/yujinliee/wastewise/internal/handlers"
	"github.com/yujinliee/wastewise/internal/security"

	"github.com/labstack/echo/v4"
)

func SetupRoutes(api *echo.Group) {
	// Public routes
	api.GET("/health", handlers.HealthCheck)

	// Auth routes with rate limiting
	authGroup := api.Group("/auth")
	authGroup.Use(auth.RateLimitMiddleware)
	authGroup.POST("/signup", handlers.Signup)
	authGroup.POST("/login", handlers.Login)

	// Device reports authenticate by device key, not JWT
	api.POST("/bins/:id/report", handlers.ReportBinFill, security.DeviceRateLimiter)

	// Protected routes
	api.Use(auth.JWTMiddleware)

	// User notification feed
	notifications := api.Group("/notifications")
	notifications.GET("", handlers.ListNotifications)
	notifications.GET("/unread-count", handlers.UnreadCount)
	notifications.GET("/stream", handlers.StreamNotifications)
	notifications.POST("/read-all", handlers.MarkAllNotificationsRead)
	notifications.POST("/:id/read", handlers.MarkNotificationRead)
	notifications.POST("/:id/archive", handlers.ArchiveNotification)
	notifications.POST("/:id/restore", handlers.RestoreNotification)
	notifications.DELETE("/:id", handlers.DeleteNotificationForViewer)

	// Bin fleet
	api.GET("/bins", handlers.ListBins)
	api.GET("/bins/stream", handlers.StreamBins)

	// Admin surface; membership checked before any store call
	admin := api.Group("/admin")
	admin.Use(handlers.AdminOnly)
	admin.GET("/notifications", handlers.ListNotificationsAdmin)
	admin.POST("/notifications", handlers.CreateNotification)
	admin.PATCH("/notifications/:id", handlers.EditNotification)
	admin.POST("/notifications/:id/pin", handlers.TogglePinNotification)
	admin.POST("/notifications/:id/archive", handlers.ToggleArchiveNotification)
	admin.DELETE("/notifications/:id", handlers.DeleteNotificationCanonical)
	admin.POST("/bins", handlers.CreateBin)
	admin.PATCH("/bins/:id", handlers.UpdateBin)
	admin.DELETE("/bins/:id", handlers.DeleteBin)
	admin.POST("/bins/:id/empty", handlers.MarkBinEmptied)
	admin.POST("/bins/:id/device-key", handlers.RegisterBinDeviceKey)
}
