package handlers

import (
	"net/http"

	"github.com/yujinliee/wastewise/internal/notification"

	"github.com/labstack/echo/v4"
)

func HealthCheck(c echo.Context) error {
	status := map[string]interface{}{
		"status":     "ok",
		"feed_ready": notification.GetFeed() != nil && notification.GetFeed().Ready(),
	}
	return c.JSON(http.StatusOK, status)
}
