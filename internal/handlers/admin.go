package handlers

import (
	"errors"
	"net/http"

	"github.com/yujinliee/wastewise/internal/auth"
	"github.com/yujinliee/wastewise/internal/notification"

	"github.com/labstack/echo/v4"
)

// AdminOnly rejects non-administrators before any store call is issued.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !auth.Roles.IsAdmin(auth.CurrentViewer(c)) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Administrator access required"})
		}
		return next(c)
	}
}

// AdminItem is the canonical record as the admin surface sees it, with overlay
// counts instead of member lists.
type AdminItem struct {
	ID           string                `json:"id"`
	Title        string                `json:"title"`
	Message      string                `json:"message"`
	Category     notification.Category `json:"category"`
	Date         string                `json:"date"`
	Pinned       bool                  `json:"pinned"`
	Archived     bool                  `json:"archived"`
	ReadCount    int                   `json:"read_count"`
	Deleted      int                   `json:"deleted_count"`
	UserArchived int                   `json:"user_archived_count"`
}

func ListNotificationsAdmin(c echo.Context) error {
	feed := notification.GetFeed()
	if !feed.Ready() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Notification feed is still loading"})
	}

	viewer := auth.CurrentViewer(c)
	records := feed.Snapshot(viewer.ID, notification.ScopeAdmin, feedTab(c))
	items := make([]AdminItem, 0, len(records))
	for _, n := range records {
		items = append(items, AdminItem{
			ID:           n.ID,
			Title:        n.Title,
			Message:      n.Message,
			Category:     n.Category,
			Date:         n.Date,
			Pinned:       n.Pinned,
			Archived:     n.Archived,
			ReadCount:    len(n.ReadBy),
			Deleted:      len(n.DeletedBy),
			UserArchived: len(n.ArchivedBy),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

func CreateNotification(c echo.Context) error {
	var req notification.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := auth.Validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Title, message and category are required"})
	}

	id, err := notification.GetService().Create(c.Request().Context(), &req)
	if errors.Is(err, notification.ErrInvalidCategory) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid notification category"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create notification"})
	}

	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func EditNotification(c echo.Context) error {
	var req notification.EditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	err := notification.GetService().Edit(c.Request().Context(), c.Param("id"), &req)
	if errors.Is(err, notification.ErrInvalidCategory) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid notification category"})
	}
	return notificationMutationResult(c, err, "Failed to edit notification")
}

func TogglePinNotification(c echo.Context) error {
	err := notification.GetService().TogglePin(c.Request().Context(), c.Param("id"))
	return notificationMutationResult(c, err, "Failed to toggle pin")
}

func ToggleArchiveNotification(c echo.Context) error {
	err := notification.GetService().ToggleArchived(c.Request().Context(), c.Param("id"))
	return notificationMutationResult(c, err, "Failed to toggle archive")
}

func DeleteNotificationCanonical(c echo.Context) error {
	err := notification.GetService().DeleteCanonical(c.Request().Context(), c.Param("id"))
	return notificationMutationResult(c, err, "Failed to delete notification")
}
