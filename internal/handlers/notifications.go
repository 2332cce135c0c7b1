package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yujinliee/wastewise/internal/auth"
	"github.com/yujinliee/wastewise/internal/notification"

	"github.com/labstack/echo/v4"
)

// FeedItem is one resolved record in a user's feed. Pinned is admin-scope only
// and never exposed here; it still drives the sort order.
type FeedItem struct {
	ID       string                `json:"id"`
	Title    string                `json:"title"`
	Message  string                `json:"message"`
	Category notification.Category `json:"category"`
	Date     string                `json:"date"`
	Read     bool                  `json:"read"`
	Archived bool                  `json:"archived"`
}

type FeedResponse struct {
	Items  []FeedItem `json:"items"`
	Unread int        `json:"unread"`
}

func feedTab(c echo.Context) notification.Tab {
	if c.QueryParam("tab") == string(notification.TabArchived) {
		return notification.TabArchived
	}
	return notification.TabActive
}

func buildFeedResponse(feed *notification.Feed, viewerID string, tab notification.Tab) FeedResponse {
	records := feed.Snapshot(viewerID, notification.ScopeUser, tab)
	items := make([]FeedItem, 0, len(records))
	for _, n := range records {
		st := notification.Resolve(n, viewerID, notification.ScopeUser)
		items = append(items, FeedItem{
			ID:       n.ID,
			Title:    n.Title,
			Message:  n.Message,
			Category: st.Category,
			Date:     n.Date,
			Read:     st.Read,
			Archived: st.ArchivedForViewer,
		})
	}
	return FeedResponse{Items: items, Unread: feed.UnreadCount(viewerID)}
}

func ListNotifications(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	feed := notification.GetFeed()
	if !feed.Ready() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Notification feed is still loading"})
	}

	return c.JSON(http.StatusOK, buildFeedResponse(feed, viewer.ID, feedTab(c)))
}

func UnreadCount(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	feed := notification.GetFeed()
	if !feed.Ready() {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Notification feed is still loading"})
	}

	return c.JSON(http.StatusOK, map[string]int{"count": feed.UnreadCount(viewer.ID)})
}

func MarkNotificationRead(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	err := notification.GetService().MarkRead(c.Request().Context(), viewer.ID, c.Param("id"))
	return notificationMutationResult(c, err, "Failed to mark notification as read")
}

func MarkAllNotificationsRead(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	err := notification.GetService().MarkAllRead(c.Request().Context(), viewer.ID)
	return notificationMutationResult(c, err, "Failed to mark notifications as read")
}

func ArchiveNotification(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	err := notification.GetService().ArchiveForViewer(c.Request().Context(), viewer.ID, c.Param("id"))
	return notificationMutationResult(c, err, "Failed to archive notification")
}

func RestoreNotification(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	err := notification.GetService().RestoreForViewer(c.Request().Context(), viewer.ID, c.Param("id"))
	return notificationMutationResult(c, err, "Failed to restore notification")
}

func DeleteNotificationForViewer(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	err := notification.GetService().DeleteForViewer(c.Request().Context(), viewer.ID, c.Param("id"))
	return notificationMutationResult(c, err, "Failed to delete notification")
}

// StreamNotifications pushes the viewer's resolved feed over SSE after every
// collection change.
func StreamNotifications(c echo.Context) error {
	viewer := auth.CurrentViewer(c)
	feed := notification.GetFeed()

	ch, cancel := feed.Watch()
	defer cancel()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		payload := buildFeedResponse(feed, viewer.ID, notification.TabActive)
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return nil
		}
		w.Flush()

		select {
		case <-c.Request().Context().Done():
			return nil
		case <-ch:
		}
	}
}

func notificationMutationResult(c echo.Context, err error, message string) error {
	if errors.Is(err, notification.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Notification not found"})
	}
	if err != nil {
		// The feed is only corrected by the next store snapshot; the caller may
		// simply re-trigger the action.
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": message})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}
