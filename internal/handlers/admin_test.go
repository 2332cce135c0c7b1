package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yujinliee/wastewise/internal/notification"
)

func TestAdminOnly_RejectsRegularViewer(t *testing.T) {
	setupHandlers(t)
	createVia(t, "t")

	rec := perform(t, AdminOnly(ListNotificationsAdmin), http.MethodGet, "/api/admin/notifications", "", testUser)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = perform(t, AdminOnly(ListNotificationsAdmin), http.MethodGet, "/api/admin/notifications", "", testAdmin)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateNotification(t *testing.T) {
	setupHandlers(t)

	body := `{"title":"Depot closed","message":"Main depot closed on Friday","category":"System","pinned":true}`
	rec := perform(t, AdminOnly(CreateNotification), http.MethodPost, "/api/admin/notifications", body, testAdmin)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	n, ok := notification.Feeds.Get(resp["id"])
	require.True(t, ok)
	assert.Equal(t, "Depot closed", n.Title)
	assert.True(t, n.Pinned)
}

func TestCreateNotification_ValidationFailures(t *testing.T) {
	setupHandlers(t)

	rec := perform(t, AdminOnly(CreateNotification), http.MethodPost, "/x",
		`{"message":"no title","category":"System"}`, testAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = perform(t, AdminOnly(CreateNotification), http.MethodPost, "/x",
		`{"title":"t","message":"m","category":"Gossip"}`, testAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListNotificationsAdmin_ShowsOverlayCounts(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "t")
	ctx := context.Background()
	require.NoError(t, notification.Services.MarkRead(ctx, "u1", id))
	require.NoError(t, notification.Services.ArchiveForViewer(ctx, "u2", id))
	require.NoError(t, notification.Services.DeleteForViewer(ctx, "u3", id))

	rec := perform(t, AdminOnly(ListNotificationsAdmin), http.MethodGet, "/x", "", testAdmin)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []AdminItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1, "viewer tombstones never hide a record from management")
	item := resp.Items[0]
	assert.Equal(t, 2, item.ReadCount, "archive for u2 implies read")
	assert.Equal(t, 1, item.UserArchived)
	assert.Equal(t, 1, item.Deleted)
}

func TestEditNotification(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "Old")

	rec := perform(t, AdminOnly(EditNotification), http.MethodPut, "/x", `{"title":"New"}`, testAdmin, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)

	n, _ := notification.Feeds.Get(id)
	assert.Equal(t, "New", n.Title)
	assert.Equal(t, "body", n.Message)
}

func TestToggleArchiveNotification_CanonicalLifecycle(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "t")

	rec := perform(t, AdminOnly(ToggleArchiveNotification), http.MethodPost, "/x", "", testAdmin, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)

	n, _ := notification.Feeds.Get(id)
	assert.True(t, n.Archived)
	// A viewer's own archive tab is driven by archivedBy, not the canonical flag.
	assert.Len(t, notification.Feeds.Snapshot(testUser.UID, notification.ScopeUser, notification.TabActive), 1)
	assert.Len(t, notification.Feeds.Snapshot(testAdmin.UID, notification.ScopeAdmin, notification.TabArchived), 1)
}

func TestTogglePinNotification_ReordersFeed(t *testing.T) {
	setupHandlers(t)
	first := createVia(t, "first")
	second := createVia(t, "second")

	rec := perform(t, AdminOnly(TogglePinNotification), http.MethodPost, "/x", "", testAdmin, "id", first)
	require.Equal(t, http.StatusOK, rec.Code)

	items := notification.Feeds.Snapshot(testUser.UID, notification.ScopeUser, notification.TabActive)
	require.Len(t, items, 2)
	assert.Equal(t, first, items[0].ID, "pinned records lead the feed")
	assert.Equal(t, second, items[1].ID)
}

func TestDeleteNotificationCanonical(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "t")

	rec := perform(t, AdminOnly(DeleteNotificationCanonical), http.MethodDelete, "/x", "", testAdmin, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok := notification.Feeds.Get(id)
	assert.False(t, ok)

	rec = perform(t, AdminOnly(DeleteNotificationCanonical), http.MethodDelete, "/x", "", testAdmin, "id", id)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
