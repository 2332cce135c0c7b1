package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yujinliee/wastewise/internal/auth"
	"github.com/yujinliee/wastewise/internal/notification"
	"github.com/yujinliee/wastewise/internal/store"
)

var (
	testUser  = &auth.User{UID: "user-1", Email: "resident@example.com", DisplayName: "Resident"}
	testAdmin = &auth.User{UID: "admin-1", Email: "admin@example.com", DisplayName: "Admin"}
)

// setupHandlers rebuilds the package singletons on an in-memory store.
func setupHandlers(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemory()
	f := notification.NewFeed(st)
	require.NoError(t, f.Open(context.Background()))
	t.Cleanup(f.Close)

	notification.Feeds = f
	notification.Services = notification.NewService(st, f, nil)
	auth.Roles = auth.NewAdminEmailChecker(testAdmin.Email)
	auth.InitSecurity()
	return st
}

func bearerFor(t *testing.T, user *auth.User) string {
	t.Helper()
	token, err := auth.GenerateToken(user)
	require.NoError(t, err)
	return "Bearer " + token
}

// perform runs one handler behind the JWT middleware, the way the router mounts it.
func perform(t *testing.T, h echo.HandlerFunc, method, target, body string, user *auth.User, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != nil {
		req.Header.Set(echo.HeaderAuthorization, bearerFor(t, user))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for i := 0; i+1 < len(params); i += 2 {
		c.SetParamNames(params[i])
		c.SetParamValues(params[i+1])
	}
	require.NoError(t, auth.JWTMiddleware(h)(c))
	return rec
}

func createVia(t *testing.T, title string) string {
	t.Helper()
	id, err := notification.Services.Create(context.Background(), &notification.CreateRequest{
		Title: title, Message: "body", Category: notification.CategoryGeneral,
	})
	require.NoError(t, err)
	return id
}

func TestListNotifications_ResolvesForViewer(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "Pickup delayed")
	require.NoError(t, notification.Services.MarkRead(context.Background(), testUser.UID, id))
	createVia(t, "New drop-off point")

	rec := perform(t, ListNotifications, http.MethodGet, "/api/notifications", "", testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Items, 2)
	assert.Equal(t, 1, resp.Unread)
	for _, item := range resp.Items {
		if item.ID == id {
			assert.True(t, item.Read)
		} else {
			assert.False(t, item.Read)
		}
	}
}

func TestListNotifications_ArchivedTab(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "Old notice")
	createVia(t, "Current notice")
	require.NoError(t, notification.Services.ArchiveForViewer(context.Background(), testUser.UID, id))

	rec := perform(t, ListNotifications, http.MethodGet, "/api/notifications?tab=archived", "", testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp FeedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, id, resp.Items[0].ID)
	assert.True(t, resp.Items[0].Archived)
}

func TestListNotifications_UnavailableWhileLoading(t *testing.T) {
	setupHandlers(t)
	// Replace the feed with one that never received a snapshot.
	notification.Feeds = notification.NewFeed(store.NewMemory())

	rec := perform(t, ListNotifications, http.MethodGet, "/api/notifications", "", testUser)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUnreadCount(t *testing.T) {
	setupHandlers(t)
	createVia(t, "a")
	createVia(t, "b")

	rec := perform(t, UnreadCount, http.MethodGet, "/api/notifications/unread-count", "", testUser)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp["count"])
}

func TestMarkNotificationRead(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "t")

	rec := perform(t, MarkNotificationRead, http.MethodPost, "/api/notifications/"+id+"/read", "", testUser, "id", id)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, notification.Feeds.UnreadCount(testUser.UID))

	rec = perform(t, MarkNotificationRead, http.MethodPost, "/api/notifications/missing/read", "", testUser, "id", "missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	setupHandlers(t)
	createVia(t, "a")
	createVia(t, "b")
	createVia(t, "c")

	rec := perform(t, MarkAllNotificationsRead, http.MethodPost, "/api/notifications/read-all", "", testUser)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, notification.Feeds.UnreadCount(testUser.UID))
	assert.Equal(t, 3, notification.Feeds.UnreadCount("someone-else"))
}

func TestArchiveAndRestoreNotification(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "t")

	rec := perform(t, ArchiveNotification, http.MethodPost, "/x", "", testUser, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	n, _ := notification.Feeds.Get(id)
	assert.Contains(t, n.ArchivedBy, testUser.UID)
	assert.Contains(t, n.ReadBy, testUser.UID)

	rec = perform(t, RestoreNotification, http.MethodPost, "/x", "", testUser, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)
	n, _ = notification.Feeds.Get(id)
	assert.NotContains(t, n.ArchivedBy, testUser.UID)
	assert.Contains(t, n.ReadBy, testUser.UID)
}

func TestDeleteNotificationForViewer(t *testing.T) {
	setupHandlers(t)
	id := createVia(t, "t")

	rec := perform(t, DeleteNotificationForViewer, http.MethodDelete, "/x", "", testUser, "id", id)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Empty(t, notification.Feeds.Snapshot(testUser.UID, notification.ScopeUser, notification.TabActive))
	n, ok := notification.Feeds.Get(id)
	require.True(t, ok, "the canonical record survives a per-viewer delete")
	assert.Contains(t, n.DeletedBy, testUser.UID)
}

func TestMutation_FailedWriteReturns500(t *testing.T) {
	st := setupHandlers(t)
	id := createVia(t, "t")
	st.FailWrites = true

	rec := perform(t, MarkNotificationRead, http.MethodPost, "/x", "", testUser, "id", id)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	n, _ := notification.Feeds.Get(id)
	assert.Empty(t, n.ReadBy, "the feed only changes on a successful store write")
}

func TestJWTMiddleware_RejectsBadTokens(t *testing.T) {
	setupHandlers(t)

	rec := perform(t, ListNotifications, http.MethodGet, "/api/notifications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer not-a-token")
	rec2 := httptest.NewRecorder()
	c := e.NewContext(req, rec2)
	require.NoError(t, auth.JWTMiddleware(ListNotifications)(c))
	assert.Equal(t, http.StatusUnauthorized, rec2.Code)
}
