package notification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yujinliee/wastewise/internal/store"
)

func seedNotification(t *testing.T, st *store.MemoryStore, fields map[string]interface{}) string {
	t.Helper()
	id, err := st.Create(context.Background(), Collection, fields)
	require.NoError(t, err)
	return id
}

func TestFeed_ReadyAfterFirstSnapshot(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)

	assert.False(t, f.Ready())
	require.NoError(t, f.Open(context.Background()))
	assert.True(t, f.Ready(), "the initial listener snapshot moves the feed out of loading")

	f.Close()
}

func TestFeed_OpenTwiceFails(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)
	defer f.Close()

	require.NoError(t, f.Open(context.Background()))
	assert.Error(t, f.Open(context.Background()))
}

func TestFeed_SnapshotRecomputesOnEveryWrite(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)
	defer f.Close()
	require.NoError(t, f.Open(context.Background()))

	id := seedNotification(t, st, map[string]interface{}{
		"title": "Pickup delay",
		"date":  "2026-01-01T00:00:00Z",
	})

	items := f.Snapshot("alice", ScopeUser, TabActive)
	require.Len(t, items, 1)
	assert.Equal(t, id, items[0].ID)
	assert.Equal(t, 1, f.UnreadCount("alice"))

	require.NoError(t, st.UpdateFields(context.Background(), Collection, id, []store.Update{
		{Path: "readBy", Value: store.ArrayUnion("alice")},
	}))
	assert.Equal(t, 0, f.UnreadCount("alice"))
	assert.Equal(t, 1, f.UnreadCount("bob"), "another viewer's badge is untouched")
}

func TestFeed_SnapshotIsPerViewer(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)
	defer f.Close()
	require.NoError(t, f.Open(context.Background()))

	id := seedNotification(t, st, map[string]interface{}{
		"title":     "Holiday schedule",
		"date":      "2026-01-01T00:00:00Z",
		"deletedBy": []interface{}{"alice"},
	})

	assert.Empty(t, f.Snapshot("alice", ScopeUser, TabActive))
	assert.Empty(t, f.Snapshot("alice", ScopeUser, TabArchived))

	bob := f.Snapshot("bob", ScopeUser, TabActive)
	require.Len(t, bob, 1)
	assert.Equal(t, id, bob[0].ID)

	admin := f.Snapshot("admin", ScopeAdmin, TabActive)
	assert.Len(t, admin, 1, "management listing still shows viewer-deleted records")
}

func TestFeed_WatchSignalsAppliedSnapshots(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)
	defer f.Close()
	require.NoError(t, f.Open(context.Background()))

	ch, cancel := f.Watch()
	defer cancel()

	seedNotification(t, st, map[string]interface{}{"title": "x", "date": "2026-01-01T00:00:00Z"})

	select {
	case <-ch:
	default:
		t.Fatal("expected a watch tick after the snapshot applied")
	}
}

func TestFeed_CloseStopsSnapshotApplication(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)
	require.NoError(t, f.Open(context.Background()))

	seedNotification(t, st, map[string]interface{}{"title": "before", "date": "2026-01-01T00:00:00Z"})
	require.Len(t, f.Snapshot("alice", ScopeUser, TabActive), 1)

	f.Close()
	f.Close() // idempotent

	// The store keeps running; the closed feed must not observe the write.
	_, err := st.Create(context.Background(), Collection, map[string]interface{}{
		"title": "after", "date": "2026-01-02T00:00:00Z",
	})
	require.NoError(t, err)
	assert.Len(t, f.Snapshot("alice", ScopeUser, TabActive), 1)
}

func TestFeed_OpenAfterCloseFails(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)
	f.Close()
	assert.Error(t, f.Open(context.Background()))
}

func TestFeed_GetReturnsCanonicalRecord(t *testing.T) {
	st := store.NewMemory()
	f := NewFeed(st)
	defer f.Close()
	require.NoError(t, f.Open(context.Background()))

	id := seedNotification(t, st, map[string]interface{}{
		"title":    "Depot closure",
		"category": "System",
		"date":     "2026-01-01T00:00:00Z",
	})

	n, ok := f.Get(id)
	require.True(t, ok)
	assert.Equal(t, "Depot closure", n.Title)
	assert.Equal(t, CategorySystem, n.Category)

	_, ok = f.Get("missing")
	assert.False(t, ok)
}
