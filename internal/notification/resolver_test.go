package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setOf(ids ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func TestResolve_UserScope(t *testing.T) {
	n := Notification{
		ID:         "n1",
		Category:   CategoryGeneral,
		ReadBy:     setOf("alice"),
		ArchivedBy: setOf("bob"),
		DeletedBy:  setOf("carol"),
	}

	alice := Resolve(n, "alice", ScopeUser)
	assert.True(t, alice.Visible)
	assert.True(t, alice.Read)
	assert.False(t, alice.ArchivedForViewer)

	bob := Resolve(n, "bob", ScopeUser)
	assert.True(t, bob.Visible)
	assert.False(t, bob.Read)
	assert.True(t, bob.ArchivedForViewer)

	carol := Resolve(n, "carol", ScopeUser)
	assert.False(t, carol.Visible)

	stranger := Resolve(n, "dave", ScopeUser)
	assert.True(t, stranger.Visible)
	assert.False(t, stranger.Read)
	assert.False(t, stranger.ArchivedForViewer)
}

func TestResolve_DeleteWinsOverEverything(t *testing.T) {
	n := Notification{
		ID:         "n1",
		ReadBy:     setOf("alice"),
		ArchivedBy: setOf("alice"),
		DeletedBy:  setOf("alice"),
		Pinned:     true,
	}

	st := Resolve(n, "alice", ScopeUser)
	assert.False(t, st.Visible)
	assert.False(t, InTab(n, "alice", ScopeUser, TabActive))
	assert.False(t, InTab(n, "alice", ScopeUser, TabArchived))
	assert.False(t, Unread(n, "alice"))
}

func TestResolve_AdminScopeIgnoresViewerOverlay(t *testing.T) {
	n := Notification{
		ID:         "n1",
		Archived:   false,
		ArchivedBy: setOf("admin"),
		DeletedBy:  setOf("admin"),
	}

	st := Resolve(n, "admin", ScopeAdmin)
	assert.True(t, st.Visible, "a per-viewer tombstone must not hide the record from management")
	assert.False(t, st.ArchivedForViewer, "admin archive state follows the canonical flag only")

	n.Archived = true
	st = Resolve(n, "admin", ScopeAdmin)
	assert.True(t, st.Visible)
	assert.True(t, st.ArchivedForViewer)
	assert.True(t, InTab(n, "admin", ScopeAdmin, TabArchived))
	assert.False(t, InTab(n, "admin", ScopeAdmin, TabActive))
}

func TestInTab_ArchivePartitionsTheFeed(t *testing.T) {
	n := Notification{ID: "n1", ArchivedBy: setOf("alice")}

	assert.True(t, InTab(n, "alice", ScopeUser, TabArchived))
	assert.False(t, InTab(n, "alice", ScopeUser, TabActive))
	assert.True(t, InTab(n, "bob", ScopeUser, TabActive))
	assert.False(t, InTab(n, "bob", ScopeUser, TabArchived))
}

func TestUnread_ArchivedRecordsDoNotCount(t *testing.T) {
	unreadActive := Notification{ID: "n1"}
	unreadArchived := Notification{ID: "n2", ArchivedBy: setOf("alice")}
	readActive := Notification{ID: "n3", ReadBy: setOf("alice")}
	deleted := Notification{ID: "n4", DeletedBy: setOf("alice")}

	assert.True(t, Unread(unreadActive, "alice"))
	assert.False(t, Unread(unreadArchived, "alice"))
	assert.False(t, Unread(readActive, "alice"))
	assert.False(t, Unread(deleted, "alice"))
}

func TestSortFeed_PinnedFirstThenNewestThenID(t *testing.T) {
	list := []Notification{
		{ID: "c", Date: "2026-01-02T00:00:00Z"},
		{ID: "a", Date: "2026-01-03T00:00:00Z"},
		{ID: "d", Date: "2026-01-01T00:00:00Z", Pinned: true},
		{ID: "b", Date: "2026-01-03T00:00:00Z"},
	}

	SortFeed(list)

	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids)
}

func TestSortFeed_Deterministic(t *testing.T) {
	base := []Notification{
		{ID: "b", Date: "2026-01-01T00:00:00Z"},
		{ID: "a", Date: "2026-01-01T00:00:00Z"},
		{ID: "c", Date: "2026-01-01T00:00:00Z", Pinned: true},
	}

	first := append([]Notification(nil), base...)
	second := []Notification{base[2], base[0], base[1]}

	SortFeed(first)
	SortFeed(second)
	assert.Equal(t, first, second, "same records in any input order must sort identically")
}
