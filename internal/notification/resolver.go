package notification

import "sort"

// Scope selects which lifecycle governs visibility: administrators manage the
// canonical record, users manage only their own overlay.
type Scope string

const (
	ScopeAdmin Scope = "admin"
	ScopeUser  Scope = "user"
)

// Tab is the feed partition a record lands in for a given viewer.
type Tab string

const (
	TabActive   Tab = "active"
	TabArchived Tab = "archived"
)

// Status is the effective per-viewer state of one record.
type Status struct {
	Visible           bool     `json:"visible"`
	Read              bool     `json:"read"`
	ArchivedForViewer bool     `json:"archived"`
	Category          Category `json:"category"`
}

// Resolve computes the effective status of a record for one viewer. Pure; a
// viewer in deletedBy is never visible again regardless of any other flag.
func Resolve(n Notification, viewerID string, scope Scope) Status {
	if scope == ScopeAdmin {
		return Status{
			Visible:           true,
			Read:              contains(n.ReadBy, viewerID),
			ArchivedForViewer: n.Archived,
			Category:          n.Category,
		}
	}

	return Status{
		Visible:           !contains(n.DeletedBy, viewerID),
		Read:              contains(n.ReadBy, viewerID),
		ArchivedForViewer: contains(n.ArchivedBy, viewerID),
		Category:          n.Category,
	}
}

// InTab reports whether the record belongs to the given feed tab for the viewer.
func InTab(n Notification, viewerID string, scope Scope, tab Tab) bool {
	st := Resolve(n, viewerID, scope)
	if !st.Visible {
		return false
	}
	if tab == TabArchived {
		return st.ArchivedForViewer
	}
	return !st.ArchivedForViewer
}

// Unread reports whether the record counts toward the viewer's badge.
func Unread(n Notification, viewerID string) bool {
	st := Resolve(n, viewerID, ScopeUser)
	return st.Visible && !st.ArchivedForViewer && !st.Read
}

// SortFeed orders records pinned-first, then newest-first by date, then by id
// ascending so equal keys have a deterministic order. Records without a pinned
// flag sort as unpinned.
func SortFeed(list []Notification) {
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.Pinned != b.Pinned {
			return a.Pinned
		}
		if a.Date != b.Date {
			return a.Date > b.Date
		}
		return a.ID < b.ID
	})
}

func contains(set map[string]struct{}, id string) bool {
	_, ok := set[id]
	return ok
}
