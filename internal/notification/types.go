package notification

import (
	"time"

	"github.com/yujinliee/wastewise/internal/store"
)

// Collection is the document collection holding the broadcast notifications.
const Collection = "notifications"

// StatsCollection holds per-user aggregated notification counters.
const StatsCollection = "user_stats"

type Category string

const (
	CategorySystem  Category = "System"
	CategoryPolicy  Category = "Policy"
	CategoryEvent   Category = "Event"
	CategoryUrgent  Category = "Urgent"
	CategoryGeneral Category = "General"
)

func (c Category) Valid() bool {
	switch c {
	case CategorySystem, CategoryPolicy, CategoryEvent, CategoryUrgent, CategoryGeneral:
		return true
	}
	return false
}

// Notification is the canonical broadcast record. It is shared by every viewer;
// per-viewer read/archive/delete state is layered on as membership sets instead
// of duplicating the record.
type Notification struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Category Category `json:"category"`
	Date     string   `json:"date"`
	Pinned   bool     `json:"pinned"`
	Archived bool     `json:"archived"`

	ReadBy     map[string]struct{} `json:"-"`
	ArchivedBy map[string]struct{} `json:"-"`
	DeletedBy  map[string]struct{} `json:"-"`
}

// FromDocument decodes a raw store document. Absent or malformed optional fields
// decode to their zero value; missing membership arrays become empty sets.
func FromDocument(doc store.Document) Notification {
	return Notification{
		ID:         doc.ID,
		Title:      asString(doc.Data["title"]),
		Message:    asString(doc.Data["message"]),
		Category:   Category(asString(doc.Data["category"])),
		Date:       asString(doc.Data["date"]),
		Pinned:     asBool(doc.Data["pinned"]),
		Archived:   asBool(doc.Data["archived"]),
		ReadBy:     asSet(doc.Data["readBy"]),
		ArchivedBy: asSet(doc.Data["archivedBy"]),
		DeletedBy:  asSet(doc.Data["deletedBy"]),
	}
}

// Timestamp returns the current time in the wire format used for the date field.
func Timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asSet(v interface{}) map[string]struct{} {
	set := make(map[string]struct{})
	switch arr := v.(type) {
	case []interface{}:
		for _, e := range arr {
			if s, ok := e.(string); ok {
				set[s] = struct{}{}
			}
		}
	case []string:
		for _, s := range arr {
			set[s] = struct{}{}
		}
	}
	return set
}
