package bins

import "github.com/yujinliee/wastewise/internal/store"

// Collection is the document collection holding the bin fleet. Bins arrive on
// their own subscription stream, independent of notifications.
const Collection = "bins"

type BinType string

const (
	TypeGeneral   BinType = "general"
	TypeRecycling BinType = "recycling"
	TypeOrganic   BinType = "organic"
	TypeHazardous BinType = "hazardous"
)

func (t BinType) Valid() bool {
	switch t {
	case TypeGeneral, TypeRecycling, TypeOrganic, TypeHazardous:
		return true
	}
	return false
}

type BinStatus string

const (
	StatusActive      BinStatus = "active"
	StatusFull        BinStatus = "full"
	StatusMaintenance BinStatus = "maintenance"
)

type Bin struct {
	ID          string    `json:"id"`
	Label       string    `json:"label"`
	Location    string    `json:"location"`
	Type        BinType   `json:"type"`
	FillLevel   int       `json:"fill_level"`
	Status      BinStatus `json:"status"`
	LastEmptied string    `json:"last_emptied,omitempty"`
	CreatedAt   string    `json:"created_at"`
}

type CreateRequest struct {
	Label    string  `json:"label" validate:"required"`
	Location string  `json:"location" validate:"required"`
	Type     BinType `json:"type" validate:"required"`
}

type UpdateRequest struct {
	Label    string    `json:"label"`
	Location string    `json:"location"`
	Type     BinType   `json:"type"`
	Status   BinStatus `json:"status"`
}

type ReportRequest struct {
	FillLevel int `json:"fill_level" validate:"min=0,max=100"`
}

func FromDocument(doc store.Document) Bin {
	return Bin{
		ID:          doc.ID,
		Label:       asString(doc.Data["label"]),
		Location:    asString(doc.Data["location"]),
		Type:        BinType(asString(doc.Data["type"])),
		FillLevel:   asInt(doc.Data["fillLevel"]),
		Status:      BinStatus(asString(doc.Data["status"])),
		LastEmptied: asString(doc.Data["lastEmptied"]),
		CreatedAt:   asString(doc.Data["createdAt"]),
	}
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

// Firestore decodes numbers as int64; JSON round-trips may hand back float64.
func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
