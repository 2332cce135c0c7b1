package notification

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yujinliee/wastewise/internal/store"
)

func TestFromDocument_MissingFieldsDecodeToZeroValues(t *testing.T) {
	n := FromDocument(store.Document{ID: "n1", Data: map[string]interface{}{
		"title": "Only a title",
	}})

	assert.Equal(t, "n1", n.ID)
	assert.Equal(t, "Only a title", n.Title)
	assert.False(t, n.Pinned, "a record without a pinned flag sorts as unpinned")
	assert.False(t, n.Archived)
	assert.NotNil(t, n.ReadBy)
	assert.Empty(t, n.ReadBy)
	assert.Empty(t, n.ArchivedBy)
	assert.Empty(t, n.DeletedBy)
}

func TestFromDocument_DecodesMembershipArrays(t *testing.T) {
	n := FromDocument(store.Document{ID: "n1", Data: map[string]interface{}{
		"readBy":    []interface{}{"alice", "bob", 42},
		"deletedBy": []string{"carol"},
	}})

	assert.Len(t, n.ReadBy, 2, "non-string members are ignored")
	assert.Contains(t, n.ReadBy, "alice")
	assert.Contains(t, n.DeletedBy, "carol")
}

func TestCategory_Valid(t *testing.T) {
	assert.True(t, CategorySystem.Valid())
	assert.True(t, CategoryUrgent.Valid())
	assert.False(t, Category("").Valid())
	assert.False(t, Category("Gossip").Valid())
}
