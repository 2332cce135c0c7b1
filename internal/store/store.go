package store

import "context"

// Document is a single record in a collection, identified by a store-assigned id.
type Document struct {
	ID   string
	Data map[string]interface{}
}

// SnapshotFunc receives the full current document set of a collection on every change.
type SnapshotFunc func(docs []Document)

// Update is one partial field operation against a document. The zero value of Value
// writes the field as-is; ArrayUnion and ArrayRemove values apply additive set
// semantics so concurrent writers never clobber each other's fields.
type Update struct {
	Path  string
	Value interface{}
}

type arrayUnion struct {
	elems []interface{}
}

type arrayRemove struct {
	elems []interface{}
}

// ArrayUnion returns a value that appends the given elements to an array field,
// skipping elements already present.
func ArrayUnion(elems ...interface{}) interface{} {
	return arrayUnion{elems: elems}
}

// ArrayRemove returns a value that removes every occurrence of the given elements
// from an array field.
func ArrayRemove(elems ...interface{}) interface{} {
	return arrayRemove{elems: elems}
}

// Store is the document database contract the application is written against.
// All writes are partial: UpdateFields and SetMerge never replace untouched fields.
type Store interface {
	// Subscribe delivers the full current set of documents on every change until
	// the returned function is called. Unsubscribing is idempotent; no callback
	// fires after it returns.
	Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (func(), error)

	// Create stores a new document and returns its assigned id.
	Create(ctx context.Context, collection string, fields map[string]interface{}) (string, error)

	// UpdateFields applies partial field operations to one document.
	UpdateFields(ctx context.Context, collection, id string, updates []Update) error

	// BatchUpdate applies per-document partial updates as independent writes.
	BatchUpdate(ctx context.Context, collection string, updates map[string][]Update) error

	// SetMerge writes fields into a document by id, creating it if absent and
	// merging into existing data.
	SetMerge(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Delete removes a document entirely.
	Delete(ctx context.Context, collection, id string) error

	// ListOnce returns the current documents of a collection without subscribing.
	ListOnce(ctx context.Context, collection string) ([]Document, error)
}
