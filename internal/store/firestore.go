package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

// firestoreStore implements Store on top of the Firestore client.
type firestoreStore struct {
	client *firestore.Client
}

// NewFirestore wraps a Firestore client in the Store contract.
func NewFirestore(client *firestore.Client) Store {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	iter := s.client.Collection(collection).Snapshots(ctx)

	go func() {
		for {
			snap, err := iter.Next()
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("snapshot listener stopped", "collection", collection, "error", err)
				}
				return
			}

			docs := make([]Document, 0, snap.Size)
			di := snap.Documents
			for {
				doc, err := di.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					slog.Error("failed to read snapshot document", "collection", collection, "error", err)
					return
				}
				docs = append(docs, Document{ID: doc.Ref.ID, Data: doc.Data()})
			}

			fn(docs)
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			cancel()
			iter.Stop()
		})
	}
	return unsubscribe, nil
}

func (s *firestoreStore) Create(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	id := uuid.New().String()
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, fields); err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}
	return id, nil
}

func (s *firestoreStore) UpdateFields(ctx context.Context, collection, id string, updates []Update) error {
	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, toFirestoreUpdates(updates)); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}
	return nil
}

func (s *firestoreStore) BatchUpdate(ctx context.Context, collection string, updates map[string][]Update) error {
	bulkWriter := s.client.BulkWriter(ctx)
	defer bulkWriter.End()

	for id, docUpdates := range updates {
		ref := s.client.Collection(collection).Doc(id)
		if _, err := bulkWriter.Update(ref, toFirestoreUpdates(docUpdates)); err != nil {
			return fmt.Errorf("failed to add update to bulk writer: %w", err)
		}
	}

	bulkWriter.Flush()
	return nil
}

func (s *firestoreStore) SetMerge(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, fields, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to merge document: %w", err)
	}
	return nil
}

func (s *firestoreStore) Delete(ctx context.Context, collection, id string) error {
	if _, err := s.client.Collection(collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (s *firestoreStore) ListOnce(ctx context.Context, collection string) ([]Document, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list documents: %w", err)
		}
		docs = append(docs, Document{ID: doc.Ref.ID, Data: doc.Data()})
	}
	return docs, nil
}

func toFirestoreUpdates(updates []Update) []firestore.Update {
	out := make([]firestore.Update, 0, len(updates))
	for _, u := range updates {
		switch v := u.Value.(type) {
		case arrayUnion:
			out = append(out, firestore.Update{Path: u.Path, Value: firestore.ArrayUnion(v.elems...)})
		case arrayRemove:
			out = append(out, firestore.Update{Path: u.Path, Value: firestore.ArrayRemove(v.elems...)})
		default:
			out = append(out, firestore.Update{Path: u.Path, Value: u.Value})
		}
	}
	return out
}
