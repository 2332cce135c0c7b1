package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store with the same merge and snapshot semantics as
// the Firestore implementation. Snapshots are delivered synchronously after every
// mutation, which makes feed behavior deterministic in tests.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string]map[string]interface{}
	subscribers map[string]map[int]SnapshotFunc
	nextSub     int

	// FailWrites makes every mutation return an error, for exercising the
	// transient-failure path.
	FailWrites bool
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]map[string]interface{}),
		subscribers: make(map[string]map[int]SnapshotFunc),
	}
}

var errWriteRejected = fmt.Errorf("store: write rejected")

func (s *MemoryStore) Subscribe(ctx context.Context, collection string, fn SnapshotFunc) (func(), error) {
	s.mu.Lock()
	if s.subscribers[collection] == nil {
		s.subscribers[collection] = make(map[int]SnapshotFunc)
	}
	id := s.nextSub
	s.nextSub++
	s.subscribers[collection][id] = fn
	docs := s.snapshotLocked(collection)
	s.mu.Unlock()

	// Initial snapshot, mirroring the listener contract.
	fn(docs)

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers[collection], id)
			s.mu.Unlock()
		})
	}
	return unsubscribe, nil
}

func (s *MemoryStore) Create(ctx context.Context, collection string, fields map[string]interface{}) (string, error) {
	s.mu.Lock()
	if s.FailWrites {
		s.mu.Unlock()
		return "", errWriteRejected
	}
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	id := uuid.New().String()
	doc := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		doc[k] = v
	}
	s.collections[collection][id] = doc
	s.notifyLocked(collection)
	return id, nil
}

func (s *MemoryStore) UpdateFields(ctx context.Context, collection, id string, updates []Update) error {
	s.mu.Lock()
	if s.FailWrites {
		s.mu.Unlock()
		return errWriteRejected
	}
	doc, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("store: no document %s/%s", collection, id)
	}
	applyUpdates(doc, updates)
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) BatchUpdate(ctx context.Context, collection string, updates map[string][]Update) error {
	s.mu.Lock()
	if s.FailWrites {
		s.mu.Unlock()
		return errWriteRejected
	}
	for id, docUpdates := range updates {
		doc, ok := s.collections[collection][id]
		if !ok {
			s.mu.Unlock()
			return fmt.Errorf("store: no document %s/%s", collection, id)
		}
		applyUpdates(doc, docUpdates)
	}
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) SetMerge(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	if s.FailWrites {
		s.mu.Unlock()
		return errWriteRejected
	}
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]interface{})
	}
	doc, ok := s.collections[collection][id]
	if !ok {
		doc = make(map[string]interface{})
		s.collections[collection][id] = doc
	}
	for k, v := range fields {
		doc[k] = v
	}
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	if s.FailWrites {
		s.mu.Unlock()
		return errWriteRejected
	}
	delete(s.collections[collection], id)
	s.notifyLocked(collection)
	return nil
}

func (s *MemoryStore) ListOnce(ctx context.Context, collection string) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(collection), nil
}

// notifyLocked releases the lock and fans the current snapshot out to every
// subscriber of the collection.
func (s *MemoryStore) notifyLocked(collection string) {
	docs := s.snapshotLocked(collection)
	fns := make([]SnapshotFunc, 0, len(s.subscribers[collection]))
	for _, fn := range s.subscribers[collection] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(docs)
	}
}

func (s *MemoryStore) snapshotLocked(collection string) []Document {
	docs := make([]Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		copied := make(map[string]interface{}, len(data))
		for k, v := range data {
			copied[k] = v
		}
		docs = append(docs, Document{ID: id, Data: copied})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func applyUpdates(doc map[string]interface{}, updates []Update) {
	for _, u := range updates {
		switch v := u.Value.(type) {
		case arrayUnion:
			doc[u.Path] = unionInto(doc[u.Path], v.elems)
		case arrayRemove:
			doc[u.Path] = removeFrom(doc[u.Path], v.elems)
		default:
			doc[u.Path] = u.Value
		}
	}
}

func unionInto(existing interface{}, elems []interface{}) []interface{} {
	arr, _ := existing.([]interface{})
	for _, e := range elems {
		present := false
		for _, have := range arr {
			if have == e {
				present = true
				break
			}
		}
		if !present {
			arr = append(arr, e)
		}
	}
	return arr
}

func removeFrom(existing interface{}, elems []interface{}) []interface{} {
	arr, _ := existing.([]interface{})
	out := make([]interface{}, 0, len(arr))
	for _, have := range arr {
		removed := false
		for _, e := range elems {
			if have == e {
				removed = true
				break
			}
		}
		if !removed {
			out = append(out, have)
		}
	}
	return out
}
