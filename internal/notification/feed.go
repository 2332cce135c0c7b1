package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/yujinliee/wastewise/internal/store"
)

// Feed maintains a live view of the notifications collection. Every snapshot
// from the store replaces the whole working set; per-viewer resolution happens
// at query time so one subscription serves every viewer.
type Feed struct {
	store store.Store

	mu          sync.Mutex
	ready       bool
	closed      bool
	records     []Notification
	byID        map[string]Notification
	watchers    map[int]chan struct{}
	nextWatcher int
	unsubscribe func()
}

var Feeds *Feed

// InitFeed opens the process-wide feed. One subscription serves every viewer;
// per-viewer resolution happens at query time.
func InitFeed(ctx context.Context, st store.Store) error {
	Feeds = NewFeed(st)
	if err := Feeds.Open(ctx); err != nil {
		return err
	}
	slog.Info("Notification feed subscription opened")
	return nil
}

func GetFeed() *Feed {
	if Feeds == nil {
		slog.Error("Notification feed not initialized. Call InitFeed() first.")
		return nil
	}
	return Feeds
}

func NewFeed(st store.Store) *Feed {
	return &Feed{
		store:    st,
		byID:     make(map[string]Notification),
		watchers: make(map[int]chan struct{}),
	}
}

// Open subscribes to the collection. The feed stays in its loading state until
// the first snapshot arrives.
func (f *Feed) Open(ctx context.Context) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return errors.New("feed is closed")
	}
	if f.unsubscribe != nil {
		f.mu.Unlock()
		return errors.New("feed already open")
	}
	f.mu.Unlock()

	unsubscribe, err := f.store.Subscribe(ctx, Collection, f.onSnapshot)
	if err != nil {
		return err
	}

	f.mu.Lock()
	if f.closed {
		// Closed while the subscribe call was in flight.
		f.mu.Unlock()
		unsubscribe()
		return errors.New("feed is closed")
	}
	f.unsubscribe = unsubscribe
	f.mu.Unlock()
	return nil
}

func (f *Feed) onSnapshot(docs []store.Document) {
	records := make([]Notification, 0, len(docs))
	byID := make(map[string]Notification, len(docs))
	for _, doc := range docs {
		n := FromDocument(doc)
		records = append(records, n)
		byID[n.ID] = n
	}
	SortFeed(records)

	f.mu.Lock()
	if f.closed {
		// A snapshot resolving after teardown must not touch feed state.
		f.mu.Unlock()
		return
	}
	first := !f.ready
	f.records = records
	f.byID = byID
	f.ready = true
	watchers := make([]chan struct{}, 0, len(f.watchers))
	for _, ch := range f.watchers {
		watchers = append(watchers, ch)
	}
	f.mu.Unlock()

	if first {
		slog.Info("notification feed ready", "records", len(records))
	}
	for _, ch := range watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Ready reports whether the first snapshot has been delivered.
func (f *Feed) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

// Snapshot returns the resolved, sorted records of one feed tab for a viewer.
func (f *Feed) Snapshot(viewerID string, scope Scope, tab Tab) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Notification, 0, len(f.records))
	for _, n := range f.records {
		if InTab(n, viewerID, scope, tab) {
			out = append(out, n)
		}
	}
	return out
}

// UnreadCount is the viewer's badge count: visible, unarchived, unread records.
func (f *Feed) UnreadCount(viewerID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, n := range f.records {
		if Unread(n, viewerID) {
			count++
		}
	}
	return count
}

// Get returns the current canonical record by id.
func (f *Feed) Get(id string) (Notification, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.byID[id]
	return n, ok
}

// Watch registers a change listener. The returned channel receives a tick after
// every applied snapshot; the cancel function must be called on teardown.
func (f *Feed) Watch() (<-chan struct{}, func()) {
	f.mu.Lock()
	id := f.nextWatcher
	f.nextWatcher++
	ch := make(chan struct{}, 1)
	f.watchers[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.watchers, id)
			f.mu.Unlock()
		})
	}
	return ch, cancel
}

// Close tears the subscription down. Idempotent; no snapshot is applied after
// it returns.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	unsubscribe := f.unsubscribe
	f.unsubscribe = nil
	f.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}
