package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yujinliee/wastewise/internal/store"
)

var (
	ErrNotFound        = errors.New("notification not found")
	ErrInvalidCategory = errors.New("invalid notification category")
)

// StatsEnqueuer schedules a background recount of per-user unread totals after
// a broadcast write. Optional; a nil enqueuer disables the recount.
type StatsEnqueuer interface {
	EnqueueStatsRefresh() (string, error)
}

// Service issues mutation intents against the canonical records. Every write is
// a partial field update so concurrent viewers never overwrite each other's
// unrelated fields. Failed writes leave the feed untouched; the next snapshot
// from the store is the only source of state corrections.
type Service struct {
	store store.Store
	feed  *Feed
	stats StatsEnqueuer
}

var Services *Service

func NewService(st store.Store, feed *Feed, stats StatsEnqueuer) *Service {
	return &Service{store: st, feed: feed, stats: stats}
}

func InitService(st store.Store, feed *Feed, stats StatsEnqueuer) {
	Services = NewService(st, feed, stats)
	slog.Info("Notification service initialized successfully")
}

func GetService() *Service {
	if Services == nil {
		slog.Error("Notification service not initialized. Call InitService() first.")
		return nil
	}
	return Services
}

// CreateRequest is the admin authoring payload. Title and message are required
// at authoring time; a record missing either is never stored.
type CreateRequest struct {
	Title    string   `json:"title" validate:"required"`
	Message  string   `json:"message" validate:"required"`
	Category Category `json:"category" validate:"required"`
	Pinned   bool     `json:"pinned"`
}

// EditRequest carries partial edits; empty fields are left untouched.
type EditRequest struct {
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Category Category `json:"category"`
}

// Create stores a new broadcast record with the date stamped server-side.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (string, error) {
	if !req.Category.Valid() {
		return "", ErrInvalidCategory
	}

	fields := map[string]interface{}{
		"title":      req.Title,
		"message":    req.Message,
		"category":   string(req.Category),
		"date":       Timestamp(),
		"pinned":     req.Pinned,
		"archived":   false,
		"readBy":     []interface{}{},
		"archivedBy": []interface{}{},
		"deletedBy":  []interface{}{},
	}

	id, err := s.store.Create(ctx, Collection, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create notification: %w", err)
	}

	s.enqueueStats()
	return id, nil
}

// Edit applies a partial update to the canonical record and restamps its date.
func (s *Service) Edit(ctx context.Context, id string, req *EditRequest) error {
	if _, ok := s.feed.Get(id); !ok {
		return ErrNotFound
	}

	var updates []store.Update
	if req.Title != "" {
		updates = append(updates, store.Update{Path: "title", Value: req.Title})
	}
	if req.Message != "" {
		updates = append(updates, store.Update{Path: "message", Value: req.Message})
	}
	if req.Category != "" {
		if !req.Category.Valid() {
			return ErrInvalidCategory
		}
		updates = append(updates, store.Update{Path: "category", Value: string(req.Category)})
	}
	if len(updates) == 0 {
		return nil
	}
	updates = append(updates, store.Update{Path: "date", Value: Timestamp()})

	if err := s.store.UpdateFields(ctx, Collection, id, updates); err != nil {
		return fmt.Errorf("failed to edit notification: %w", err)
	}

	s.enqueueStats()
	return nil
}

// MarkRead appends the viewer to readBy. A second call is a no-op.
func (s *Service) MarkRead(ctx context.Context, viewerID, id string) error {
	n, ok := s.feed.Get(id)
	if !ok {
		return ErrNotFound
	}
	if contains(n.ReadBy, viewerID) {
		return nil
	}

	err := s.store.UpdateFields(ctx, Collection, id, []store.Update{
		{Path: "readBy", Value: store.ArrayUnion(viewerID)},
	})
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}

// MarkAllRead appends the viewer to readBy of every unread, unarchived-for-viewer
// record, as a batch of independent per-record updates.
func (s *Service) MarkAllRead(ctx context.Context, viewerID string) error {
	updates := make(map[string][]store.Update)
	for _, n := range s.feed.Snapshot(viewerID, ScopeUser, TabActive) {
		if !contains(n.ReadBy, viewerID) {
			updates[n.ID] = []store.Update{{Path: "readBy", Value: store.ArrayUnion(viewerID)}}
		}
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.store.BatchUpdate(ctx, Collection, updates); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}

// ArchiveForViewer moves the record to the viewer's archived tab. Archiving
// implies read.
func (s *Service) ArchiveForViewer(ctx context.Context, viewerID, id string) error {
	n, ok := s.feed.Get(id)
	if !ok {
		return ErrNotFound
	}
	if contains(n.ArchivedBy, viewerID) {
		return nil
	}

	err := s.store.UpdateFields(ctx, Collection, id, []store.Update{
		{Path: "archivedBy", Value: store.ArrayUnion(viewerID)},
		{Path: "readBy", Value: store.ArrayUnion(viewerID)},
	})
	if err != nil {
		return fmt.Errorf("failed to archive notification: %w", err)
	}
	return nil
}

// RestoreForViewer removes the viewer from archivedBy only; read state is kept.
func (s *Service) RestoreForViewer(ctx context.Context, viewerID, id string) error {
	n, ok := s.feed.Get(id)
	if !ok {
		return ErrNotFound
	}
	if !contains(n.ArchivedBy, viewerID) {
		return nil
	}

	err := s.store.UpdateFields(ctx, Collection, id, []store.Update{
		{Path: "archivedBy", Value: store.ArrayRemove(viewerID)},
	})
	if err != nil {
		return fmt.Errorf("failed to restore notification: %w", err)
	}
	return nil
}

// DeleteForViewer tombstones the record for one viewer. Terminal: the canonical
// record stays in the store for everyone else.
func (s *Service) DeleteForViewer(ctx context.Context, viewerID, id string) error {
	n, ok := s.feed.Get(id)
	if !ok {
		return ErrNotFound
	}
	if contains(n.DeletedBy, viewerID) {
		return nil
	}

	err := s.store.UpdateFields(ctx, Collection, id, []store.Update{
		{Path: "deletedBy", Value: store.ArrayUnion(viewerID)},
	})
	if err != nil {
		return fmt.Errorf("failed to delete notification for viewer: %w", err)
	}
	return nil
}

// TogglePin flips the admin-scope pinned flag.
func (s *Service) TogglePin(ctx context.Context, id string) error {
	n, ok := s.feed.Get(id)
	if !ok {
		return ErrNotFound
	}

	err := s.store.UpdateFields(ctx, Collection, id, []store.Update{
		{Path: "pinned", Value: !n.Pinned},
	})
	if err != nil {
		return fmt.Errorf("failed to toggle pin: %w", err)
	}
	return nil
}

// ToggleArchived flips the canonical archived flag, which is a separate
// lifecycle from any viewer's archivedBy membership.
func (s *Service) ToggleArchived(ctx context.Context, id string) error {
	n, ok := s.feed.Get(id)
	if !ok {
		return ErrNotFound
	}

	err := s.store.UpdateFields(ctx, Collection, id, []store.Update{
		{Path: "archived", Value: !n.Archived},
	})
	if err != nil {
		return fmt.Errorf("failed to toggle archived: %w", err)
	}
	return nil
}

// DeleteCanonical removes the record from the store entirely.
func (s *Service) DeleteCanonical(ctx context.Context, id string) error {
	if _, ok := s.feed.Get(id); !ok {
		return ErrNotFound
	}

	if err := s.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	s.enqueueStats()
	return nil
}

func (s *Service) enqueueStats() {
	if s.stats == nil {
		return
	}
	if _, err := s.stats.EnqueueStatsRefresh(); err != nil {
		slog.Warn("failed to enqueue notification stats refresh", "error", err)
	}
}
