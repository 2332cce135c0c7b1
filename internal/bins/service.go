package bins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/yujinliee/wastewise/internal/notification"
	"github.com/yujinliee/wastewise/internal/store"
)

var ErrNotFound = errors.New("bin not found")

// fullAlertThreshold is the fill level at which a bin triggers an Urgent
// broadcast to every user.
const fullAlertThreshold = 90

// Service manages the bin fleet on its own collection stream. A bin crossing
// the alert threshold produces an Urgent notification broadcast.
type Service struct {
	store    store.Store
	notifier *notification.Service
}

var BinServices *Service

func NewService(st store.Store, notifier *notification.Service) *Service {
	return &Service{store: st, notifier: notifier}
}

func InitService(st store.Store, notifier *notification.Service) {
	BinServices = NewService(st, notifier)
	slog.Info("Bin service initialized successfully")
}

func GetService() *Service {
	if BinServices == nil {
		slog.Error("Bin service not initialized. Call InitService() first.")
		return nil
	}
	return BinServices
}

func (s *Service) Create(ctx context.Context, req *CreateRequest) (string, error) {
	if !req.Type.Valid() {
		return "", fmt.Errorf("invalid bin type %q", req.Type)
	}

	fields := map[string]interface{}{
		"label":     req.Label,
		"location":  req.Location,
		"type":      string(req.Type),
		"fillLevel": 0,
		"status":    string(StatusActive),
		"createdAt": notification.Timestamp(),
	}

	id, err := s.store.Create(ctx, Collection, fields)
	if err != nil {
		return "", fmt.Errorf("failed to create bin: %w", err)
	}
	return id, nil
}

func (s *Service) Update(ctx context.Context, id string, req *UpdateRequest) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	var updates []store.Update
	if req.Label != "" {
		updates = append(updates, store.Update{Path: "label", Value: req.Label})
	}
	if req.Location != "" {
		updates = append(updates, store.Update{Path: "location", Value: req.Location})
	}
	if req.Type != "" {
		if !req.Type.Valid() {
			return fmt.Errorf("invalid bin type %q", req.Type)
		}
		updates = append(updates, store.Update{Path: "type", Value: string(req.Type)})
	}
	if req.Status != "" {
		updates = append(updates, store.Update{Path: "status", Value: string(req.Status)})
	}
	if len(updates) == 0 {
		return nil
	}

	if err := s.store.UpdateFields(ctx, Collection, id, updates); err != nil {
		return fmt.Errorf("failed to update bin: %w", err)
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("failed to delete bin: %w", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]Bin, error) {
	docs, err := s.store.ListOnce(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins: %w", err)
	}

	bins := make([]Bin, 0, len(docs))
	for _, doc := range docs {
		bins = append(bins, FromDocument(doc))
	}
	sort.Slice(bins, func(i, j int) bool {
		if bins[i].Label != bins[j].Label {
			return bins[i].Label < bins[j].Label
		}
		return bins[i].ID < bins[j].ID
	})
	return bins, nil
}

// Subscribe delivers the sorted bin list on every collection change until the
// returned function is called.
func (s *Service) Subscribe(ctx context.Context, fn func([]Bin)) (func(), error) {
	return s.store.Subscribe(ctx, Collection, func(docs []store.Document) {
		list := make([]Bin, 0, len(docs))
		for _, doc := range docs {
			list = append(list, FromDocument(doc))
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Label != list[j].Label {
				return list[i].Label < list[j].Label
			}
			return list[i].ID < list[j].ID
		})
		fn(list)
	})
}

func (s *Service) Get(ctx context.Context, id string) (Bin, error) {
	docs, err := s.store.ListOnce(ctx, Collection)
	if err != nil {
		return Bin{}, fmt.Errorf("failed to get bin: %w", err)
	}
	for _, doc := range docs {
		if doc.ID == id {
			return FromDocument(doc), nil
		}
	}
	return Bin{}, ErrNotFound
}

// ReportFill records a device fill-level report. Crossing the alert threshold
// broadcasts an Urgent notification; a bin at capacity is flagged full.
func (s *Service) ReportFill(ctx context.Context, id string, fillLevel int) error {
	bin, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	status := bin.Status
	if fillLevel >= 100 {
		status = StatusFull
	} else if bin.Status == StatusFull {
		status = StatusActive
	}

	updates := []store.Update{
		{Path: "fillLevel", Value: fillLevel},
		{Path: "status", Value: string(status)},
	}
	if err := s.store.UpdateFields(ctx, Collection, id, updates); err != nil {
		return fmt.Errorf("failed to record fill report: %w", err)
	}

	if fillLevel >= fullAlertThreshold && bin.FillLevel < fullAlertThreshold && s.notifier != nil {
		_, err := s.notifier.Create(ctx, &notification.CreateRequest{
			Title:    fmt.Sprintf("Bin %s almost full", bin.Label),
			Message:  fmt.Sprintf("Bin %s at %s reported a fill level of %d%%. Schedule a collection.", bin.Label, bin.Location, fillLevel),
			Category: notification.CategoryUrgent,
		})
		if err != nil {
			slog.Warn("failed to broadcast full-bin alert", "bin_id", id, "error", err)
		}
	}

	return nil
}

// MarkEmptied resets a bin after collection.
func (s *Service) MarkEmptied(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	updates := []store.Update{
		{Path: "fillLevel", Value: 0},
		{Path: "status", Value: string(StatusActive)},
		{Path: "lastEmptied", Value: notification.Timestamp()},
	}
	if err := s.store.UpdateFields(ctx, Collection, id, updates); err != nil {
		return fmt.Errorf("failed to mark bin emptied: %w", err)
	}
	return nil
}
