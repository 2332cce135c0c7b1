package worker

import (
	"context"
	"log/slog"
	"os"

	"github.com/hibiken/asynq"

	"github.com/yujinliee/wastewise/internal/db"
	"github.com/yujinliee/wastewise/internal/notification"
	"github.com/yujinliee/wastewise/internal/queue"
	"github.com/yujinliee/wastewise/internal/store"
)

type Worker struct {
	server *asynq.Server
	store  store.Store
}

func NewWorker(st store.Store) *Worker {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisOpt := asynq.RedisClientOpt{
		Addr: redisAddr,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				queue.QueueNotificationStats: 10,
				queue.QueueKMSRotation:       1,
			},
		},
	)

	return &Worker{
		server: server,
		store:  st,
	}
}

func (w *Worker) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()

	mux.HandleFunc(queue.QueueNotificationStats, w.handleNotificationStats)
	mux.HandleFunc(queue.QueueKMSRotation, w.HandleKMSRotation)

	slog.Info("Starting worker",
		"queues", []string{queue.QueueNotificationStats, queue.QueueKMSRotation},
		"concurrency", 10)

	if err := w.server.Start(mux); err != nil {
		return err
	}

	slog.Info("Worker started successfully")

	<-ctx.Done()

	w.server.Stop()
	slog.Info("Worker stopped")
	return nil
}

// handleNotificationStats recounts every user's notification totals and merges
// them into the user_stats collection for badge rendering.
func (w *Worker) handleNotificationStats(ctx context.Context, t *asynq.Task) error {
	viewers, err := db.ListViewers()
	if err != nil {
		slog.Error("Failed to list viewers for stats recount", "error", err)
		return err
	}

	docs, err := w.store.ListOnce(ctx, notification.Collection)
	if err != nil {
		slog.Error("Failed to list notifications for stats recount", "error", err)
		return err
	}

	records := make([]notification.Notification, 0, len(docs))
	for _, doc := range docs {
		records = append(records, notification.FromDocument(doc))
	}

	for _, viewer := range viewers {
		total, unread := statsForViewer(records, viewer.UID)

		err := w.store.SetMerge(ctx, notification.StatsCollection, viewer.UID, map[string]interface{}{
			"notifications": map[string]interface{}{
				"total":  total,
				"unread": unread,
			},
		})
		if err != nil {
			slog.Error("Failed to write user stats", "viewer", viewer.UID, "error", err)
			return err
		}
	}

	slog.Info("Successfully recounted notification stats",
		"viewers", len(viewers),
		"notifications", len(records),
	)
	return nil
}

// statsForViewer counts the records on the viewer's active tab and how many of
// them are unread.
func statsForViewer(records []notification.Notification, viewerUID string) (total, unread int) {
	for _, n := range records {
		st := notification.Resolve(n, viewerUID, notification.ScopeUser)
		if !st.Visible || st.ArchivedForViewer {
			continue
		}
		total++
		if !st.Read {
			unread++
		}
	}
	return total, unread
}
