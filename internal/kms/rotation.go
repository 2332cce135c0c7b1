package kms

import (
	"errors"
	"log/slog"
	"os"

	"github.com/yujinliee/wastewise/internal/db"
	"github.com/yujinliee/wastewise/internal/queue"
)

// InitRotation makes sure the current KMS key has a rotation record and a
// scheduled rotation task.
func InitRotation() error {
	keyID := os.Getenv("AWS_KMS_KEY_ID")
	if keyID == "" {
		slog.Error("AWS_KMS_KEY_ID environment variable not set")
		return errors.New("AWS_KMS_KEY_ID environment variable not set")
	}

	if err := db.InitKMSRotation(keyID); err != nil {
		slog.Error("failed to init rotation record", "error", err)
		return errors.New("failed to init rotation record")
	}

	if err := queue.ScheduleKMSRotation(keyID); err != nil {
		slog.Error("failed to schedule KMS rotation", "error", err)
		return errors.New("failed to schedule KMS rotation")
	}

	slog.Info("KMS rotation initialized successfully")
	return nil
}
