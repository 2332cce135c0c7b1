package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/yujinliee/wastewise/internal/db"
	"github.com/yujinliee/wastewise/internal/queue"
	"github.com/yujinliee/wastewise/internal/security"
)

// HandleKMSRotation provisions a replacement KMS key and re-encrypts every
// active bin device key under it.
func (w *Worker) HandleKMSRotation(ctx context.Context, t *asynq.Task) error {
	var payload queue.KMSRotationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v", err)
	}

	binIDs, err := db.ListActiveDeviceKeyBins()
	if err != nil {
		return fmt.Errorf("failed to list device keys for rotation: %v", err)
	}

	// Decrypt under the old key before it is replaced.
	deviceKeys := make(map[string]string, len(binIDs))
	for _, binID := range binIDs {
		deviceKey, err := db.GetBinDeviceKey(binID)
		if err != nil {
			return fmt.Errorf("failed to read device key for bin %s: %v", binID, err)
		}
		deviceKeys[binID] = deviceKey
	}

	newKeyID, err := security.CreateRotatedKey(ctx)
	if err != nil {
		return err
	}

	for binID, deviceKey := range deviceKeys {
		if err := db.StoreBinDeviceKey(binID, deviceKey); err != nil {
			return fmt.Errorf("failed to re-encrypt device key for bin %s: %v", binID, err)
		}
	}

	if err := db.UpdateKMSRotation(payload.KeyID, newKeyID); err != nil {
		return err
	}

	if err := queue.ScheduleKMSRotation(newKeyID); err != nil {
		return fmt.Errorf("failed to schedule next rotation: %v", err)
	}

	slog.Info("Successfully rotated KMS key",
		"old_key_id", payload.KeyID,
		"new_key_id", newKeyID,
		"reencrypted_keys", len(deviceKeys))

	return nil
}
