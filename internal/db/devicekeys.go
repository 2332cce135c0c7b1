package db

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/yujinliee/wastewise/internal/security"
)

// Device keys authenticate fill-level reports from bin hardware. Keys are
// KMS-encrypted at rest; the plaintext only exists while verifying a report.

func StoreBinDeviceKey(binID, deviceKey string) error {
	encryptedKey, err := security.EncryptDeviceKey(deviceKey)
	if err != nil {
		slog.Error("Failed to encrypt device key", "error", err, "bin_id", binID)
		return fmt.Errorf("failed to encrypt device key: %v", err)
	}

	expiresAt := time.Now().Add(90 * 24 * time.Hour)

	tx, err := DB.Begin()
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err, "bin_id", binID)
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	// Re-registering a device replaces its active key.
	_, err = tx.Exec(`
		UPDATE bin_device_keys
		SET is_active = false
		WHERE bin_id = $1 AND is_active = true
	`, binID)
	if err != nil {
		slog.Error("Failed to deactivate old device keys", "error", err, "bin_id", binID)
		return fmt.Errorf("failed to deactivate old device keys: %v", err)
	}

	_, err = tx.Exec(`
		INSERT INTO bin_device_keys (
			bin_id, encrypted_key, key_version,
			expires_at, last_rotated_at, is_active
		)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, binID, encryptedKey, 1, expiresAt, time.Now(), true)
	if err != nil {
		slog.Error("Failed to store device key", "error", err, "bin_id", binID)
		return fmt.Errorf("failed to store device key: %v", err)
	}

	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit transaction", "error", err, "bin_id", binID)
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	slog.Info("Successfully stored device key", "bin_id", binID)
	return nil
}

func GetBinDeviceKey(binID string) (string, error) {
	var encryptedKey string
	err := DB.Get(&encryptedKey, `
		SELECT encrypted_key FROM bin_device_keys
		WHERE bin_id = $1
		AND is_active = true
		AND expires_at > NOW()
		ORDER BY created_at DESC
		LIMIT 1
	`, binID)
	if err == sql.ErrNoRows {
		slog.Warn("No active device key found", "bin_id", binID)
		return "", fmt.Errorf("no active device key found for bin")
	}
	if err != nil {
		slog.Error("Failed to get device key", "error", err, "bin_id", binID)
		return "", fmt.Errorf("failed to get device key: %v", err)
	}

	deviceKey, err := security.DecryptDeviceKey(encryptedKey)
	if err != nil {
		slog.Error("Failed to decrypt device key", "error", err, "bin_id", binID)
		return "", fmt.Errorf("failed to decrypt device key: %v", err)
	}

	return deviceKey, nil
}

func UpdateLastUsedDeviceKey(binID string) error {
	_, err := DB.Exec(`
		UPDATE bin_device_keys
		SET last_used_at = CURRENT_TIMESTAMP
		WHERE bin_id = $1 AND is_active = true
	`, binID)
	if err != nil {
		slog.Error("Failed to update last used timestamp", "error", err, "bin_id", binID)
		return fmt.Errorf("failed to update last used timestamp: %v", err)
	}
	return nil
}

// ListActiveDeviceKeyBins returns bins whose active key is due for re-encryption
// under a rotated KMS key.
func ListActiveDeviceKeyBins() ([]string, error) {
	var binIDs []string
	err := DB.Select(&binIDs, `
		SELECT bin_id FROM bin_device_keys
		WHERE is_active = true AND expires_at > NOW()
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list bins with active device keys: %v", err)
	}
	return binIDs, nil
}
