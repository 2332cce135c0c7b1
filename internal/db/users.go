package db

import "fmt"

// ViewerRecord is the account identity the stats worker resolves feeds for.
type ViewerRecord struct {
	UID   string `db:"uid"`
	Email string `db:"email"`
}

// ListViewers returns every registered account.
func ListViewers() ([]ViewerRecord, error) {
	var viewers []ViewerRecord
	if err := DB.Select(&viewers, `SELECT uid, email FROM users ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list viewers: %w", err)
	}
	return viewers, nil
}
