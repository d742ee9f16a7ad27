package store

import (
	"database/sql"
	"fmt"

	"github.com/consultiq/consultiq/internal/util"
)

// newNotificationID generates a unique notification id.
func newNotificationID() string {
	return util.GenerateRandomID("n_", 32)
}

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// scanNotification scans a Notification from sql.Rows.
func scanNotification(rows *sql.Rows) (Notification, error) {
	var n Notification
	var payloadJSON, dedupeKey, lastError sql.NullString
	var nextAttemptAt sql.NullTime
	err := rows.Scan(
		&n.ID, &n.SessionID, &n.Kind, &payloadJSON, &n.Status, &n.Attempts,
		&nextAttemptAt, &dedupeKey, &lastError, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return n, fmt.Errorf("scan notification failed: %w", err)
	}
	n.PayloadJSON = payloadJSON.String
	n.DedupeKey = dedupeKey.String
	n.LastError = lastError.String
	if nextAttemptAt.Valid {
		n.NextAttemptAt = &nextAttemptAt.Time
	}
	return n, nil
}
