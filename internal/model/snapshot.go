package model

import "time"

// SnapshotEntry records one transaction's state immediately before a bulk
// operation changed it.
type SnapshotEntry struct {
	TransactionID string            `json:"transaction_id"`
	PrevCategory  string            `json:"prev_category"`
	PrevMerchant  string            `json:"prev_merchant"`
	PrevStatus    TransactionStatus `json:"prev_status"`
}

// BulkSnapshot is the undo record for the most recent bulk operation in a
// session. A new bulk operation replaces any pending snapshot, so at most
// one undo level exists per session.
type BulkSnapshot struct {
	CreatedAt time.Time       `json:"created_at"`
	SessionID string          `json:"session_id"`
	Entries   []SnapshotEntry `json:"entries"`
}
