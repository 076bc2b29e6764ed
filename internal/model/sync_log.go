package model

import "time"

const (
	PlatformMeta    = "meta"
	PlatformGoogle  = "google"
	PlatformEmail   = "email"
	PlatformPayment = "payment"
)

const (
	SyncStatusSuccess = "success"
	SyncStatusPartial = "partial"
	SyncStatusFailed  = "failed"
)

type SyncLog struct {
	ID          string    `db:"id" json:"id"`
	Platform    string    `db:"platform" json:"platform"`
	Operation   string    `db:"operation" json:"operation"`
	Status      string    `db:"status" json:"status"`
	ItemsTotal  int       `db:"items_total" json:"items_total"`
	ItemsOK     int       `db:"items_ok" json:"items_ok"`
	ItemsFailed int       `db:"items_failed" json:"items_failed"`
	Message     string    `db:"message" json:"message"`
	Details     JSONMap   `db:"details" json:"details"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SyncStatusFor derives the run status from item counters.
func SyncStatusFor(ok, failed int) string {
	switch {
	case failed == 0:
		return SyncStatusSuccess
	case ok == 0:
		return SyncStatusFailed
	default:
		return SyncStatusPartial
	}
}
