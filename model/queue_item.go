package model

import "time"

type QueueStatus string

const (
	QueueStatusPending   QueueStatus = "PENDING"
	QueueStatusClaimed   QueueStatus = "CLAIMED"
	QueueStatusCompleted QueueStatus = "COMPLETED"
	QueueStatusRemoved   QueueStatus = "REMOVED"
)

// QueueItem is one entry in the moderation backlog. Exactly one exists per
// post. REMOVED is a soft mark set on post deletion, the row is kept for the
// audit trail.
type QueueItem struct {
	Id              string `gorm:"primaryKey"`
	PostID          string `gorm:"uniqueIndex"`
	SubmitterUserID string
	Priority        int
	Status          QueueStatus `gorm:"default:PENDING;index"`
	AddedAt         time.Time   `gorm:"autoCreateTime"`
}
