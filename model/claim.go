package model

import "time"

type ClaimStatus string

const (
	ClaimStatusActive    ClaimStatus = "ACTIVE"
	ClaimStatusCompleted ClaimStatus = "COMPLETED"
	ClaimStatusAbandoned ClaimStatus = "ABANDONED"
	ClaimStatusExpired   ClaimStatus = "EXPIRED"
)

/*

Claim is an exclusive, time-boxed lease on a queue item held by one
fact-checker.

ExpiresAt is fixed at ClaimedAt + 30 minutes and is never extended by
activity. The partial unique index on PostID enforces at most one ACTIVE
claim per post at the storage layer, which is what makes concurrent claim
attempts safe.
*/

type Claim struct {
	Id            string `gorm:"primaryKey"`
	QueueItemID   string
	PostID        string `gorm:"index;index:idx_claims_one_active,unique,where:status = 'ACTIVE'"`
	FactCheckerID string `gorm:"index"`
	Status        ClaimStatus `gorm:"default:ACTIVE"`
	ClaimedAt     time.Time
	ExpiresAt     time.Time `gorm:"index"`
}
