package model

import "time"

/*

PointsLedger is the append-only reputation transaction log.

Entries are immutable facts, never updated or deleted. Points is signed,
penalties are negative entries. ContextID optionally links the entry to the
post, fact check or flag that triggered it. The sum of a user's entries is
their balance, materialized in PointsBalance.
*/

type PointsLedger struct {
	Id        string `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Points    int
	Reason    string
	ContextID *string
	CreatedAt time.Time `gorm:"index"`
}

// PointsBalance is the cached aggregate, upserted in the same transaction as
// every ledger insert. Balance == sum of ledger points at all times, and may
// go negative.
type PointsBalance struct {
	UserID  string `gorm:"primaryKey"`
	Balance int    `gorm:"index"`
}
