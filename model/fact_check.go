package model

import (
	"time"

	"gorm.io/datatypes"
)

type Verdict string

const (
	VerdictValidated Verdict = "VALIDATED"
	VerdictDebunked  Verdict = "DEBUNKED"
)

// FactCheck is a checker's final ruling on a post. Immutable once created.
// The unique index on (post, checker) turns a duplicate submission into a
// storage conflict instead of relying on a check-then-insert sequence.
type FactCheck struct {
	Id            string `gorm:"primaryKey"`
	PostID        string `gorm:"uniqueIndex:idx_fact_checks_post_checker"`
	FactCheckerID string `gorm:"uniqueIndex:idx_fact_checks_post_checker"`
	Verdict       Verdict
	Header        string
	Description   string
	ReferenceUrls datatypes.JSON
	CreatedAt     time.Time
}
