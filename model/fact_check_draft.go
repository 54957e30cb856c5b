package model

import (
	"time"

	"gorm.io/datatypes"
)

// FactCheckDraft is an in-progress verdict, upserted repeatedly while the
// checker holds the claim and deleted on submission or post deletion.
type FactCheckDraft struct {
	Id            string `gorm:"primaryKey"`
	PostID        string `gorm:"uniqueIndex:idx_drafts_post_checker"`
	FactCheckerID string `gorm:"uniqueIndex:idx_drafts_post_checker"`
	Verdict       *Verdict
	Header        *string
	Description   *string
	ReferenceUrls datatypes.JSON
	LastSavedAt   time.Time
}
