package model

import "time"

// Flag records that a user flagged a post. The flagger's role and rank level
// are denormalized at flag time so score recomputation never needs a rank
// lookup. The composite unique index rejects duplicate flags at the storage
// layer instead of a racy pre-insert existence check.
type Flag struct {
	Id               string `gorm:"primaryKey"`
	PostID           string `gorm:"uniqueIndex:idx_flags_post_flagger"`
	FlaggerUserID    string `gorm:"uniqueIndex:idx_flags_post_flagger;index"`
	FlaggerRole      UserRole
	FlaggerRankLevel int
	CreatedAt        time.Time `gorm:"index"`
}
