package model

import "time"

type ActivityType string

const (
	ActivityPostCreated       ActivityType = "POST_CREATED"
	ActivityPostEdited        ActivityType = "POST_EDITED"
	ActivityFactCheckComplete ActivityType = "FACT_CHECK_COMPLETED"
)

// DailyActivity aggregates one user's actions for one calendar day. Rows are
// upserted fire-and-forget, a lost increment is acceptable but a failed
// primary action because of one is not.
type DailyActivity struct {
	Id               string    `gorm:"primaryKey"`
	UserID           string    `gorm:"uniqueIndex:idx_activity_user_day"`
	Day              time.Time `gorm:"type:date;uniqueIndex:idx_activity_user_day"`
	PostsCreated     int
	PostsEdited      int
	PostsFactChecked int
}
