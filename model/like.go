package model

import "time"

type Like struct {
	Id        string `gorm:"primaryKey"`
	PostID    string `gorm:"uniqueIndex:idx_likes_post_user"`
	UserID    string `gorm:"uniqueIndex:idx_likes_post_user"`
	CreatedAt time.Time
}
