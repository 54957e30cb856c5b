package model

import (
	"time"

	"gorm.io/gorm"
)

type PostStatus string

const (
	PostStatusPending   PostStatus = "PENDING"
	PostStatusValidated PostStatus = "VALIDATED"
	PostStatusDebunked  PostStatus = "DEBUNKED"
	PostStatusFlagged   PostStatus = "FLAGGED"
)

/*

Post is a user submitted claim awaiting fact-checking.

Id: primary key
CreatedAt: time when entity is created
DeletedAt: soft delete marker, set when the author removes the post

AuthorID: user who submitted the post
Header: short claim summary, length bounded by the author's rank
Description: claim body, length bounded by the author's rank
Status: moderation lifecycle state, only ever changed by the flag scorer
        and the verdict pipeline, never by direct user edit
TotalLikes: denormalized like counter, the denominator of the weighted
            flag score comparison
*/

type Post struct {
	Id          string `gorm:"primaryKey"`
	CreatedAt   time.Time
	DeletedAt   gorm.DeletedAt
	AuthorID    string `gorm:"index"`
	Header      string
	Description string
	Status      PostStatus `gorm:"default:PENDING"`
	TotalLikes  int
}
