package model

import "time"

type UserRole string

const (
	RoleUser        UserRole = "USER"
	RoleFactChecker UserRole = "FACT_CHECKER"
	RoleAdmin       UserRole = "ADMIN"
)

type User struct {
	Id        string `gorm:"primaryKey"`
	CreatedAt time.Time
	Name      string
	Role      UserRole `gorm:"default:USER"`
}
