package user

import (
	"strings"
	"time"
)

type User struct {
	ID        int64     `gorm:"primaryKey"`
	Username  string    `gorm:"column:username;not null;uniqueIndex"`
	Email     string    `gorm:"column:email;not null"`
	FirstName string    `gorm:"column:first_name"`
	LastName  string    `gorm:"column:last_name"`
	Lang      string    `gorm:"column:lang;default:en"`
	IsAdmin   bool      `gorm:"column:is_admin;default:false"`
	Deleted   bool      `gorm:"column:deleted;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (User) TableName() string {
	return "users"
}

// FullName is the display name used in notification messages.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}
