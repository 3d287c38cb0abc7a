package models

import (
	"time"
)

// Memory is a single photo entry. Read access is public; mutations require
// the owner or an Admin.
type Memory struct {
	ID          uint64 `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Title       string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:varchar(500)"`
	Date        time.Time // calendar date, stored in UTC
	ImageRef    string    `gorm:"type:varchar(2000)"` // public URL or storage key
	ThumbRef    string    `gorm:"type:varchar(2000)"`
	UserID      uint64    `gorm:"index;not null"`
	User        User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// CanModify implements the ownership rule for all mutating operations.
func (m *Memory) CanModify(u *User) bool {
	if u == nil || u.ID == 0 {
		return false
	}
	return m.UserID == u.ID || u.IsAdmin()
}

func (m *Memory) OwnerDisplayName() string {
	return m.User.DisplayName()
}
