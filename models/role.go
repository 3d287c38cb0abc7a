package models

import (
	"time"

	"memories/db"
)

const (
	RoleAdmin = "Admin"
	RoleUser  = "User"
	RoleGuest = "Guest"
)

type Role struct {
	ID          uint64 `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string         `gorm:"type:varchar(100);index:uniq_role_name,unique"`
	Description string         `gorm:"type:varchar(300)"`
	Permissions PermissionList `gorm:"type:text"`
	Users       []User         `gorm:"many2many:user_roles;"`
}

func RoleByName(name string) (r Role, err error) {
	err = db.Instance.First(&r, "name = ?", name).Error
	return
}
