package models

import (
	"memories/db"
)

// Menu is an admin-configurable navigation entry; a tree via ParentID.
type Menu struct {
	ID        uint64 `gorm:"primaryKey"`
	Title     string `gorm:"type:varchar(32);not null"`
	URL       string `gorm:"type:varchar(128)"`
	ParentID  *uint64
	Parent    *Menu `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;"`
	SortOrder int
	Active    bool `gorm:"not null;default:true"`
}

// ActiveMenus returns the visible navigation entries in display order.
func ActiveMenus() (menus []Menu, err error) {
	err = db.Instance.Where("active = ?", true).Order("sort_order ASC, id ASC").Find(&menus).Error
	return
}
