package models

import (
	"memories/db"
)

// Init migrates the schema and normalizes legacy rows. Must run after db.Init
// and only when the database is available.
func Init() error {
	if err := db.Instance.AutoMigrate(&Role{}, &User{}, &Memory{}, &Menu{}); err != nil {
		return err
	}
	return normalizePermissionColumns()
}

// normalizePermissionColumns rewrites NULL or blank permission columns left
// behind by older schema versions to an empty JSON array, so reads always
// produce an empty list.
func normalizePermissionColumns() error {
	if err := db.Instance.Exec(
		"update users set permissions = '[]' where permissions is null or permissions = ''").Error; err != nil {
		return err
	}
	return db.Instance.Exec(
		"update roles set permissions = '[]' where permissions is null or permissions = ''").Error
}
