package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Permission is an atomic capability tag. The set is closed: anything not
// listed below is rejected at the data-access boundary.
type Permission string

const (
	PermissionBrowseHome               Permission = "browse-home"
	PermissionViewMemories             Permission = "view-memories"
	PermissionCreateMemory             Permission = "create-memory"
	PermissionEditMemory               Permission = "edit-memory"
	PermissionDeleteMemory             Permission = "delete-memory"
	PermissionUploadPhoto              Permission = "upload-photo"
	PermissionDownloadPhoto            Permission = "download-photo"
	PermissionEditProfile              Permission = "edit-profile"
	PermissionViewAlbum                Permission = "view-album"
	PermissionManageMemoriesBackoffice Permission = "manage-memories-backoffice"
	PermissionManagePhotosBackoffice   Permission = "manage-photos-backoffice"
	PermissionManageCommentsBackoffice Permission = "manage-comments-backoffice"
)

var AllPermissions = []Permission{
	PermissionBrowseHome,
	PermissionViewMemories,
	PermissionCreateMemory,
	PermissionEditMemory,
	PermissionDeleteMemory,
	PermissionUploadPhoto,
	PermissionDownloadPhoto,
	PermissionEditProfile,
	PermissionViewAlbum,
	PermissionManageMemoriesBackoffice,
	PermissionManagePhotosBackoffice,
	PermissionManageCommentsBackoffice,
}

func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// PermissionList is stored as a JSON array in a text column. A NULL or blank
// column always scans to an empty list, never nil-with-meaning.
type PermissionList []Permission

func (l *PermissionList) Scan(value interface{}) error {
	*l = PermissionList{}
	if value == nil {
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into PermissionList", value)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, l)
}

func (l PermissionList) Value() (driver.Value, error) {
	if l == nil {
		l = PermissionList{}
	}
	raw, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (l PermissionList) Has(p Permission) bool {
	for _, have := range l {
		if have == p {
			return true
		}
	}
	return false
}

// Union merges two lists, collapsing duplicates and keeping first-seen order.
func (l PermissionList) Union(other PermissionList) PermissionList {
	result := PermissionList{}
	for _, p := range l {
		if !result.Has(p) {
			result = append(result, p)
		}
	}
	for _, p := range other {
		if !result.Has(p) {
			result = append(result, p)
		}
	}
	return result
}

// ParsePermissions validates a list of permission codes against the closed set.
func ParsePermissions(codes []string) (PermissionList, error) {
	result := PermissionList{}
	for _, code := range codes {
		p := Permission(code)
		if !p.Valid() {
			return nil, fmt.Errorf("unknown permission %q", code)
		}
		if !result.Has(p) {
			result = append(result, p)
		}
	}
	return result, nil
}
