package models

import (
	"time"

	"memories/db"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var defaultRolePermissions = map[string]PermissionList{
	RoleAdmin: AllPermissions,
	RoleUser: {
		PermissionBrowseHome,
		PermissionViewMemories,
		PermissionCreateMemory,
		PermissionEditMemory,
		PermissionDeleteMemory,
		PermissionUploadPhoto,
		PermissionDownloadPhoto,
		PermissionEditProfile,
		PermissionViewAlbum,
	},
	RoleGuest: {
		PermissionBrowseHome,
		PermissionViewMemories,
		PermissionViewAlbum,
	},
}

// Seed creates the default roles, the initial admin account, navigation
// menus and a sample gallery. Idempotent; safe on every startup.
func Seed(adminPassword string) error {
	for _, name := range []string{RoleAdmin, RoleUser, RoleGuest} {
		role := Role{
			Name:        name,
			Description: name + " role in the Family Memories app",
			Permissions: defaultRolePermissions[name],
		}
		err := db.Instance.Where("name = ?", name).FirstOrCreate(&role).Error
		if err != nil {
			return err
		}
	}
	admin, err := seedAdminUser(adminPassword)
	if err != nil {
		return err
	}
	if err := seedMenus(); err != nil {
		return err
	}
	return seedMemories(admin)
}

func seedAdminUser(password string) (User, error) {
	var admin User
	err := db.Instance.Preload("Roles").First(&admin, "name = ?", "admin").Error
	if err == nil {
		return admin, nil
	}
	if err != gorm.ErrRecordNotFound {
		return User{}, err
	}
	adminRole, err := RoleByName(RoleAdmin)
	if err != nil {
		return User{}, err
	}
	userRole, err := RoleByName(RoleUser)
	if err != nil {
		return User{}, err
	}
	admin, err = UserCreate("admin", "admin@family.local", "Administrator", password, adminRole, userRole)
	if err != nil {
		return User{}, err
	}
	logrus.WithField("user", admin.Name).Info("seeded initial admin account")
	return admin, nil
}

func seedMenus() error {
	var count int64
	if err := db.Instance.Model(&Menu{}).Count(&count).Error; err != nil || count > 0 {
		return err
	}
	menus := []Menu{
		{Title: "Home", URL: "/", SortOrder: 1, Active: true},
		{Title: "Gallery", URL: "/#gallery", SortOrder: 2, Active: true},
		{Title: "Admin", URL: "/admin/users", SortOrder: 3, Active: true},
	}
	if err := db.Instance.Create(&menus).Error; err != nil {
		return err
	}
	adminID := menus[2].ID
	children := []Menu{
		{Title: "Users", URL: "/admin/users", ParentID: &adminID, SortOrder: 1, Active: true},
		{Title: "Roles", URL: "/admin/roles", ParentID: &adminID, SortOrder: 2, Active: true},
		{Title: "Menus", URL: "/admin/menus", ParentID: &adminID, SortOrder: 3, Active: true},
	}
	return db.Instance.Create(&children).Error
}

func seedMemories(owner User) error {
	var count int64
	if err := db.Instance.Model(&Memory{}).Count(&count).Error; err != nil || count > 0 {
		return err
	}
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	samples := []Memory{
		{Title: "Family dinner", Description: "A lovely evening together", Date: date(2024, 1, 15), ImageRef: "https://picsum.photos/seed/familydinner/800/600", UserID: owner.ID},
		{Title: "Beach vacation", Description: "Sun, sand and waves", Date: date(2023, 7, 20), ImageRef: "https://picsum.photos/seed/beachvacation/800/600", UserID: owner.ID},
		{Title: "Birthday party", Description: "A happy celebration", Date: date(2024, 3, 10), ImageRef: "https://picsum.photos/seed/birthdayparty/800/600", UserID: owner.ID},
		{Title: "Hiking trip", Description: "Views from the summit", Date: date(2023, 10, 5), ImageRef: "https://picsum.photos/seed/hikingtrip/800/600", UserID: owner.ID},
		{Title: "Christmas", Description: "A cozy Christmas eve", Date: date(2023, 12, 25), ImageRef: "https://picsum.photos/seed/christmas/800/600", UserID: owner.ID},
		{Title: "Picnic in the park", Description: "A lazy sunny afternoon", Date: date(2024, 4, 1), ImageRef: "https://picsum.photos/seed/picnic/800/600", UserID: owner.ID},
	}
	return db.Instance.Create(&samples).Error
}
