package models

import (
	"errors"
	"time"

	"memories/db"

	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID          uint64 `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Name        string         `gorm:"type:varchar(100);index:uniq_user_name,unique"` // login name
	Email       string         `gorm:"type:varchar(150)"`
	FullName    string         `gorm:"type:varchar(150)"`
	Password    string         `gorm:"type:varchar(128)"` // bcrypt hash
	Active      bool           `gorm:"not null;default:true"`
	Permissions PermissionList `gorm:"type:text"` // individually granted, on top of roles
	Roles       []Role         `gorm:"many2many:user_roles;"`
	Memories    []Memory       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

var (
	ErrLastAdmin  = errors.New("at least one Admin account must remain")
	ErrSelfDelete = errors.New("cannot delete the currently signed-in account")
)

func UserCreate(name, email, fullName, plainTextPassword string, roles ...Role) (u User, err error) {
	u.Name = name
	u.Email = email
	u.FullName = fullName
	u.Active = true
	u.Permissions = PermissionList{}
	u.Roles = roles
	if err = u.SetPassword(plainTextPassword); err != nil {
		return
	}
	err = db.Instance.Create(&u).Error
	return
}

func (u *User) SetPassword(plainTextPassword string) error {
	if plainTextPassword == "" {
		return errors.New("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

func (u *User) CheckPassword(plainTextPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(plainTextPassword)) == nil
}

// UserLogin authenticates by login name. Inactive accounts cannot sign in.
func UserLogin(name, plainTextPassword string) (u User, success bool) {
	if db.Instance.Preload("Roles").First(&u, "name = ?", name).Error != nil {
		return User{}, false
	}
	if !u.Active || !u.CheckPassword(plainTextPassword) {
		return User{}, false
	}
	return u, true
}

func UserByID(id uint64) (u User, err error) {
	err = db.Instance.Preload("Roles").First(&u, id).Error
	return
}

// EffectivePermissions is the union of role-granted and individually granted
// permissions. Requires Roles to be preloaded. Never returns nil.
func (u *User) EffectivePermissions() PermissionList {
	result := PermissionList{}
	for _, role := range u.Roles {
		result = result.Union(role.Permissions)
	}
	return result.Union(u.Permissions)
}

func (u *User) HasPermission(required Permission) bool {
	return u.EffectivePermissions().Has(required)
}

func (u *User) HasPermissions(required []Permission) bool {
	effective := u.EffectivePermissions()
	for _, p := range required {
		if !effective.Has(p) {
			return false
		}
	}
	return true
}

func (u *User) IsAdmin() bool {
	for _, role := range u.Roles {
		if role.Name == RoleAdmin {
			return true
		}
	}
	return false
}

// DisplayName resolves what the gallery shows as the photo's member name.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Name != "" {
		return u.Name
	}
	return "unknown"
}

func AdminCount() (count int64, err error) {
	err = db.Instance.Table("user_roles").
		Joins("join roles on roles.id = user_roles.role_id").
		Where("roles.name = ?", RoleAdmin).
		Count(&count).Error
	return
}

// UserDelete removes an account. Deleting yourself or the last remaining
// Admin is rejected; both would leave the system unmanageable.
func UserDelete(target *User, current *User) error {
	if current != nil && target.ID == current.ID {
		return ErrSelfDelete
	}
	if target.IsAdmin() {
		admins, err := AdminCount()
		if err != nil {
			return err
		}
		if admins <= 1 {
			return ErrLastAdmin
		}
	}
	if err := db.Instance.Model(target).Association("Roles").Clear(); err != nil {
		return err
	}
	return db.Instance.Delete(target).Error
}
