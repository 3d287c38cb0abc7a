package models

import (
	"path/filepath"
	"testing"

	"memories/db"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	db.SetInstanceForTest(gdb)
	require.NoError(t, Init())
	require.NoError(t, Seed("a123456"))
}

func TestUserLogin(t *testing.T) {
	setupTestDB(t)
	userRole, err := RoleByName(RoleUser)
	require.NoError(t, err)
	_, err = UserCreate("alice", "alice@family.local", "Alice", "secret1", userRole)
	require.NoError(t, err)

	u, ok := UserLogin("alice", "secret1")
	assert.True(t, ok)
	assert.Equal(t, "alice", u.Name)

	_, ok = UserLogin("alice", "wrong")
	assert.False(t, ok)

	_, ok = UserLogin("nobody", "secret1")
	assert.False(t, ok)

	require.NoError(t, db.Instance.Model(&u).Update("active", false).Error)
	_, ok = UserLogin("alice", "secret1")
	assert.False(t, ok, "inactive accounts must not sign in")
}

func TestEffectivePermissions(t *testing.T) {
	setupTestDB(t)
	userRole, err := RoleByName(RoleUser)
	require.NoError(t, err)
	alice, err := UserCreate("alice", "", "Alice", "secret1", userRole)
	require.NoError(t, err)

	assert.True(t, alice.HasPermission(PermissionCreateMemory))
	assert.False(t, alice.HasPermission(PermissionManageMemoriesBackoffice))

	// Individually granted permissions are unioned on top of roles
	require.NoError(t, db.Instance.Model(&alice).
		Update("permissions", PermissionList{PermissionManageMemoriesBackoffice}).Error)
	alice, err = UserByID(alice.ID)
	require.NoError(t, err)
	assert.True(t, alice.HasPermission(PermissionManageMemoriesBackoffice))

	effective := alice.EffectivePermissions()
	seen := map[Permission]int{}
	for _, p := range effective {
		seen[p]++
	}
	for p, n := range seen {
		assert.Equal(t, 1, n, "permission %s duplicated", p)
	}
}

func TestPermissionColumnNormalization(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, db.Instance.Exec(
		"insert into users (created_at, updated_at, name, email, full_name, password, active, permissions) "+
			"values (CURRENT_TIMESTAMP, CURRENT_TIMESTAMP, 'legacy', '', '', '', 1, null)").Error)

	require.NoError(t, Init())

	var legacy User
	require.NoError(t, db.Instance.First(&legacy, "name = ?", "legacy").Error)
	assert.NotNil(t, legacy.Permissions)
	assert.Empty(t, legacy.Permissions)
}

func TestUserDeleteGuards(t *testing.T) {
	setupTestDB(t)
	var admin User
	require.NoError(t, db.Instance.Preload("Roles").First(&admin, "name = ?", "admin").Error)

	// The only admin cannot be removed, not even by another admin
	assert.ErrorIs(t, UserDelete(&admin, nil), ErrLastAdmin)

	// Nobody deletes their own account
	assert.ErrorIs(t, UserDelete(&admin, &admin), ErrSelfDelete)

	adminRole, err := RoleByName(RoleAdmin)
	require.NoError(t, err)
	second, err := UserCreate("admin2", "", "Second Admin", "secret1", adminRole)
	require.NoError(t, err)

	count, err := AdminCount()
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	// With two admins, deleting one is fine again
	require.NoError(t, UserDelete(&second, &admin))
	count, err = AdminCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestSeedIsIdempotent(t *testing.T) {
	setupTestDB(t)
	require.NoError(t, Seed("a123456"))

	var roles int64
	require.NoError(t, db.Instance.Model(&Role{}).Count(&roles).Error)
	assert.EqualValues(t, 3, roles)

	var admins int64
	require.NoError(t, db.Instance.Model(&User{}).Where("name = ?", "admin").Count(&admins).Error)
	assert.EqualValues(t, 1, admins)
}
