package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionListScan(t *testing.T) {
	var l PermissionList
	require.NoError(t, l.Scan(nil))
	assert.NotNil(t, l)
	assert.Empty(t, l)

	require.NoError(t, l.Scan(""))
	assert.Empty(t, l)

	require.NoError(t, l.Scan("null"))
	assert.Empty(t, l)

	require.NoError(t, l.Scan(`["view-memories","create-memory"]`))
	assert.Equal(t, PermissionList{PermissionViewMemories, PermissionCreateMemory}, l)

	require.NoError(t, l.Scan([]byte(`["browse-home"]`)))
	assert.Equal(t, PermissionList{PermissionBrowseHome}, l)

	assert.Error(t, l.Scan(42))
}

func TestPermissionListValue(t *testing.T) {
	var nilList PermissionList
	v, err := nilList.Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = PermissionList{PermissionEditMemory}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["edit-memory"]`, v)
}

func TestPermissionListUnion(t *testing.T) {
	a := PermissionList{PermissionViewMemories, PermissionCreateMemory}
	b := PermissionList{PermissionCreateMemory, PermissionEditMemory}
	assert.Equal(t,
		PermissionList{PermissionViewMemories, PermissionCreateMemory, PermissionEditMemory},
		a.Union(b))

	assert.Empty(t, PermissionList{}.Union(PermissionList{}))
	assert.Equal(t, a, a.Union(nil))
}

func TestParsePermissions(t *testing.T) {
	l, err := ParsePermissions([]string{"view-memories", "view-memories", "edit-profile"})
	require.NoError(t, err)
	assert.Equal(t, PermissionList{PermissionViewMemories, PermissionEditProfile}, l)

	_, err = ParsePermissions([]string{"view-memories", "rm-rf-everything"})
	assert.ErrorContains(t, err, "rm-rf-everything")

	l, err = ParsePermissions(nil)
	require.NoError(t, err)
	assert.Empty(t, l)
}
