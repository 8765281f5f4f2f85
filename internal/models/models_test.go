package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("").Valid())
	assert.False(t, Role("root").Valid())
}

func TestImageOwnedBy(t *testing.T) {
	img := &Image{UploadedBy: "u1"}
	assert.True(t, img.OwnedBy("u1"))
	assert.False(t, img.OwnedBy("u2"))
	assert.False(t, (&Image{}).OwnedBy(""))
}

func TestUserJSONHidesPasswordHash(t *testing.T) {
	out, err := json.Marshal(User{ID: "1", Username: "alice", PasswordHash: "$2a$10$secret", Role: RoleUser})
	require.NoError(t, err)

	assert.NotContains(t, string(out), "secret")
	assert.NotContains(t, string(out), "password")
	assert.Contains(t, string(out), `"role":"user"`)
}
