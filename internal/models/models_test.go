package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingOwnedBy(t *testing.T) {
	owner := uuid.New()
	listing := &Listing{OwnerID: &owner}

	assert.True(t, listing.OwnedBy(owner))
	assert.False(t, listing.OwnedBy(uuid.New()))

	legacy := &Listing{}
	assert.False(t, legacy.OwnedBy(owner))
	assert.False(t, legacy.OwnedBy(uuid.Nil))
}

func TestListingCloneDoesNotShareOwner(t *testing.T) {
	owner := uuid.New()
	original := &Listing{Title: "Desk lamp", OwnerID: &owner}

	clone := original.Clone()
	*clone.OwnerID = uuid.New()
	clone.Title = "Chair"

	assert.Equal(t, owner, *original.OwnerID)
	assert.Equal(t, "Desk lamp", original.Title)
}

func TestUserPassword(t *testing.T) {
	u := &User{}
	require.NoError(t, u.SetPassword("correct horse"))

	assert.NotEqual(t, "correct horse", u.PasswordHash)
	assert.NoError(t, u.CheckPassword("correct horse"))
	assert.Error(t, u.CheckPassword("battery staple"))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ana@campus.edu", NormalizeEmail("  Ana@Campus.EDU "))
}

func TestEnums(t *testing.T) {
	assert.True(t, ConditionNew.Valid())
	assert.True(t, ConditionUsed.Valid())
	assert.False(t, Condition("Broken").Valid())
	assert.True(t, ThemeDark.Valid())
	assert.False(t, Theme("sepia").Valid())
}
