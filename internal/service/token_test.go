package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/handymanapp/handyman-backend/internal/models"
)

func TestTokenManager_GenerateAndParse(t *testing.T) {
	tokens := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)
	subjectID := uuid.New()

	pair, _, _, err := tokens.GeneratePair(subjectID, models.RoleProvider)
	assert.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	parsedID, role, err := tokens.ParseAccess(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, subjectID, parsedID)
	assert.Equal(t, models.RoleProvider, role)

	parsedID, role, err = tokens.ParseRefresh(pair.RefreshToken)
	assert.NoError(t, err)
	assert.Equal(t, subjectID, parsedID)
	assert.Equal(t, models.RoleProvider, role)
}

func TestTokenManager_CrossSecretRejected(t *testing.T) {
	tokens := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	pair, _, _, err := tokens.GeneratePair(uuid.New(), models.RoleUser)
	assert.NoError(t, err)

	// Access токен не проходит проверку как refresh и наоборот
	_, _, err = tokens.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)

	_, _, err = tokens.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
}

func TestTokenManager_ExpiredTokenRejected(t *testing.T) {
	tokens := NewTokenManager("access-secret", "refresh-secret", -time.Minute, 24*time.Hour)

	pair, _, _, err := tokens.GeneratePair(uuid.New(), models.RoleUser)
	assert.NoError(t, err)

	_, _, err = tokens.ParseAccess(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenManager_GarbageRejected(t *testing.T) {
	tokens := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour)

	_, _, err := tokens.ParseAccess("not.a.token")
	assert.Error(t, err)
}
