package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/example/assetdesk/internal/models"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	u := &models.User{ID: 7, Username: "tom", FullName: "Tom Tech", Role: models.RoleTechnician}

	token, err := svc.Issue(u)
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "tom", claims.Username)
	assert.Equal(t, models.RoleTechnician, claims.Role)
	assert.Equal(t, "Tom Tech", claims.FullName)
}

func TestTokenService_RejectsExpiredAndForeignTokens(t *testing.T) {
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	svc := NewTokenService("secret", 8*time.Hour)
	svc.now = func() time.Time { return issued }

	token, err := svc.Issue(&models.User{ID: 1, Username: "a", Role: models.RoleUser})
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(9 * time.Hour) }
	_, err = svc.Verify(token)
	assert.Error(t, err)

	svc.now = func() time.Time { return issued.Add(time.Hour) }
	_, err = NewTokenService("other", 8*time.Hour).Verify(token)
	assert.Error(t, err)

	_, err = svc.Verify("not-a-token")
	assert.Error(t, err)
}

func TestPasswordHasher(t *testing.T) {
	h := NewPasswordHasher(bcrypt.MinCost)

	hash, err := h.Hash("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter2", hash)
	assert.NoError(t, h.Verify("hunter2", hash))
	assert.Error(t, h.Verify("wrong", hash))
	assert.Error(t, h.Verify("hunter2", "not-a-hash"))
}

func TestGuard_DefaultPolicy(t *testing.T) {
	guard, err := NewDefaultGuard()
	require.NoError(t, err)

	tests := []struct {
		role     models.Role
		resource string
		action   string
		allowed  bool
	}{
		{models.RoleUser, ResourceRepair, ActionCreate, true},
		{models.RoleUser, ResourceRepair, ActionList, true},
		{models.RoleUser, ResourceRepair, ActionUpdate, false},
		{models.RoleUser, ResourceEquipment, ActionRead, true},
		{models.RoleUser, ResourceEquipment, ActionCreate, false},
		{models.RoleUser, ResourceUser, ActionList, false},
		{models.RoleTechnician, ResourceRepair, ActionUpdate, true},
		{models.RoleTechnician, ResourceRepair, ActionDelete, false},
		{models.RoleTechnician, ResourceEquipment, ActionHistory, true},
		{models.RoleTechnician, ResourceEquipment, ActionSummary, false},
		{models.RoleAdmin, ResourceRepair, ActionDelete, true},
		{models.RoleAdmin, ResourceEquipment, ActionImport, true},
		{models.RoleAdmin, ResourceUser, ActionDelete, true},
		{"guest", ResourceRepair, ActionList, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+tt.resource+"/"+tt.action, func(t *testing.T) {
			ok, err := guard.Allowed(tt.role, tt.resource, tt.action)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, ok)
		})
	}
}
