package utils

import (
	"context"
	"testing"
	"time"

	"bloodsync/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTVerifier_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	caller := models.Caller{UserID: "u1", Email: "u1@example.com", Role: models.RoleAdmin}

	token, err := GenerateToken(secret, caller, time.Hour)
	require.NoError(t, err)

	v := &JWTVerifier{Secret: secret}
	got, exp, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, caller, *got)
	assert.Greater(t, exp, time.Now().Unix())

	_, _, err = (&JWTVerifier{Secret: []byte("other")}).Verify(context.Background(), token)
	assert.Error(t, err)

	expired, err := GenerateToken(secret, caller, -time.Minute)
	require.NoError(t, err)
	_, _, err = v.Verify(context.Background(), expired)
	assert.Error(t, err)

	_, _, err = (&JWTVerifier{}).Verify(context.Background(), token)
	assert.Error(t, err)
}

func TestAppError_IsMatchesCode(t *testing.T) {
	base := NewAppError(CodeNotFound, "missing")
	other := NewAppError(CodeNotFound, "another message")

	assert.ErrorIs(t, base.Withf("offer %s", "x"), base)
	assert.ErrorIs(t, other, base)
	assert.NotErrorIs(t, NewAppError(CodeForbidden, "no"), base)
}
