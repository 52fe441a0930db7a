package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:       "test-secret",
		AccessTokenExp:  time.Hour,
		RefreshTokenExp: 24 * time.Hour,
		TokenIssuer:     "schoolsphere-test",
	})
}

func TestGenerateAndValidate(t *testing.T) {
	svc := newTestService()

	pair, err := svc.GenerateTokenPair(Subject{UserID: 7, Username: "jdoe", Role: "teacher", Schema: "school_green"})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, 3600, pair.ExpiresIn)
	assert.Equal(t, 86400, pair.RefreshExpiresIn)

	claims, err := svc.ValidateAndExtractClaims(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(7), claims.UserID)
	assert.Equal(t, "teacher", claims.Role)
	assert.Equal(t, "school_green", claims.Schema)
	assert.Equal(t, "schoolsphere-test", claims.Issuer)
}

func TestValidateExpired(t *testing.T) {
	svc := newTestService()
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.GenerateAccessToken(Subject{UserID: 1, Role: "student"})
	require.NoError(t, err)

	svc.now = time.Now
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := newTestService().GenerateAccessToken(Subject{UserID: 1, Role: "student"})
	require.NoError(t, err)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour})
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		err    error
	}{
		{"Bearer abc.def", "abc.def", nil},
		{"bearer abc.def", "abc.def", nil},
		{"abc.def", "abc.def", nil},
		{"", "", ErrInvalidFormat},
	}
	for _, tt := range tests {
		got, err := ExtractBearerToken(tt.header)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.err, err)
	}
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("s3cretpass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "s3cretpass"))
	assert.False(t, CheckPassword(hash, "wrong"))

	pw, err := GeneratePassword(12)
	require.NoError(t, err)
	assert.Len(t, pw, 12)
	assert.Regexp(t, `^[a-zA-Z0-9]{12}$`, pw)
}
