package service

import (
	"testing"
	"time"

	"relief-fund-gateway/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret-key-at-least-32-chars-long"

func TestJWTTokenService_GenerateAndValidate(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "relief-fund-gateway")

	accountID := uuid.New()
	tokenString, expiresAt, err := svc.Generate(accountID, domain.RoleDonor)
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := svc.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.AccountID)
	assert.Equal(t, domain.RoleDonor, claims.Role)
}

func TestJWTTokenService_ExpiredToken(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, -time.Hour, "relief-fund-gateway")

	tokenString, _, err := svc.Generate(uuid.New(), domain.RoleOrganizer)
	require.NoError(t, err)

	_, err = svc.Validate(tokenString)
	assert.Error(t, err, "expired token should fail validation")
}

func TestJWTTokenService_InvalidSignature(t *testing.T) {
	svc1 := NewJWTTokenService(testJWTSecret, time.Hour, "relief-fund-gateway")
	svc2 := NewJWTTokenService("a-completely-different-secret-value", time.Hour, "relief-fund-gateway")

	tokenString, _, err := svc1.Generate(uuid.New(), domain.RoleDonor)
	require.NoError(t, err)

	_, err = svc2.Validate(tokenString)
	assert.Error(t, err, "token signed with a different secret should fail")
}

func TestJWTTokenService_InvalidTokenString(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "relief-fund-gateway")

	_, err := svc.Validate("not.a.token")
	assert.Error(t, err)
}

func TestJWTTokenService_EmptyToken(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "relief-fund-gateway")

	_, err := svc.Validate("")
	assert.Error(t, err)
}

func TestJWTTokenService_UnknownRoleRejected(t *testing.T) {
	svc := NewJWTTokenService(testJWTSecret, time.Hour, "relief-fund-gateway")

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": "SUPERUSER",
		"iat":  now.Unix(),
		"exp":  now.Add(time.Hour).Unix(),
		"iss":  "relief-fund-gateway",
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	require.NoError(t, err)

	_, err = svc.Validate(tokenString)
	assert.Error(t, err, "token with an unrecognized role should fail")
}
