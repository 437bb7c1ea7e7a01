package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storehaus/gatekeeper/internal/auth"
)

const (
	testSecret   = "test-secret-at-least-32-bytes-long!!"
	testIssuer   = "https://auth.storehaus.test"
	testAudience = "authenticated"
)

func signToken(t *testing.T, claims auth.Claims, method jwt.SigningMethod, key any) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func validClaims(userID uuid.UUID) auth.Claims {
	return auth.Claims{
		Email:     "renter@example.com",
		SessionID: "sess-123",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    testIssuer,
			Audience:  jwt.ClaimStrings{testAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestVerify_Valid(t *testing.T) {
	v := auth.NewVerifier(testSecret, testIssuer, testAudience)
	userID := uuid.New()
	claims := validClaims(userID)

	identity, err := v.Verify(signToken(t, claims, jwt.SigningMethodHS256, []byte(testSecret)))
	require.NoError(t, err)

	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, "renter@example.com", identity.EmailOrPhone)
	assert.Equal(t, "sess-123", identity.SessionToken)
	assert.WithinDuration(t, claims.ExpiresAt.Time, identity.ExpiresAt, time.Second)
	assert.False(t, identity.Expired(time.Now()))
}

func TestVerify_PhoneAndFingerprint(t *testing.T) {
	v := auth.NewVerifier(testSecret, "", "")
	claims := validClaims(uuid.New())
	claims.Email = ""
	claims.Phone = "+15551234567"
	claims.SessionID = ""
	raw := signToken(t, claims, jwt.SigningMethodHS256, []byte(testSecret))

	identity, err := v.Verify(raw)
	require.NoError(t, err)

	assert.Equal(t, "+15551234567", identity.EmailOrPhone)
	assert.Equal(t, auth.Fingerprint(raw), identity.SessionToken)
	assert.NotEqual(t, raw, identity.SessionToken, "raw token must not be used as a session key")
	assert.Len(t, identity.SessionToken, 64)
}

func TestVerify_Rejections(t *testing.T) {
	v := auth.NewVerifier(testSecret, testIssuer, testAudience)

	expired := validClaims(uuid.New())
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims(uuid.New())
	noExpiry.ExpiresAt = nil

	wrongIssuer := validClaims(uuid.New())
	wrongIssuer.Issuer = "https://elsewhere.test"

	wrongAudience := validClaims(uuid.New())
	wrongAudience.Audience = jwt.ClaimStrings{"service_role"}

	badSubject := validClaims(uuid.New())
	badSubject.Subject = "not-a-uuid"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.jwt"},
		{"expired", signToken(t, expired, jwt.SigningMethodHS256, []byte(testSecret))},
		{"no expiry", signToken(t, noExpiry, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong secret", signToken(t, validClaims(uuid.New()), jwt.SigningMethodHS256, []byte("another-secret-that-is-long-enough"))},
		{"wrong algorithm", signToken(t, validClaims(uuid.New()), jwt.SigningMethodHS512, []byte(testSecret))},
		{"wrong issuer", signToken(t, wrongIssuer, jwt.SigningMethodHS256, []byte(testSecret))},
		{"wrong audience", signToken(t, wrongAudience, jwt.SigningMethodHS256, []byte(testSecret))},
		{"subject not a user id", signToken(t, badSubject, jwt.SigningMethodHS256, []byte(testSecret))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity, err := v.Verify(tt.token)
			assert.Nil(t, identity)
			assert.True(t, errors.Is(err, auth.ErrInvalidToken), "got %v", err)
		})
	}
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc.def.ghi", auth.BearerToken("Bearer abc.def.ghi"))
	assert.Equal(t, "abc.def.ghi", auth.BearerToken("bearer   abc.def.ghi "))
	assert.Equal(t, "", auth.BearerToken("Basic dXNlcjpwYXNz"))
	assert.Equal(t, "", auth.BearerToken("Bearer "))
	assert.Equal(t, "", auth.BearerToken(""))
}

func TestIdentity_Expired(t *testing.T) {
	now := time.Now()
	assert.True(t, (&auth.Identity{ExpiresAt: now}).Expired(now))
	assert.True(t, (&auth.Identity{ExpiresAt: now.Add(-time.Second)}).Expired(now))
	assert.False(t, (&auth.Identity{ExpiresAt: now.Add(time.Second)}).Expired(now))
	assert.False(t, (&auth.Identity{}).Expired(now), "zero expiry means the collaborator did not say")
}
