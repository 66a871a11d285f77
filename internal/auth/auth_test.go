package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func TestIssueAndVerify(t *testing.T) {
	iss, err := NewIssuer(secret, time.Hour)
	require.NoError(t, err)
	ver, err := NewVerifier(secret)
	require.NoError(t, err)

	token, err := iss.Issue("ops@batipro.fr", RoleAdmin)
	require.NoError(t, err)

	claims, err := ver.VerifyAdmin(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@batipro.fr", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestVerify_Rejections(t *testing.T) {
	iss, _ := NewIssuer(secret, time.Hour)
	ver, _ := NewVerifier(secret)

	customer, _ := iss.Issue("a@b.fr", "customer")
	_, err := ver.VerifyAdmin(customer)
	assert.ErrorIs(t, err, ErrForbidden)

	other, _ := NewIssuer("ffffffffffffffffffffffffffffffff", time.Hour)
	forged, _ := other.Issue("x", RoleAdmin)
	_, err = ver.VerifyAdmin(forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ver.VerifyAdmin("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _ := iss.Issue("ops", RoleAdmin)
	_, err = ver.VerifyAdmin(expired)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	ver, _ := NewVerifier(secret)
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	_, err = ver.VerifyAdmin(s)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestSecretLength(t *testing.T) {
	_, err := NewIssuer("short", time.Hour)
	assert.ErrorIs(t, err, ErrSecretTooShort)
	_, err = NewVerifier("short")
	assert.ErrorIs(t, err, ErrSecretTooShort)
}
