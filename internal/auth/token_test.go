package auth

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-eventpay/internal/models"
)

func TestIssueAndVerifyToken(t *testing.T) {
	user := models.User{
		ID:       "user_1",
		Username: "alice",
		Email:    "alice@example.com",
		Role:     "Customer",
	}

	token, err := IssueToken(user, "test-secret", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := VerifyToken(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "user_1", claims.ID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "Customer", claims.Role)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(models.User{ID: "user_1"}, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, "other-secret")
	assert.Error(t, err)
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	token, err := IssueToken(models.User{ID: "user_1"}, "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = VerifyToken(token, "test-secret")
	assert.Error(t, err)
}

func TestVerifyTokenRejectsNonHMAC(t *testing.T) {
	// alg=none tokens must never verify, whatever the payload says.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "user_1"})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = VerifyToken(token, "test-secret")
	assert.Error(t, err)
}

func TestVerifyTokenRejectsMissingSubject(t *testing.T) {
	token, err := IssueToken(models.User{Username: "ghost"}, "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = VerifyToken(token, "test-secret")
	assert.Error(t, err)
}

func TestExtractTokenFromRequest(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "/tickets", nil)
	r.Header.Set("Authorization", "Bearer abc.def.ghi")

	token, err := ExtractTokenFromRequest(r)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	r.Header.Set("Authorization", "Token abc")
	_, err = ExtractTokenFromRequest(r)
	assert.Error(t, err)

	r.Header.Del("Authorization")
	_, err = ExtractTokenFromRequest(r)
	assert.Error(t, err)
}
