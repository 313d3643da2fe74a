package testutil

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"testing"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/qolzam/imagehost/internal/types"
	"github.com/qolzam/imagehost/internal/utils"
	"github.com/stretchr/testify/require"
)

// GenerateTestJWT creates a test JWT token for testing purposes
func GenerateTestJWT(privateKeyPEM string, userCtx types.UserContext) (string, error) {
	claims := utils.TokenClaims{
		Claim: map[string]interface{}{
			types.HeaderUID: userCtx.UserID.String(),
			"username":      userCtx.Username,
			"displayName":   userCtx.DisplayName,
			"role":          userCtx.SystemRole,
			"createdDate":   userCtx.CreatedDate,
		},
	}

	// Generate token with 1 hour expiration
	token, err := utils.GenerateJWTToken([]byte(privateKeyPEM), claims, 1)
	if err != nil {
		return "", fmt.Errorf("failed to generate test JWT: %w", err)
	}

	return token, nil
}

// MustJWT is GenerateTestJWT that fails the test on error
func MustJWT(t *testing.T, privateKeyPEM string, userCtx types.UserContext) string {
	t.Helper()
	token, err := GenerateTestJWT(privateKeyPEM, userCtx)
	require.NoError(t, err)
	return token
}

// GenerateECDSAKeyPairPEM generates valid ECDSA key pairs for testing.
// Returns (publicKeyPEM, privateKeyPEM) as strings.
func GenerateECDSAKeyPairPEM(t *testing.T) (string, string) {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err, "Failed to generate ECDSA private key")

	privBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	require.NoError(t, err, "Failed to marshal ECDSA private key")
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privBytes})

	pubBytes, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err, "Failed to marshal ECDSA public key")
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubBytes})

	return string(pubPEM), string(privPEM)
}

// CreateTestUserContext builds a UserContext with a fresh id and the given role
func CreateTestUserContext(t *testing.T, role string) types.UserContext {
	t.Helper()
	id, err := uuid.NewV4()
	require.NoError(t, err)
	return types.UserContext{
		UserID:      id,
		Username:    id.String()[:8] + "@example.com",
		DisplayName: "Tester",
		SystemRole:  role,
		CreatedDate: time.Now().Unix(),
	}
}
