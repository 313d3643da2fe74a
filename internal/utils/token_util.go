package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type TokenClaims struct {
	// Meta data
	Claim interface{} `json:"claim"`

	// Inherit from registered claims
	jwt.RegisteredClaims
}

// GenerateJWTToken signs claim with ES256. A positive expireOffsetHour sets the
// exp claim when the caller has not already set one.
func GenerateJWTToken(privateKeydata []byte, claim TokenClaims, expireOffsetHour int64) (string, error) {
	privateKey, keyErr := jwt.ParseECPrivateKeyFromPEM(privateKeydata)
	if keyErr != nil {
		return "", fmt.Errorf("unable to parse private key: %w", keyErr)
	}

	now := time.Now()
	if claim.IssuedAt == nil {
		claim.IssuedAt = jwt.NewNumericDate(now)
	}
	if claim.ExpiresAt == nil && expireOffsetHour > 0 {
		claim.ExpiresAt = jwt.NewNumericDate(now.Add(time.Duration(expireOffsetHour) * time.Hour))
	}

	method := jwt.GetSigningMethod(jwt.SigningMethodES256.Name)
	return jwt.NewWithClaims(method, claim).SignedString(privateKey)
}

// ValidateToken
func ValidateToken(keydata []byte, token string) (jwt.MapClaims, error) {
	publicKey, keyErr := jwt.ParseECPublicKeyFromPEM(keydata)
	if keyErr != nil {
		return nil, keyErr
	}

	parsed, parseErr := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return publicKey, nil
	})
	if parseErr != nil {
		return nil, parseErr
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("token claim is not valid")
	}
	return claims, nil
}
