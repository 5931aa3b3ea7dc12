// Package auth signs and verifies the HS256 access tokens the record store
// accepts. Tokens are issued by the hosted auth provider with the shared
// secret; GenerateToken exists for self-hosting and tests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the standard claims plus the legacy UserID claim. The
// identity is the subject; UserID is read when sub is empty.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"UserID,omitempty"`
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies tokenString and returns the identity it names.
// Expired tokens yield common.ErrTokenExpired; anything else that fails
// verification wraps common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	id := claims.Subject
	if id == "" {
		id = claims.UserID
	}
	if id == "" {
		return "", fmt.Errorf("%w: no subject", common.ErrInvalidToken)
	}

	return id, nil
}
