// Package auth issues and verifies access tokens and hashes passwords.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/sealdrop/internal/common"
	"github.com/dmitrijs2005/sealdrop/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the caller identity inside an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID string      `json:"uid"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

// Identity is the authenticated caller as seen by services.
type Identity struct {
	UserID string
	Email  string
	Role   models.Role
}

func GenerateToken(id Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   id.UserID,
		},
		UserID: id.UserID,
		Email:  id.Email,
		Role:   id.Role,
	})

	return token.SignedString(secretKey)
}

// ParseToken verifies tokenString and returns the identity it carries.
// Expired tokens yield common.ErrTokenExpired, anything else that does not
// verify yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (*Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, common.ErrInvalidToken
	}

	return &Identity{UserID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
