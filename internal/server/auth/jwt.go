// Package auth issues and verifies the HS256 access tokens presented to the
// ledger service.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/stakeledger/internal/common"
)

// Claims carries the holder identity in Subject and its role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// Identity is the verified content of a token.
type Identity struct {
	Subject string
	Role    string
}

func (i Identity) Admin() bool { return i.Role == common.RoleAdmin }

func GenerateToken(subject, role string, secretKey []byte, validityDuration time.Duration) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("empty subject: %w", common.ErrInvalidToken)
	}
	if role != common.RoleHolder && role != common.RoleAdmin {
		return "", fmt.Errorf("unknown role %q: %w", role, common.ErrInvalidToken)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: role,
	})

	return token.SignedString(secretKey)
}

func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.Subject == "" {
		return Identity{}, common.ErrInvalidToken
	}
	if claims.Role != common.RoleHolder && claims.Role != common.RoleAdmin {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{Subject: claims.Subject, Role: claims.Role}, nil
}
