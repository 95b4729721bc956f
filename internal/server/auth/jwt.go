// Package auth implements the stateless credential primitives: signed
// access tokens (HS256) and bcrypt password hashing. Everything here is
// pure and safe for concurrent use; no storage is touched.
package auth

import (
	"errors"
	"time"

	"github.com/fortislabs/fortis/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateToken mints a signed access token whose subject is the user's
// e-mail. The token carries issued-at and expiry claims and is verifiable
// without any store lookup.
func GenerateToken(email string, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ExtractEmail verifies the token signature and expiry and returns the
// subject. Expired tokens yield common.ErrTokenExpired; any other parse or
// signature failure yields common.ErrInvalidToken.
func ExtractEmail(tokenString string, secretKey []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, common.ErrInvalidToken
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}

// IsTokenValidFor reports whether tokenString verifies and its subject
// equals email.
func IsTokenValidFor(tokenString string, secretKey []byte, email string) bool {
	subject, err := ExtractEmail(tokenString, secretKey)
	return err == nil && subject == email
}
