package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kazna/user-service/internal/common"
	"github.com/kazna/user-service/internal/dbx"
)

// Claims carries the standard registered claims plus the user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetUserIDFromToken verifies an HS256 token and returns its user id.
// Expired tokens yield common.ErrTokenExpired, anything else unverifiable
// yields common.ErrInvalidToken.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}

	return claims.UserID, nil
}

// JWTTokenIssuer issues stateless signed tokens. Nothing is stored, so
// Revoke cannot invalidate a token before it expires.
type JWTTokenIssuer struct {
	secretKey []byte
	validity  time.Duration
}

func NewJWTTokenIssuer(secretKey []byte, validity time.Duration) *JWTTokenIssuer {
	return &JWTTokenIssuer{secretKey: secretKey, validity: validity}
}

func (i *JWTTokenIssuer) Issue(_ context.Context, _ dbx.DBTX, userID string) (string, error) {
	return GenerateToken(userID, i.secretKey, i.validity)
}

func (i *JWTTokenIssuer) Resolve(_ context.Context, token string) (string, error) {
	return GetUserIDFromToken(token, i.secretKey)
}

func (i *JWTTokenIssuer) Revoke(context.Context, string) error { return nil }
