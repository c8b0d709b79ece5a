package user

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rohitkumar-vc/lifequest-backend/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   model.UserID `json:"user_id"`
	Username string       `json:"username"`
	jwt.RegisteredClaims
}

func generateToken(secret []byte, u User, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID:   u.ID,
		Username: u.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "lifequest-backend",
			Subject:   u.Username,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
