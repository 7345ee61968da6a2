package oauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

const stateTTL = 15 * time.Minute

var ErrInvalidState = errors.New("oauth: invalid state")

type stateClaims struct {
	OwnerID string `json:"owner_id,omitempty"`
	jwt.StandardClaims
}

// signState issues the consent-flow state parameter carrying ownerID.
func signState(secret []byte, ownerID string, now time.Time) (string, error) {
	claims := stateClaims{
		OwnerID: ownerID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(stateTTL).Unix(),
			Issuer:    "blueridge",
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// parseState validates the signature and expiry and returns the owner.
func parseState(secret []byte, raw string) (string, error) {
	var claims stateClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if !token.Valid {
		return "", ErrInvalidState
	}
	return claims.OwnerID, nil
}
