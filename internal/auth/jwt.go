package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hemloft/storefront/pkg/middleware"
)

// Claims are the JWT claims issued by the identity provider for a shopper
// session. The storefront only validates tokens; issuing them is the identity
// provider's job.
type Claims struct {
	ShopperID string `json:"shopper_id"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// Verifier validates identity-provider session tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a verifier for tokens signed with the shared secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Validate parses and validates a session token, returning its claims.
func (v *Verifier) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims")
	}

	return claims, nil
}

// TokenValidator adapts the verifier to the middleware's validation hook.
func (v *Verifier) TokenValidator() middleware.TokenValidator {
	return func(tokenString string) (*middleware.Claims, error) {
		claims, err := v.Validate(tokenString)
		if err != nil {
			return nil, err
		}
		return &middleware.Claims{
			ShopperID: claims.ShopperID,
			Email:     claims.Email,
		}, nil
	}
}
