package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKeyType string

const shopperIDContextKey contextKeyType = "shopper_id"

// Claims are the identity fields extracted from a validated bearer token.
type Claims struct {
	ShopperID string `json:"shopper_id"`
	Email     string `json:"email"`
}

// TokenValidator validates a bearer token and returns its claims. The actual
// validation logic is injected so the identity provider's token format stays
// out of this package.
type TokenValidator func(token string) (*Claims, error)

// OptionalAuth validates a bearer token when one is present and stores the
// shopper ID in the context. Requests without an Authorization header pass
// through untouched; carts and checkout work anonymously. A present but
// invalid token is rejected so a broken session is surfaced rather than
// silently downgraded to anonymous.
func OptionalAuth(validate TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				writeAuthError(w, "invalid authorization header format")
				return
			}

			claims, err := validate(parts[1])
			if err != nil {
				writeAuthError(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), shopperIDContextKey, claims.ShopperID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ShopperIDFromContext extracts the authenticated shopper ID, if any.
func ShopperIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(shopperIDContextKey).(string); ok {
		return id
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "UNAUTHORIZED",
		"message": message,
	})
}
