package http

import (
	"context"
	"net/http"
	"strings"

	pkgmw "github.com/hemloft/storefront/pkg/middleware"
)

type contextKey string

const shopperIDKey contextKey = "shopper_id"

// ShopperID resolves the shopper identity for cart and checkout routes. An
// authenticated session wins; otherwise the anonymous shopper ID minted by
// the web client is taken from the X-Shopper-ID header. Carts work without
// signing in, so a missing identity is a bad request rather than a 401.
func ShopperID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := pkgmw.ShopperIDFromContext(r.Context())
		if sid == "" {
			sid = r.Header.Get("X-Shopper-ID")
		}
		if sid == "" {
			writeJSON(w, http.StatusBadRequest, response{
				Error: &errorResponse{Code: "INVALID_INPUT", Message: "X-Shopper-ID header is required"},
			})
			return
		}
		ctx := context.WithValue(r.Context(), shopperIDKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func shopperIDFromContext(ctx context.Context) string {
	sid, _ := ctx.Value(shopperIDKey).(string)
	return sid
}

// ContentTypeJSON enforces that requests with a body are application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnsupportedMediaType)
				_, _ = w.Write([]byte(`{"error":{"code":"UNSUPPORTED_MEDIA_TYPE","message":"Content-Type must be application/json"}}`))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
