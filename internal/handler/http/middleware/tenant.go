package middleware

import (
	"context"
	"net/http"

	"github.com/gaushala-erp/payroll-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const (
	tenantIDKey contextKey = "tenant_id"
	userIDKey   contextKey = "user_id"
)

// RequireTenant copies the caller's tenant and user ids from the token claims
// into the request context. A token without a user is unauthorized; one
// without a tenant is forbidden.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		tenantID, ok := claims["tenant_id"].(string)
		if !ok || tenantID == "" {
			response.Forbidden(w, "Tenant context required")
			return
		}
		userID, ok := claims["user_id"].(string)
		if !ok || userID == "" {
			response.Unauthorized(w, "User identity required")
			return
		}

		ctx := context.WithValue(r.Context(), tenantIDKey, tenantID)
		ctx = context.WithValue(ctx, userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func TenantIDFromContext(ctx context.Context) string {
	tenantID, _ := ctx.Value(tenantIDKey).(string)
	return tenantID
}

func UserIDFromContext(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}
