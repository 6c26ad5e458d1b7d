package middleware

import (
	"net/http"
	"slices"

	"psych-booking-engine/internal/domain/entity"
	"psych-booking-engine/pkg/response"
)

// RequireRole admits callers whose token role is one of roleIDs. It must run after Authenticate.
func RequireRole(roleIDs ...int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}
			if !slices.Contains(roleIDs, id.RoleID) {
				response.Forbidden(w, "You don't have permission to access this resource")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

var (
	RequireAdmin                = RequireRole(entity.RoleIDAdmin)
	RequireClient               = RequireRole(entity.RoleIDClient)
	RequireClientOrPsychologist = RequireRole(entity.RoleIDClient, entity.RoleIDPsychologist)
)
