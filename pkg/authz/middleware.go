package authz

import (
	"encoding/json"
	"fmt"
	"net/http"

	mapset "github.com/deckarep/golang-set/v2"
)

// RequireRole returns middleware that lets the request through only when
// the identity in context has one of the given roles. Requests without an
// identity are denied.
func RequireRole(roles ...Role) func(http.Handler) http.Handler {
	allowed := mapset.NewSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok || !allowed.Contains(id.Role) {
				role := string(id.Role)
				if role == "" {
					role = "anonymous"
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "forbidden",
					"code":    "FORBIDDEN",
					"message": fmt.Sprintf("role %s may not %s %s", role, r.Method, r.URL.Path),
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminOnly is RequireRole(RoleAdmin).
func AdminOnly() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin)
}

// AnyRole admits both fixed identities.
func AnyRole() func(http.Handler) http.Handler {
	return RequireRole(RoleAdmin, RoleAuctioneer)
}
