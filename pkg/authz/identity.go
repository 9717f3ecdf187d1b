package authz

import (
	"context"
	"net/http"
)

// identityCtxKey is an unexported type used as the context key for Identity.
type identityCtxKey struct{}

// WithIdentity returns a new context with the given Identity attached.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, id)
}

// IdentityFromContext retrieves the Identity from the context.
// Returns the zero value and false if no identity is set.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityCtxKey{}).(Identity)
	return id, ok
}

// RoleExtractor selects the role of a request.
type RoleExtractor func(r *http.Request) Role

// HeaderRoleExtractor reads X-User-Role. A missing or unknown value selects
// the administrator, which is what the admin console starts with.
func HeaderRoleExtractor() RoleExtractor {
	return func(r *http.Request) Role {
		if role, ok := ParseRole(r.Header.Get("X-User-Role")); ok {
			return role
		}
		return RoleAdmin
	}
}

// IdentityMiddleware resolves the role of each request with extract and
// stores the matching fixed identity in the request context.
func IdentityMiddleware(extract RoleExtractor) func(http.Handler) http.Handler {
	if extract == nil {
		extract = HeaderRoleExtractor()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := IdentityFor(extract(r))
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
