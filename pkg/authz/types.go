// Package authz provides the role switch used by the SIGEL server. There are
// two fixed identities, an administrator and an auctioneer; the active one is
// selected per request from a header or a bearer token. It is not a security
// boundary.
package authz

import "strings"

// Role is the coarse permission level of a user.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAuctioneer Role = "auctioneer"
)

// ParseRole maps a header or claim value to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleAuctioneer:
		return RoleAuctioneer, true
	default:
		return "", false
	}
}

// Identity is the user acting on a request.
type Identity struct {
	ID    string `json:"id"`
	Nome  string `json:"nome"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

var (
	// Admin is the administrator identity.
	Admin = Identity{ID: "u1", Nome: "Administrador", Email: "admin@sigel.gov.br", Role: RoleAdmin}
	// Auctioneer is the auctioneer identity.
	Auctioneer = Identity{ID: "u2", Nome: "Leiloeiro", Email: "leiloeiro@sigel.gov.br", Role: RoleAuctioneer}
)

// IdentityFor returns the fixed identity of a role.
func IdentityFor(role Role) Identity {
	if role == RoleAuctioneer {
		return Auctioneer
	}
	return Admin
}
