package authz

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the bearer-token role extractor.
type JWTConfig struct {
	// RoleClaim is the claim holding the role. Dot-notation selects nested
	// claims (e.g. "realm_access.roles"). Default: "role".
	RoleClaim string

	// Secret is the HMAC key used to verify tokens. When empty, tokens are
	// parsed without verification (trusted proxy mode).
	Secret string

	// Issuer, when set, must match the iss claim.
	Issuer string

	Logger *slog.Logger
}

// NewJWTRoleExtractor returns a RoleExtractor that reads the role from the
// "Authorization: Bearer" token. Missing, invalid or unrecognized tokens
// resolve to the auctioneer, the less privileged role.
func NewJWTRoleExtractor(cfg JWTConfig) RoleExtractor {
	if cfg.RoleClaim == "" {
		cfg.RoleClaim = "role"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Secret == "" {
		cfg.Logger.Warn("JWT role extractor: no secret configured, tokens parsed without verification (trusted proxy mode)")
	}

	return func(r *http.Request) Role {
		token := extractBearerToken(r)
		if token == "" {
			return RoleAuctioneer
		}
		claims, err := parseClaims(token, cfg)
		if err != nil {
			cfg.Logger.Debug("JWT parse failed, defaulting to auctioneer", "error", err)
			return RoleAuctioneer
		}
		return roleFromClaims(claims, cfg.RoleClaim)
	}
}

// extractBearerToken extracts the token from "Authorization: Bearer <token>".
func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parseClaims(tokenString string, cfg JWTConfig) (jwt.MapClaims, error) {
	var opts []jwt.ParserOption
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	var (
		token *jwt.Token
		err   error
	)
	if cfg.Secret != "" {
		token, err = jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		}, opts...)
	} else {
		token, _, err = jwt.NewParser(opts...).ParseUnverified(tokenString, jwt.MapClaims{})
	}
	if err != nil {
		return nil, fmt.Errorf("JWT parse error: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("unexpected claims type")
	}
	return claims, nil
}

// roleFromClaims walks claimPath and returns admin when the value (or any
// element of an array value) is "admin".
func roleFromClaims(claims jwt.MapClaims, claimPath string) Role {
	var current any = map[string]any(claims)
	for _, part := range strings.Split(claimPath, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return RoleAuctioneer
		}
		if current, ok = m[part]; !ok {
			return RoleAuctioneer
		}
	}

	switch v := current.(type) {
	case string:
		if role, ok := ParseRole(v); ok {
			return role
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				if role, ok := ParseRole(s); ok && role == RoleAdmin {
					return RoleAdmin
				}
			}
		}
	}
	return RoleAuctioneer
}
