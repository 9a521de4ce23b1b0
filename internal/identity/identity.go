package identity

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of the auth token payload the collaboration layer
// cares about. The token is issued by the authentication service; this
// package never verifies it.
type Claims struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
}

// FromToken extracts claims from a JWT without verifying its signature.
//
// The values are for display, logging and local scoping only; the server
// remains the source of truth and rejects bad tokens at the handshake.
func FromToken(token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, fmt.Errorf("token is empty")
	}

	raw := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, raw); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}

	return Claims{
		UserID:   stringClaim(raw, "userId"),
		TenantID: stringClaim(raw, "tenantId"),
		Role:     stringClaim(raw, "role"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	v, ok := claims[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}
