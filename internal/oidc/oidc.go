// Package oidc verifies Keycloak ID tokens as an alternative admin login.
package oidc

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/banghwa/staffboard/pkg/middleware"
	"github.com/coreos/go-oidc/v3/oidc"
)

// Verifier wraps the OIDC provider and token verifier. Tokens whose realm
// roles include adminRole are given the admin capability.
type Verifier struct {
	verifier  *oidc.IDTokenVerifier
	adminRole string
}

// IssuerURL builds the Keycloak realm issuer. A URL that already names a
// realm path is used as is.
func IssuerURL(baseURL, realm string) string {
	base := strings.TrimRight(baseURL, "/")
	if realm == "" || strings.Contains(base, "/realms/") {
		return base
	}
	return base + "/realms/" + realm
}

// NewVerifier discovers the provider at issuer.
func NewVerifier(ctx context.Context, issuer, clientID, adminRole string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID}), adminRole: adminRole}, nil
}

func (v *Verifier) Verify(ctx context.Context, raw string) (middleware.Token, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	var claims map[string]interface{}
	if err := idToken.Claims(&claims); err != nil {
		return nil, err
	}
	return &claimsToken{claims: withAdminClaim(claims, v.adminRole)}, nil
}

type claimsToken struct {
	claims map[string]interface{}
}

func (t *claimsToken) Claims(v interface{}) error {
	b, err := json.Marshal(t.claims)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// withAdminClaim sets claims["admin"] from Keycloak's realm_access.roles.
// Any admin flag the token itself carries is overwritten.
func withAdminClaim(claims map[string]interface{}, role string) map[string]interface{} {
	claims["admin"] = false
	if role == "" {
		return claims
	}
	access, _ := claims["realm_access"].(map[string]interface{})
	roles, _ := access["roles"].([]interface{})
	for _, r := range roles {
		if s, ok := r.(string); ok && s == role {
			claims["admin"] = true
			break
		}
	}
	return claims
}
