package oidc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIssuerURL(t *testing.T) {
	require.Equal(t, "https://kc.example/realms/school", IssuerURL("https://kc.example/", "school"))
	require.Equal(t, "https://kc.example/realms/school", IssuerURL("https://kc.example/realms/school", "other"))
	require.Equal(t, "https://kc.example", IssuerURL("https://kc.example", ""))
}

func TestWithAdminClaim(t *testing.T) {
	claims := map[string]interface{}{
		"sub":          "t1",
		"realm_access": map[string]interface{}{"roles": []interface{}{"homeroom", "staffboard-admin"}},
	}
	require.Equal(t, true, withAdminClaim(claims, "staffboard-admin")["admin"])

	forged := map[string]interface{}{"sub": "t2", "admin": true}
	require.Equal(t, false, withAdminClaim(forged, "staffboard-admin")["admin"])

	require.Equal(t, false, withAdminClaim(map[string]interface{}{"admin": true}, "")["admin"])
}
