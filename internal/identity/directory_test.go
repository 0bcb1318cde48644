package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeClaims(t *testing.T) {
	existing := map[string]interface{}{"superAdmin": true, "tenant": "sicdi"}
	got := MergeClaims(existing, ClaimAdmin, true)

	assert.Equal(t, map[string]interface{}{"superAdmin": true, "tenant": "sicdi", "admin": true}, got)
	assert.NotContains(t, existing, "admin", "input is not modified")

	assert.Equal(t, map[string]interface{}{"admin": false}, MergeClaims(nil, ClaimAdmin, false))
}

func TestClaimTrue(t *testing.T) {
	claims := map[string]interface{}{"admin": true, "superAdmin": "true", "super": false}
	assert.True(t, ClaimTrue(claims, "admin"))
	assert.False(t, ClaimTrue(claims, "superAdmin"), "strings are not booleans")
	assert.False(t, ClaimTrue(claims, "super"))
	assert.False(t, ClaimTrue(nil, "admin"))
}
