package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClaimDefaultAddress(t *testing.T) {
	i := &Identity{ID: identityID, Details: map[string]any{
		"addresses": map[string]any{
			AddressMSISDN: map[string]any{
				"+27820000009": map[string]any{"optedout": false},
				"+27820000001": map[string]any{},
			},
		},
	}}
	assert.Equal(t, "+27820000001", i.DefaultAddress(AddressMSISDN))

	assert.False(t, i.ClaimDefaultAddress(AddressMSISDN, "+27829999999"))
	assert.True(t, i.ClaimDefaultAddress(AddressMSISDN, "+27820000009"))
	assert.Equal(t, "+27820000009", i.DefaultAddress(AddressMSISDN))
	assert.Equal(t, false, i.Addresses(AddressMSISDN)["+27820000009"]["optedout"])

	assert.False(t, i.ClaimDefaultAddress(AddressMSISDN, "+27820000001"))
	assert.Equal(t, "+27820000009", i.DefaultAddress(AddressMSISDN))
}
