package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	// Known md5 vectors.
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", HashString(""))
	assert.Equal(t, "9e107d9d372bb6826bd81d3542a419d6", HashString("The quick brown fox jumps over the lazy dog"))

	assert.Equal(t, HashString("ticket"), HashString("ticket"))
	assert.NotEqual(t, HashString("ticket"), HashString("tickets"))
}

func TestTicketID(t *testing.T) {
	id := TicketID("Login error", "Cannot login to my account")

	assert.True(t, strings.HasPrefix(id, "TICKET-"))
	suffix := strings.TrimPrefix(id, "TICKET-")
	assert.Len(t, suffix, 8)
	assert.Equal(t, strings.ToUpper(suffix), suffix)
	for _, r := range suffix {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}

	// Same text still gets distinct IDs across calls.
	other := TicketID("Login error", "Cannot login to my account")
	assert.NotEqual(t, id, other)
}
