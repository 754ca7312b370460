package qrpayload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode(t *testing.T) {
	p := Payload{TicketID: "t-123", UserID: "42", Timestamp: 1700000000000}

	raw, err := Encode(p)
	require.NoError(t, err)

	decoded, ok := Decode(raw)
	require.True(t, ok)
	assert.Equal(t, p, decoded)
}

func TestDecodeLegacyIDField(t *testing.T) {
	decoded, ok := Decode(`{"id":"t-legacy","userId":"7"}`)
	require.True(t, ok)
	assert.Equal(t, "t-legacy", decoded.TicketID)
}

func TestDecodePrefersTicketID(t *testing.T) {
	decoded, ok := Decode(`{"ticketId":"t-new","id":"t-old"}`)
	require.True(t, ok)
	assert.Equal(t, "t-new", decoded.TicketID)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []string{
		"",
		"   ",
		"not json, not a real code",
		"{broken",
		`{"userId":"7"}`, // parseable but no identity
		"12345",
	}

	for _, raw := range cases {
		_, ok := Decode(raw)
		assert.False(t, ok, "input %q should not decode", raw)
	}
}

func TestDecodeTrimsWhitespace(t *testing.T) {
	decoded, ok := Decode("  {\"ticketId\":\"t-1\"}\n")
	require.True(t, ok)
	assert.Equal(t, "t-1", decoded.TicketID)
}
