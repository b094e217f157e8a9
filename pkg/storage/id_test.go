package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacketIDStringRoundTrip(t *testing.T) {
	id := NewPacketID(1500000123456)

	s := id.String()
	assert.True(t, strings.HasPrefix(s, "0000015d3ef97a40-"), s)

	parsed, err := ParsePacketID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestPacketIDKeyRoundTrip(t *testing.T) {
	id := NewPacketID(^uint64(0))

	parsed, err := idFromKey(id.Key())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParsePacketIDRejectsMalformed(t *testing.T) {
	valid := NewPacketID(1).String()
	_, suffix, _ := strings.Cut(valid, "-")

	for _, in := range []string{
		"",
		"no-dash-here",
		"0000015d3ef97a40",
		"0000015d3ef97a4-" + suffix,
		"zz00015d3ef97a40-" + suffix,
		"0000015d3ef97a40-notaksuid",
	} {
		_, err := ParsePacketID(in)
		assert.ErrorIs(t, err, ErrInvalidID, in)
	}
}

func TestIDFromKeyRejectsWrongLength(t *testing.T) {
	_, err := idFromKey([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidID)
}
