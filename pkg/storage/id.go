package storage

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/segmentio/ksuid"
	"github.com/ssargent/tscap/pkg/codec"
)

// KeySize is the packed timestamp followed by the ksuid suffix.
const KeySize = codec.TimestampSize + 20

// PacketID identifies a stored packet. Its key form sorts by capture time.
type PacketID struct {
	Timestamp uint64
	Suffix    ksuid.KSUID
}

// NewPacketID returns an ID for a packet captured at ts.
func NewPacketID(ts uint64) PacketID {
	return PacketID{Timestamp: ts, Suffix: ksuid.New()}
}

// Key returns the pebble key: Pack(Timestamp) followed by the ksuid bytes.
func (id PacketID) Key() []byte {
	key := make([]byte, 0, KeySize)
	key = codec.AppendPacked(key, id.Timestamp)
	return append(key, id.Suffix.Bytes()...)
}

// String renders the ID as <16 hex digits>-<ksuid>.
func (id PacketID) String() string {
	return hex.EncodeToString(codec.Pack(id.Timestamp)) + "-" + id.Suffix.String()
}

// ParsePacketID parses the String form of an ID.
func ParsePacketID(s string) (PacketID, error) {
	tsHex, suffix, ok := strings.Cut(s, "-")
	if !ok || len(tsHex) != 2*codec.TimestampSize {
		return PacketID{}, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}

	packed, err := hex.DecodeString(tsHex)
	if err != nil {
		return PacketID{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}
	ts, err := codec.Unpack(packed)
	if err != nil {
		return PacketID{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}

	k, err := ksuid.Parse(suffix)
	if err != nil {
		return PacketID{}, fmt.Errorf("%w: %q: %v", ErrInvalidID, s, err)
	}

	return PacketID{Timestamp: ts, Suffix: k}, nil
}

func idFromKey(key []byte) (PacketID, error) {
	if len(key) != KeySize {
		return PacketID{}, fmt.Errorf("%w: key length %d", ErrInvalidID, len(key))
	}
	ts, err := codec.Unpack(key)
	if err != nil {
		return PacketID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	k, err := ksuid.FromBytes(key[codec.TimestampSize:])
	if err != nil {
		return PacketID{}, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return PacketID{Timestamp: ts, Suffix: k}, nil
}
