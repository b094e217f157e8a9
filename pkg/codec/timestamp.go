package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// TimestampSize is the length of a packed timestamp in bytes.
	TimestampSize = 8

	// HexDumpWidth is the maximum number of characters per hex dump line.
	HexDumpWidth = 48

	// DateLayout renders a timestamp to microsecond precision.
	DateLayout = "2006-01-02 15:04:05.000000"

	microsPerSecond = 1_000_000
)

var (
	// ErrBufferTooShort is returned when a buffer cannot hold the value being decoded.
	ErrBufferTooShort = errors.New("buffer too short")

	// ErrOutOfRange is returned when a value does not fit in an unsigned 64-bit timestamp.
	ErrOutOfRange = errors.New("timestamp out of range")
)

// Pack encodes a timestamp as 8 big-endian bytes.
func Pack(ts uint64) []byte {
	buf := make([]byte, TimestampSize)
	binary.BigEndian.PutUint64(buf, ts)
	return buf
}

// AppendPacked appends the packed form of ts to dst.
func AppendPacked(dst []byte, ts uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, ts)
}

// Unpack decodes the first 8 bytes of buf as a big-endian timestamp.
// Bytes past the eighth are ignored.
func Unpack(buf []byte) (uint64, error) {
	if len(buf) < TimestampSize {
		return 0, fmt.Errorf("unpack timestamp: %w: got %d bytes, need %d", ErrBufferTooShort, len(buf), TimestampSize)
	}
	return binary.BigEndian.Uint64(buf[:TimestampSize]), nil
}

// ParseTimestamp parses a decimal count of epoch microseconds.
func ParseTimestamp(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") {
		v, err := strconv.ParseInt(s, 10, 64)
		if err == nil && v == 0 {
			return 0, nil
		}
		if err == nil || errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("parse timestamp %q: %w", s, ErrOutOfRange)
		}
	}

	ts, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, fmt.Errorf("parse timestamp %q: %w", s, ErrOutOfRange)
		}
		return 0, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts, nil
}

// FromTime converts t to epoch microseconds. Instants before the epoch are rejected.
func FromTime(t time.Time) (uint64, error) {
	micros := t.UnixMicro()
	if micros < 0 {
		return 0, fmt.Errorf("convert %s: %w", t.UTC().Format(time.RFC3339Nano), ErrOutOfRange)
	}
	return uint64(micros), nil
}

// Now returns the current time in epoch microseconds. A clock set before the
// epoch reads as 0.
func Now() uint64 {
	ts, err := FromTime(time.Now())
	if err != nil {
		return 0
	}
	return ts
}

// ToTime converts ts to a time.Time in the local timezone.
// Split into seconds and micros so values above math.MaxInt64 stay exact.
func ToTime(ts uint64) time.Time {
	secs := int64(ts / microsPerSecond)
	micros := int64(ts % microsPerSecond)
	return time.Unix(secs, micros*int64(time.Microsecond))
}

// FormatHumanReadable renders ts in the host's local timezone as
// YYYY-MM-DD HH:MM:SS.ffffff.
func FormatHumanReadable(ts uint64) string {
	return ToTime(ts).Format(DateLayout)
}

// FormatInLocation renders ts like FormatHumanReadable but in loc.
// A nil loc means the local timezone.
func FormatInLocation(ts uint64, loc *time.Location) string {
	if loc == nil {
		return FormatHumanReadable(ts)
	}
	return ToTime(ts).In(loc).Format(DateLayout)
}

// FormatHexDump renders data as space separated lowercase hex pairs, wrapped
// every HexDumpWidth characters. The wrap counts characters, not pairs, so
// every full line keeps the separator space that follows its last pair.
func FormatHexDump(data []byte) string {
	if len(data) == 0 {
		return ""
	}

	const digits = "0123456789abcdef"
	flat := make([]byte, 0, len(data)*3-1)
	for i, b := range data {
		if i > 0 {
			flat = append(flat, ' ')
		}
		flat = append(flat, digits[b>>4], digits[b&0x0f])
	}

	var sb strings.Builder
	sb.Grow(len(flat) + len(flat)/HexDumpWidth)
	for start := 0; start < len(flat); start += HexDumpWidth {
		if start > 0 {
			sb.WriteByte('\n')
		}
		end := start + HexDumpWidth
		if end > len(flat) {
			end = len(flat)
		}
		sb.Write(flat[start:end])
	}
	return sb.String()
}
