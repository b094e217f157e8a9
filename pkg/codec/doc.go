// Package codec provides the binary encodings shared by tscap producers and
// consumers.
//
// # Timestamp Format
//
// A timestamp is an unsigned 64-bit count of microseconds since the Unix
// epoch. On the wire it is always exactly 8 bytes, most significant byte
// first:
//
//	[Timestamp(8)]
//
// Because the encoding is big-endian, packed timestamps compare bytewise in
// chronological order. The capture store relies on this to serve time ranges
// with plain key range scans.
//
// Pack never fails: every uint64 has exactly one 8-byte form. Unpack reads the
// first 8 bytes of its input and ignores anything after them, so a packed
// timestamp can be read straight off the front of a longer key. Inputs shorter
// than 8 bytes fail with ErrBufferTooShort.
//
// Values that arrive in a wider or signed representation (decimal strings,
// time.Time) are converted with ParseTimestamp and FromTime.
// These reject anything outside [0, 2^64-1] with ErrOutOfRange instead of
// truncating it.
//
// # Frame Format
//
// A captured packet is stored as a frame:
//
//	[CRC32(4)][Timestamp(8)][PayloadSize(4)][Payload]
//
// Fields:
//   - CRC32: IEEE checksum over Timestamp, PayloadSize and Payload (big-endian)
//   - Timestamp: the packed timestamp described above
//   - PayloadSize: 32-bit unsigned payload length in bytes (big-endian)
//   - Payload: the raw packet bytes
//
// The total frame size is 16 bytes (header) + len(payload).
//
// # Usage
//
//	packed := codec.Pack(ts)
//
//	ts, err := codec.Unpack(packed)
//	if err != nil {
//	    return err
//	}
//
//	fmt.Println(codec.FormatHumanReadable(ts))
//	fmt.Println(codec.FormatHexDump(payload))
//
// # Thread Safety
//
// Every function in this package is pure. FrameCodec instances are safe for
// concurrent use and decoded frames are immutable.
package codec
