package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
)

// FrameHeaderSize is CRC32(4) + Timestamp(8) + PayloadSize(4).
const FrameHeaderSize = 16

var (
	// ErrFrameTruncated is returned when a frame holds fewer payload bytes than it declares.
	ErrFrameTruncated = errors.New("frame truncated")

	// ErrChecksumMismatch is returned by Validate when a frame fails its CRC32 check.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")

	// ErrPayloadTooLarge is returned when a payload length does not fit in 32 bits.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Frame is a captured packet together with its capture timestamp
type Frame struct {
	CRC32       uint32 // CRC32 over everything after this field
	Timestamp   uint64 // Epoch microseconds
	PayloadSize uint32 // Size of the payload in bytes
	Payload     []byte // Raw packet bytes
}

// FrameCodec handles serialization and deserialization of frames
type FrameCodec struct{}

// NewFrameCodec creates a new frame codec instance
func NewFrameCodec() *FrameCodec {
	return &FrameCodec{}
}

// NewFrame creates a frame for payload captured at ts. The checksum is left
// zero until the frame is encoded.
func NewFrame(ts uint64, payload []byte) (*Frame, error) {
	if uint64(len(payload)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("new frame: %w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	return &Frame{
		Timestamp:   ts,
		PayloadSize: uint32(len(payload)),
		Payload:     payload,
	}, nil
}

// Encode serializes a timestamp and payload into a frame
// Format: [CRC32(4)][Timestamp(8)][PayloadSize(4)][Payload]
func (c *FrameCodec) Encode(ts uint64, payload []byte) ([]byte, error) {
	f, err := NewFrame(ts, payload)
	if err != nil {
		return nil, err
	}
	f.CRC32 = f.calculateCRC32()

	buf := make([]byte, 4, f.Size())
	binary.BigEndian.PutUint32(buf[0:], f.CRC32)
	buf = AppendPacked(buf, f.Timestamp)
	buf = binary.BigEndian.AppendUint32(buf, f.PayloadSize)
	buf = append(buf, f.Payload...)

	return buf, nil
}

// Decode deserializes a frame. The returned payload aliases data.
func (c *FrameCodec) Decode(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, fmt.Errorf("decode frame header: %w: got %d bytes, need %d",
			ErrBufferTooShort, len(data), FrameHeaderSize)
	}

	ts, err := Unpack(data[4:12])
	if err != nil {
		return nil, err
	}

	f := &Frame{
		CRC32:       binary.BigEndian.Uint32(data[0:4]),
		Timestamp:   ts,
		PayloadSize: binary.BigEndian.Uint32(data[12:16]),
	}

	end := uint64(FrameHeaderSize) + uint64(f.PayloadSize)
	if uint64(len(data)) < end {
		return nil, fmt.Errorf("decode frame: %w: %d < %d", ErrFrameTruncated, len(data), end)
	}
	f.Payload = data[FrameHeaderSize:end]

	return f, nil
}

// Validate checks the integrity of a frame using CRC32
func (f *Frame) Validate() error {
	if sum := f.calculateCRC32(); f.CRC32 != sum {
		return fmt.Errorf("%w: %08x != %08x", ErrChecksumMismatch, f.CRC32, sum)
	}
	return nil
}

// Size returns the total size of the frame when encoded
func (f *Frame) Size() int {
	return FrameHeaderSize + len(f.Payload)
}

func (f *Frame) calculateCRC32() uint32 {
	var hdr [12]byte
	binary.BigEndian.PutUint64(hdr[0:], f.Timestamp)
	binary.BigEndian.PutUint32(hdr[8:], f.PayloadSize)

	crc := crc32.Update(0, crc32.IEEETable, hdr[:])
	return crc32.Update(crc, crc32.IEEETable, f.Payload)
}
