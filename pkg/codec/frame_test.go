package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestFrameCodec_EncodeDecodeRoundTrip(t *testing.T) {
	codec := NewFrameCodec()

	testCases := []struct {
		name    string
		ts      uint64
		payload []byte
	}{
		{
			name:    "ethernet header",
			ts:      1719043200000000,
			payload: []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00, 0x1b, 0x21, 0x3c, 0x4d, 0x5e, 0x08, 0x00},
		},
		{
			name:    "empty payload",
			ts:      1,
			payload: []byte{},
		},
		{
			name:    "zero timestamp",
			ts:      0,
			payload: []byte("payload"),
		},
		{
			name:    "max timestamp",
			ts:      ^uint64(0),
			payload: []byte("payload"),
		},
		{
			name:    "jumbo frame",
			ts:      1719043200000001,
			payload: bytes.Repeat([]byte{0x5a}, 9000),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			encoded, err := codec.Encode(tc.ts, tc.payload)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			if len(encoded) != FrameHeaderSize+len(tc.payload) {
				t.Errorf("Encoded size mismatch: got %d, want %d", len(encoded), FrameHeaderSize+len(tc.payload))
			}

			frame, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			if err := frame.Validate(); err != nil {
				t.Fatalf("Frame validation failed: %v", err)
			}

			if frame.Timestamp != tc.ts {
				t.Errorf("Timestamp mismatch: got %d, want %d", frame.Timestamp, tc.ts)
			}

			if !bytes.Equal(frame.Payload, tc.payload) {
				t.Errorf("Payload mismatch: got %x, want %x", frame.Payload, tc.payload)
			}

			if frame.PayloadSize != uint32(len(tc.payload)) {
				t.Errorf("PayloadSize mismatch: got %d, want %d", frame.PayloadSize, len(tc.payload))
			}
		})
	}
}

func TestFrameCodec_TimestampIsPacked(t *testing.T) {
	codec := NewFrameCodec()
	ts := uint64(1500000123456)

	encoded, err := codec.Encode(ts, []byte("x"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	if !bytes.Equal(encoded[4:12], Pack(ts)) {
		t.Errorf("Timestamp field is not the packed form: got %x, want %x", encoded[4:12], Pack(ts))
	}
}

func TestFrameCodec_CRCValidation(t *testing.T) {
	codec := NewFrameCodec()
	payload := []byte("test payload")

	corruptAt := map[string]int{
		"crc field":       0,
		"timestamp field": 4,
		"payload data":    FrameHeaderSize,
	}

	for name, pos := range corruptAt {
		t.Run("corrupted "+name+" fails validation", func(t *testing.T) {
			encoded, err := codec.Encode(42, payload)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			encoded[pos] ^= 0xFF

			frame, err := codec.Decode(encoded)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			err = frame.Validate()
			if !errors.Is(err, ErrChecksumMismatch) {
				t.Errorf("Expected ErrChecksumMismatch, got %v", err)
			}
		})
	}
}

func TestFrameCodec_MalformedData(t *testing.T) {
	codec := NewFrameCodec()

	testCases := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{
			name:    "empty data",
			data:    []byte{},
			wantErr: ErrBufferTooShort,
		},
		{
			name:    "one byte short of header",
			data:    make([]byte, FrameHeaderSize-1),
			wantErr: ErrBufferTooShort,
		},
		{
			name: "insufficient data for declared payload size",
			data: func() []byte {
				buf := make([]byte, FrameHeaderSize+5)
				binary.BigEndian.PutUint32(buf[12:16], 100)
				return buf
			}(),
			wantErr: ErrFrameTruncated,
		},
		{
			name: "declared size at uint32 limit",
			data: func() []byte {
				buf := make([]byte, FrameHeaderSize)
				binary.BigEndian.PutUint32(buf[12:16], ^uint32(0))
				return buf
			}(),
			wantErr: ErrFrameTruncated,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := codec.Decode(tc.data)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFrameCodec_DecodeIgnoresTrailingBytes(t *testing.T) {
	codec := NewFrameCodec()

	encoded, err := codec.Encode(7, []byte("abc"))
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	frame, err := codec.Decode(append(encoded, 0xde, 0xad))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := frame.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
	if string(frame.Payload) != "abc" {
		t.Errorf("Payload mismatch: got %q", frame.Payload)
	}
}

func TestNewFrame(t *testing.T) {
	frame, err := NewFrame(99, []byte("hello"))
	if err != nil {
		t.Fatalf("NewFrame failed: %v", err)
	}

	if frame.Timestamp != 99 {
		t.Errorf("Timestamp mismatch: got %d", frame.Timestamp)
	}
	if frame.PayloadSize != 5 {
		t.Errorf("PayloadSize mismatch: got %d", frame.PayloadSize)
	}
	if frame.Size() != FrameHeaderSize+5 {
		t.Errorf("Size mismatch: got %d", frame.Size())
	}

	// CRC32 should be zero until the frame is encoded
	if frame.CRC32 != 0 {
		t.Errorf("Expected CRC32 to be zero initially, got %d", frame.CRC32)
	}
}

func TestFrame_CalculateCRC32(t *testing.T) {
	frame, _ := NewFrame(1, []byte("payload"))

	crc := frame.calculateCRC32()
	if crc == 0 {
		t.Error("Expected non-zero CRC32 for non-empty frame")
	}
	if crc2 := frame.calculateCRC32(); crc != crc2 {
		t.Errorf("CRC32 calculation is not deterministic: %d vs %d", crc, crc2)
	}

	other, _ := NewFrame(2, []byte("payload"))
	if crc == other.calculateCRC32() {
		t.Error("Different timestamps produced same CRC32")
	}
}
