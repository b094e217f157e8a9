package storage

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/ssargent/tscap/pkg/codec"
	"github.com/ssargent/tscap/pkg/config"
)

// Value encodings, stored as the first byte of every pebble value.
const (
	valueRaw  byte = 0x00
	valueZstd byte = 0x01
)

// valueCodec wraps encoded frames for storage. It can always read both
// encodings so the compression setting can change between runs.
type valueCodec struct {
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

func newValueCodec(compression string) (*valueCodec, error) {
	vc := &valueCodec{}

	switch compression {
	case "", config.CompressionNone:
	case config.CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		vc.compress = true
		vc.encoder = enc
	default:
		return nil, fmt.Errorf("unknown compression %q", compression)
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	vc.decoder = dec

	return vc, nil
}

func (vc *valueCodec) wrap(frame []byte) []byte {
	if !vc.compress {
		out := make([]byte, 0, len(frame)+1)
		out = append(out, valueRaw)
		return append(out, frame...)
	}
	return vc.encoder.EncodeAll(frame, []byte{valueZstd})
}

// unwrap returns a frame that does not alias value.
func (vc *valueCodec) unwrap(value []byte) ([]byte, error) {
	if len(value) == 0 {
		return nil, fmt.Errorf("%w: empty value", ErrCorrupt)
	}

	switch value[0] {
	case valueRaw:
		return append([]byte(nil), value[1:]...), nil
	case valueZstd:
		frame, err := vc.decoder.DecodeAll(value[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		return frame, nil
	default:
		return nil, fmt.Errorf("%w: unknown value encoding 0x%02x", ErrCorrupt, value[0])
	}
}

// payloadSize reads the payload length from a stored value without checking
// the frame checksum. Compressed values are sized from the zstd frame content
// size when the header carries one.
func (vc *valueCodec) payloadSize(value []byte) (int, error) {
	if len(value) == 0 {
		return 0, fmt.Errorf("%w: empty value", ErrCorrupt)
	}

	switch value[0] {
	case valueRaw:
		return frameHeaderPayloadSize(value[1:])
	case valueZstd:
		var h zstd.Header
		if err := h.Decode(value[1:]); err == nil && h.HasFCS {
			if h.FrameContentSize < codec.FrameHeaderSize {
				return 0, fmt.Errorf("%w: zstd content size %d", ErrCorrupt, h.FrameContentSize)
			}
			return int(h.FrameContentSize - codec.FrameHeaderSize), nil
		}
		frame, err := vc.unwrap(value)
		if err != nil {
			return 0, err
		}
		return frameHeaderPayloadSize(frame)
	default:
		return 0, fmt.Errorf("%w: unknown value encoding 0x%02x", ErrCorrupt, value[0])
	}
}

func frameHeaderPayloadSize(frame []byte) (int, error) {
	f, err := codec.NewFrameCodec().Decode(frame)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return int(f.PayloadSize), nil
}

func (vc *valueCodec) close() error {
	var err error
	if vc.encoder != nil {
		err = vc.encoder.Close()
	}
	vc.decoder.Close()
	return err
}
