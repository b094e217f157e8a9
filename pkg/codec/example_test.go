package codec_test

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ssargent/tscap/pkg/codec"
)

// ExamplePack demonstrates the 8-byte big-endian wire form
func ExamplePack() {
	packed := codec.Pack(1500000123456)
	fmt.Printf("%d bytes: %x\n", len(packed), packed)

	ts, err := codec.Unpack(packed)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(ts)

	// Output:
	// 8 bytes: 0000015d3ef97a40
	// 1500000123456
}

// ExampleUnpack_shortBuffer demonstrates error handling
func ExampleUnpack_shortBuffer() {
	_, err := codec.Unpack([]byte{0x01, 0x02, 0x03})
	fmt.Println(errors.Is(err, codec.ErrBufferTooShort))
	fmt.Println(err)

	// Output:
	// true
	// unpack timestamp: buffer too short: got 3 bytes, need 8
}

// ExampleFormatInLocation renders a capture time with microsecond precision
func ExampleFormatInLocation() {
	fmt.Println(codec.FormatInLocation(1719043200000042, time.UTC))

	// Output:
	// 2024-06-22 08:00:00.000042
}

func ExampleFormatHexDump() {
	fmt.Println(codec.FormatHexDump([]byte("Host: x\r\n")))

	// Output:
	// 48 6f 73 74 3a 20 78 0d 0a
}

// ExampleFrameCodec demonstrates storing a packet with its capture time
func ExampleFrameCodec() {
	fc := codec.NewFrameCodec()

	encoded, err := fc.Encode(1719043200000000, []byte{0xde, 0xad, 0xbe, 0xef})
	if err != nil {
		log.Fatal(err)
	}

	frame, err := fc.Decode(encoded)
	if err != nil {
		log.Fatal(err)
	}
	if err := frame.Validate(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Encoded %d bytes\n", len(encoded))
	fmt.Printf("Captured: %s\n", codec.FormatInLocation(frame.Timestamp, time.UTC))
	fmt.Printf("Payload: %s\n", codec.FormatHexDump(frame.Payload))

	// Output:
	// Encoded 20 bytes
	// Captured: 2024-06-22 08:00:00.000000
	// Payload: de ad be ef
}
