package api

import (
	"context"
	"time"

	"github.com/ssargent/tscap/pkg/storage"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TimestampResponse describes one timestamp in every form the API renders
type TimestampResponse struct {
	Timestamp uint64 `json:"timestamp"`
	Packed    string `json:"packed"`
	Date      string `json:"date"`
}

// PacketResponse is a stored packet as returned by the API
type PacketResponse struct {
	ID        string `json:"id"`
	Timestamp uint64 `json:"timestamp"`
	Date      string `json:"date"`
	Size      int    `json:"size"`
	HexDump   string `json:"hexdump,omitempty"`
}

// TrimResponse reports a trim
type TrimResponse struct {
	Before  uint64 `json:"before"`
	Removed int    `json:"removed"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Addr         string
	APIKey       string
	Location     *time.Location // nil renders dates in local time
	MaxBodyBytes int64          // 0 uses DefaultMaxBodyBytes
}

// PacketStore defines the capture store operations the API needs
type PacketStore interface {
	Append(ts uint64, payload []byte) (storage.PacketID, error)
	AppendBatch(captures []storage.Capture) ([]storage.PacketID, error)
	Get(id storage.PacketID) (*storage.Packet, error)
	Scan(ctx context.Context, from, to uint64, limit int, fn func(*storage.Packet) error) error
	Trim(ctx context.Context, before uint64) (int, error)
	Stats(ctx context.Context) (storage.Stats, error)
}
