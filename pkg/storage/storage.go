// Package storage keeps captured packets in a local pebble database, ordered
// by capture time.
//
// Keys are the packed 8-byte big-endian timestamp followed by a 20-byte ksuid,
// so a bytewise key range is a time window. Values are encoded frames,
// optionally zstd compressed.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/ssargent/tscap/pkg/codec"
)

var (
	// ErrNotFound is returned when no packet has the requested ID.
	ErrNotFound = errors.New("packet not found")

	// ErrInvalidID is returned for malformed packet IDs.
	ErrInvalidID = errors.New("invalid packet id")

	// ErrCorrupt is returned when a stored value cannot be decoded or fails its checksum.
	ErrCorrupt = errors.New("corrupt packet record")

	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store is closed")

	// errStopScan ends a scan early without reporting an error.
	errStopScan = errors.New("stop scan")
)

// Options configures a capture store
type Options struct {
	DataDir     string
	Compression string // config.CompressionNone or config.CompressionZstd
	Sync        bool   // fsync the WAL on every write

	// PebbleOptions allows tuning pebble. Nil uses defaults.
	PebbleOptions *pebble.Options
	Logger        *slog.Logger
}

// Capture is a packet waiting to be stored
type Capture struct {
	Timestamp uint64
	Payload   []byte
}

// Packet is a stored packet
type Packet struct {
	ID        PacketID
	Timestamp uint64
	Payload   []byte
}

// Stats summarises the store contents
type Stats struct {
	Packets        int    `json:"packets"`
	PayloadBytes   int64  `json:"payload_bytes"`
	FirstTimestamp uint64 `json:"first_timestamp"`
	LastTimestamp  uint64 `json:"last_timestamp"`
	Corrupt        int    `json:"corrupt"` // packets whose frame header is unreadable
	DiskUsageBytes uint64 `json:"disk_usage_bytes"`
}

// Store is a time-ordered packet store. It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	db        *pebble.DB
	frames    *codec.FrameCodec
	values    *valueCodec
	writeOpts *pebble.WriteOptions
	logger    *slog.Logger
	closed    bool
}

// Open creates or opens a capture store
func Open(opts Options) (*Store, error) {
	if opts.DataDir == "" {
		return nil, errors.New("storage: Options.DataDir is required")
	}

	values, err := newValueCodec(opts.Compression)
	if err != nil {
		return nil, err
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}

	db, err := pebble.Open(opts.DataDir, po)
	if err != nil {
		_ = values.close()
		return nil, fmt.Errorf("failed to open pebble at %s: %w", opts.DataDir, err)
	}

	writeOpts := pebble.NoSync
	if opts.Sync {
		writeOpts = pebble.Sync
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	logger.Debug("capture store opened",
		"data_dir", opts.DataDir,
		"compression", opts.Compression,
		"sync", opts.Sync)

	return &Store{
		db:        db,
		frames:    codec.NewFrameCodec(),
		values:    values,
		writeOpts: writeOpts,
		logger:    logger,
	}, nil
}

// Append stores a packet captured at ts
func (s *Store) Append(ts uint64, payload []byte) (PacketID, error) {
	ids, err := s.AppendBatch([]Capture{{Timestamp: ts, Payload: payload}})
	if err != nil {
		return PacketID{}, err
	}
	return ids[0], nil
}

// AppendBatch stores captures atomically
func (s *Store) AppendBatch(captures []Capture) ([]PacketID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	b := s.db.NewBatch()
	defer b.Close()

	ids := make([]PacketID, 0, len(captures))
	for _, c := range captures {
		frame, err := s.frames.Encode(c.Timestamp, c.Payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode packet: %w", err)
		}

		id := NewPacketID(c.Timestamp)
		if err := b.Set(id.Key(), s.values.wrap(frame), nil); err != nil {
			return nil, fmt.Errorf("failed to stage packet %s: %w", id, err)
		}
		ids = append(ids, id)
	}

	if err := b.Commit(s.writeOpts); err != nil {
		return nil, fmt.Errorf("failed to commit %d packets: %w", len(captures), err)
	}

	s.logger.Debug("packets stored", "count", len(ids))
	return ids, nil
}

// Get returns the packet with the given ID
func (s *Store) Get(id PacketID) (*Packet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	value, closer, err := s.db.Get(id.Key())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to read packet %s: %w", id, err)
	}
	defer closer.Close()

	return s.decode(id, value)
}

// Scan calls fn for each packet with from <= timestamp < to, oldest first.
// to == 0 means no upper bound and limit <= 0 means no limit. Returning an
// error from fn stops the scan and Scan returns that error.
func (s *Store) Scan(ctx context.Context, from, to uint64, limit int, fn func(*Packet) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if to != 0 && to <= from {
		return nil
	}

	iterOpts := &pebble.IterOptions{LowerBound: codec.Pack(from)}
	if to != 0 {
		iterOpts.UpperBound = codec.Pack(to)
	}

	iter, err := s.db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}

	seen := 0
	scanErr := func() error {
		for iter.First(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			id, err := idFromKey(iter.Key())
			if err != nil {
				s.logger.Warn("skipping foreign key", "key", fmt.Sprintf("%x", iter.Key()), "error", err)
				continue
			}

			p, err := s.decode(id, iter.Value())
			if err != nil {
				return err
			}
			if err := fn(p); err != nil {
				return err
			}

			seen++
			if limit > 0 && seen >= limit {
				return errStopScan
			}
		}
		return iter.Error()
	}()

	closeErr := iter.Close()
	if scanErr != nil && !errors.Is(scanErr, errStopScan) {
		return scanErr
	}
	return closeErr
}

// Trim deletes every packet captured before the given timestamp and returns
// how many were removed. Values are not read, so corrupt records are purged
// like any other. Writes wait until the trim completes, so the count is exact.
func (s *Store) Trim(ctx context.Context, before uint64) (int, error) {
	if before == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	removed := 0
	err := s.walk(ctx, 0, before, func(key, _ []byte) error {
		if _, err := idFromKey(key); err == nil {
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if err := s.db.DeleteRange(codec.Pack(0), codec.Pack(before), s.writeOpts); err != nil {
		return 0, fmt.Errorf("failed to trim before %d: %w", before, err)
	}

	s.logger.Info("capture store trimmed", "before", before, "removed", removed)
	return removed, nil
}

// Stats walks the store keys and reports its contents. Payload sizes come from
// frame headers without checksum verification. Records whose size cannot be
// read are counted in Corrupt rather than failing the walk.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Stats{}, ErrClosed
	}

	var st Stats
	err := s.walk(ctx, 0, 0, func(key, value []byte) error {
		id, err := idFromKey(key)
		if err != nil {
			return nil
		}

		if st.Packets == 0 {
			st.FirstTimestamp = id.Timestamp
		}
		st.LastTimestamp = id.Timestamp
		st.Packets++

		size, err := s.values.payloadSize(value)
		if err != nil {
			st.Corrupt++
			return nil
		}
		st.PayloadBytes += int64(size)
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	st.DiskUsageBytes = s.db.Metrics().DiskSpaceUsage()
	return st, nil
}

// walk visits raw keys and values in [from, to) without decoding them. The
// caller holds s.mu. to == 0 means no upper bound.
func (s *Store) walk(ctx context.Context, from, to uint64, fn func(key, value []byte) error) error {
	iterOpts := &pebble.IterOptions{LowerBound: codec.Pack(from)}
	if to != 0 {
		iterOpts.UpperBound = codec.Pack(to)
	}

	iter, err := s.db.NewIter(iterOpts)
	if err != nil {
		return fmt.Errorf("failed to create iterator: %w", err)
	}

	walkErr := func() error {
		for iter.First(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(iter.Key(), iter.Value()); err != nil {
				return err
			}
		}
		return iter.Error()
	}()

	closeErr := iter.Close()
	if walkErr != nil {
		return walkErr
	}
	return closeErr
}

// Close flushes and closes the store. Further calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.closed = true

	dbErr := s.db.Close()
	valErr := s.values.close()
	if dbErr != nil {
		return fmt.Errorf("failed to close pebble: %w", dbErr)
	}
	return valErr
}

func (s *Store) decode(id PacketID, value []byte) (*Packet, error) {
	raw, err := s.values.unwrap(value)
	if err != nil {
		return nil, fmt.Errorf("packet %s: %w", id, err)
	}

	frame, err := s.frames.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: packet %s: %v", ErrCorrupt, id, err)
	}
	if err := frame.Validate(); err != nil {
		return nil, fmt.Errorf("%w: packet %s: %v", ErrCorrupt, id, err)
	}
	if frame.Timestamp != id.Timestamp {
		return nil, fmt.Errorf("%w: packet %s: frame timestamp %d", ErrCorrupt, id, frame.Timestamp)
	}

	return &Packet{ID: id, Timestamp: frame.Timestamp, Payload: frame.Payload}, nil
}
