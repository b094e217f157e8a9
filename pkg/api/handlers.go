package api

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ssargent/tscap/pkg/codec"
	"github.com/ssargent/tscap/pkg/storage"
	"github.com/valyala/fastjson"
)

const (
	// DefaultMaxBodyBytes caps request bodies. Large enough for a jumbo frame batch.
	DefaultMaxBodyBytes = 4 << 20

	defaultListLimit = 100
	maxListLimit     = 1000

	// CaptureTimestampHeader carries the capture time of an uploaded packet.
	CaptureTimestampHeader = "X-Capture-Timestamp"
)

// Server holds the API server state
type Server struct {
	store   PacketStore
	config  ServerConfig
	metrics *Metrics
	logger  *slog.Logger
	parsers fastjson.ParserPool
}

// NewServer creates a new API server
func NewServer(store PacketStore, config ServerConfig, metrics *Metrics, logger *slog.Logger) *Server {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Server{
		store:   store,
		config:  config,
		metrics: metrics,
		logger:  logger,
	}
}

// handleHealth godoc
//
//	@Summary	Health check
//	@Tags		health
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/health [get]
//	@Security	ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handlePack godoc
//
//	@Summary	Pack a timestamp
//	@Tags		timestamps
//	@Produce	json
//	@Param		ts	query		string	true	"Epoch microseconds"
//	@Success	200	{object}	TimestampResponse
//	@Failure	400	{object}	APIResponse
//	@Router		/timestamps/pack [get]
//	@Security	ApiKeyAuth
func (s *Server) handlePack(w http.ResponseWriter, r *http.Request) {
	ts, err := codec.ParseTimestamp(r.URL.Query().Get("ts"))
	if err != nil {
		s.metrics.RecordCodecError(codecErrorKind(err))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	sendSuccess(w, s.describe(ts))
}

// handleUnpack godoc
//
//	@Summary	Unpack a timestamp
//	@Tags		timestamps
//	@Produce	json
//	@Param		hex	query		string	true	"Packed timestamp as hex, at least 8 bytes"
//	@Success	200	{object}	TimestampResponse
//	@Failure	400	{object}	APIResponse
//	@Router		/timestamps/unpack [get]
//	@Security	ApiKeyAuth
func (s *Server) handleUnpack(w http.ResponseWriter, r *http.Request) {
	raw, err := hex.DecodeString(r.URL.Query().Get("hex"))
	if err != nil {
		s.metrics.RecordCodecError("malformed")
		sendError(w, fmt.Sprintf("Invalid hex: %v", err), http.StatusBadRequest)
		return
	}

	ts, err := codec.Unpack(raw)
	if err != nil {
		s.metrics.RecordCodecError(codecErrorKind(err))
		sendError(w, err.Error(), statusForError(err))
		return
	}

	sendSuccess(w, s.describe(ts))
}

// handleHexDump godoc
//
//	@Summary	Hex dump a payload
//	@Tags		timestamps
//	@Accept		octet-stream
//	@Produce	plain
//	@Success	200	{string}	string
//	@Router		/hexdump [post]
//	@Security	ApiKeyAuth
func (s *Server) handleHexDump(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, codec.FormatHexDump(body))
}

// handlePutPacket godoc
//
//	@Summary		Store a packet
//	@Description	Stores the raw request body. The capture time comes from X-Capture-Timestamp, or now.
//	@Tags			packets
//	@Accept			octet-stream
//	@Produce		json
//	@Param			X-Capture-Timestamp	header		string	false	"Epoch microseconds"
//	@Success		201					{object}	PacketResponse
//	@Failure		400					{object}	APIResponse
//	@Router			/packets [post]
//	@Security		ApiKeyAuth
func (s *Server) handlePutPacket(w http.ResponseWriter, r *http.Request) {
	ts := codec.Now()
	if h := r.Header.Get(CaptureTimestampHeader); h != "" {
		parsed, err := codec.ParseTimestamp(h)
		if err != nil {
			s.metrics.RecordCodecError(codecErrorKind(err))
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts = parsed
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	start := time.Now()
	id, err := s.store.Append(ts, body)
	s.metrics.RecordStoreOperation("append", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("failed to store packet", "error", err)
		sendError(w, fmt.Sprintf("Failed to store packet: %v", err), statusForError(err))
		return
	}

	sendCreated(w, s.packetResponse(&storage.Packet{ID: id, Timestamp: ts, Payload: body}, false))
}

// handlePutBatch godoc
//
//	@Summary		Store packets in bulk
//	@Description	Accepts one object or an array of {"timestamp": N, "payload": "<hex>"}. A missing timestamp means now.
//	@Tags			packets
//	@Accept			json
//	@Produce		json
//	@Success		201	{array}		PacketResponse
//	@Failure		400	{object}	APIResponse
//	@Router			/packets/batch [post]
//	@Security		ApiKeyAuth
func (s *Server) handlePutBatch(w http.ResponseWriter, r *http.Request) {
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	p := s.parsers.Get()
	defer s.parsers.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		sendError(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	var items []*fastjson.Value
	switch v.Type() {
	case fastjson.TypeArray:
		items, _ = v.Array()
	case fastjson.TypeObject:
		items = []*fastjson.Value{v}
	default:
		sendError(w, "Expected a JSON object or array", http.StatusBadRequest)
		return
	}

	captures := make([]storage.Capture, 0, len(items))
	for i, item := range items {
		c, err := parseCapture(item)
		if err != nil {
			s.metrics.RecordCodecError(codecErrorKind(err))
			sendError(w, fmt.Sprintf("Item %d: %v", i, err), http.StatusBadRequest)
			return
		}
		captures = append(captures, c)
	}

	start := time.Now()
	ids, err := s.store.AppendBatch(captures)
	s.metrics.RecordStoreOperation("append_batch", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("failed to store batch", "count", len(captures), "error", err)
		sendError(w, fmt.Sprintf("Failed to store packets: %v", err), statusForError(err))
		return
	}

	out := make([]PacketResponse, len(ids))
	for i, id := range ids {
		out[i] = s.packetResponse(&storage.Packet{ID: id, Timestamp: captures[i].Timestamp, Payload: captures[i].Payload}, false)
	}
	sendCreated(w, out)
}

// parseCapture reads one batch item. The payload is copied out of the parser's buffer.
func parseCapture(v *fastjson.Value) (storage.Capture, error) {
	if v.Type() != fastjson.TypeObject {
		return storage.Capture{}, errors.New("expected an object")
	}

	ts := codec.Now()
	if tv := v.Get("timestamp"); tv != nil {
		switch tv.Type() {
		case fastjson.TypeNumber:
			// The raw number text: fractions and exponents are malformed,
			// negatives and overflow are out of range.
			n, err := codec.ParseTimestamp(tv.String())
			if err != nil {
				return storage.Capture{}, fmt.Errorf("timestamp: %w", err)
			}
			ts = n
		case fastjson.TypeString:
			sb, _ := tv.StringBytes()
			n, err := codec.ParseTimestamp(string(sb))
			if err != nil {
				return storage.Capture{}, err
			}
			ts = n
		default:
			return storage.Capture{}, errors.New("timestamp must be a number or string")
		}
	}

	pv := v.Get("payload")
	if pv == nil {
		return storage.Capture{}, errors.New("payload is required")
	}
	hexPayload, err := pv.StringBytes()
	if err != nil {
		return storage.Capture{}, fmt.Errorf("payload: %w", err)
	}
	payload := make([]byte, hex.DecodedLen(len(hexPayload)))
	if _, err := hex.Decode(payload, hexPayload); err != nil {
		return storage.Capture{}, fmt.Errorf("payload: %w", err)
	}

	return storage.Capture{Timestamp: ts, Payload: payload}, nil
}

// handleListPackets godoc
//
//	@Summary	List packets in a time window
//	@Tags		packets
//	@Produce	json
//	@Param		from	query		string	false	"Inclusive lower bound, epoch microseconds"
//	@Param		to		query		string	false	"Exclusive upper bound, epoch microseconds"
//	@Param		limit	query		int		false	"Maximum packets (default 100, max 1000)"
//	@Success	200		{array}		PacketResponse
//	@Failure	400		{object}	APIResponse
//	@Router		/packets [get]
//	@Security	ApiKeyAuth
func (s *Server) handleListPackets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, err := optionalTimestamp(q.Get("from"))
	if err != nil {
		sendError(w, fmt.Sprintf("from: %v", err), http.StatusBadRequest)
		return
	}
	to, err := optionalTimestamp(q.Get("to"))
	if err != nil {
		sendError(w, fmt.Sprintf("to: %v", err), http.StatusBadRequest)
		return
	}

	limit := defaultListLimit
	if l := q.Get("limit"); l != "" {
		limit, err = strconv.Atoi(l)
		if err != nil || limit <= 0 {
			sendError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		if limit > maxListLimit {
			limit = maxListLimit
		}
	}

	out := make([]PacketResponse, 0)
	start := time.Now()
	err = s.store.Scan(r.Context(), from, to, limit, func(p *storage.Packet) error {
		out = append(out, s.packetResponse(p, true))
		return nil
	})
	s.metrics.RecordStoreOperation("scan", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("failed to scan packets", "from", from, "to", to, "error", err)
		sendError(w, fmt.Sprintf("Failed to list packets: %v", err), statusForError(err))
		return
	}

	sendSuccess(w, out)
}

// handleGetPacket godoc
//
//	@Summary	Get a packet
//	@Tags		packets
//	@Produce	json
//	@Param		id	path		string	true	"Packet ID"
//	@Success	200	{object}	PacketResponse
//	@Failure	400	{object}	APIResponse
//	@Failure	404	{object}	APIResponse
//	@Router		/packets/{id} [get]
//	@Security	ApiKeyAuth
func (s *Server) handleGetPacket(w http.ResponseWriter, r *http.Request) {
	id, err := storage.ParsePacketID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	p, err := s.store.Get(id)
	s.metrics.RecordStoreOperation("get", err == nil || errors.Is(err, storage.ErrNotFound), time.Since(start))
	if err != nil {
		sendError(w, err.Error(), statusForError(err))
		return
	}

	sendSuccess(w, s.packetResponse(p, true))
}

// handleTrim godoc
//
//	@Summary	Delete packets captured before a timestamp
//	@Tags		packets
//	@Produce	json
//	@Param		before	query		string	true	"Epoch microseconds"
//	@Success	200		{object}	TrimResponse
//	@Failure	400		{object}	APIResponse
//	@Router		/packets [delete]
//	@Security	ApiKeyAuth
func (s *Server) handleTrim(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("before")
	if raw == "" {
		sendError(w, "before is required", http.StatusBadRequest)
		return
	}
	before, err := codec.ParseTimestamp(raw)
	if err != nil {
		s.metrics.RecordCodecError(codecErrorKind(err))
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	removed, err := s.store.Trim(r.Context(), before)
	s.metrics.RecordStoreOperation("trim", err == nil, time.Since(start))
	if err != nil {
		s.logger.Error("failed to trim", "before", before, "error", err)
		sendError(w, fmt.Sprintf("Failed to trim: %v", err), statusForError(err))
		return
	}

	sendSuccess(w, TrimResponse{Before: before, Removed: removed})
}

// handleStats godoc
//
//	@Summary	Capture store statistics
//	@Tags		diagnostics
//	@Produce	json
//	@Success	200	{object}	storage.Stats
//	@Router		/stats [get]
//	@Security	ApiKeyAuth
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st, err := s.store.Stats(r.Context())
	s.metrics.RecordStoreOperation("stats", err == nil, time.Since(start))
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to read stats: %v", err), statusForError(err))
		return
	}

	s.metrics.UpdateStoreStats(st)
	sendSuccess(w, st)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (s *Server) describe(ts uint64) TimestampResponse {
	return TimestampResponse{
		Timestamp: ts,
		Packed:    hex.EncodeToString(codec.Pack(ts)),
		Date:      codec.FormatInLocation(ts, s.config.Location),
	}
}

func (s *Server) packetResponse(p *storage.Packet, withDump bool) PacketResponse {
	resp := PacketResponse{
		ID:        p.ID.String(),
		Timestamp: p.Timestamp,
		Date:      codec.FormatInLocation(p.Timestamp, s.config.Location),
		Size:      len(p.Payload),
	}
	if withDump {
		resp.HexDump = codec.FormatHexDump(p.Payload)
	}
	return resp
}

func optionalTimestamp(raw string) (uint64, error) {
	if raw == "" {
		return 0, nil
	}
	return codec.ParseTimestamp(raw)
}
