package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/storage/recordstore"
)

// GetStateRequest represents a request for the node state summary.
type GetStateRequest struct{}

// GetStateResponse represents the node state summary.
type GetStateResponse struct {
	// Sequence is the last applied operation sequence
	Sequence uint64

	// Store is a snapshot of the record store counters
	Store recordstore.Statistics
}

// GetState reports the applied sequence and store counters.
func (s *Server) GetState(ctx context.Context, req *GetStateRequest) (*GetStateResponse, error) {
	if s.records == nil {
		return nil, status.Error(codes.Internal, "record source not available")
	}

	seq, err := s.records.Sequence()
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to read sequence: "+err.Error())
	}

	return &GetStateResponse{
		Sequence: seq,
		Store:    s.records.Stats(),
	}, nil
}

// GetRecordRequest represents a request for one stored record.
type GetRecordRequest struct {
	// Key is the 32-byte record key
	Key record.Address
}

// GetRecordResponse represents one stored record, envelope unwrapped.
type GetRecordResponse struct {
	// Key is the record key
	Key record.Address

	// Kind is the record layout
	Kind record.Kind

	// Program is the storage domain owning the slot
	Program record.Address

	// Payload is the encoded record body
	Payload []byte
}

// GetRecord retrieves a single record by key.
func (s *Server) GetRecord(ctx context.Context, req *GetRecordRequest) (*GetRecordResponse, error) {
	if s.records == nil {
		return nil, status.Error(codes.Internal, "record source not available")
	}

	data, err := s.records.Read(req.Key)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to read record: "+err.Error())
	}
	if data == nil {
		return nil, status.Error(codes.NotFound, "record not found")
	}

	kind, program, payload, err := record.DecodeEnvelope(data)
	if err != nil {
		// The slot holds node bookkeeping, not a record envelope.
		return nil, status.Error(codes.NotFound, "key does not hold a record")
	}

	return &GetRecordResponse{
		Key:     req.Key,
		Kind:    kind,
		Program: program,
		Payload: payload,
	}, nil
}

// GetRecordsRequest represents a request for a page of stored records.
type GetRecordsRequest struct {
	// Program restricts the scan to one storage domain. Zero means all
	// domains.
	Program record.Address

	// Kind restricts the scan to one record layout. Zero means all
	// kinds.
	Kind record.Kind

	// Marker is the pagination marker from a previous response
	Marker string

	// Limit is the maximum number of records to return
	Limit uint32
}

// RecordData represents a single record in a scan response.
type RecordData struct {
	// Key is the record key
	Key record.Address

	// Kind is the record layout
	Kind record.Kind

	// Program is the storage domain owning the slot
	Program record.Address

	// Payload is the encoded record body
	Payload []byte
}

// GetRecordsResponse represents one page of stored records.
type GetRecordsResponse struct {
	// Records contains the page, ordered by key
	Records []RecordData

	// Marker is the pagination marker for the next page (empty if no
	// more pages)
	Marker string
}

// GetRecords scans stored records with filtering and pagination. Results
// are ordered by key; slots that do not hold record envelopes are skipped.
func (s *Server) GetRecords(ctx context.Context, req *GetRecordsRequest) (*GetRecordsResponse, error) {
	if s.records == nil {
		return nil, status.Error(codes.Internal, "record source not available")
	}

	var after record.Address
	hasMarker := false
	if req.Marker != "" {
		parsed, err := parseMarker(req.Marker)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "invalid marker format")
		}
		after = parsed
		hasMarker = true
	}

	limit := req.Limit
	if limit == 0 || limit > maxScanLimit {
		limit = defaultScanLimit
	}

	matches, err := s.collectRecords(ctx, req.Program, req.Kind)
	if err != nil {
		return nil, status.Error(codes.Internal, "failed to scan records: "+err.Error())
	}
	sortRecords(matches)

	resp := &GetRecordsResponse{}
	for _, entry := range matches {
		if hasMarker && !keyAfter(entry.Key, after) {
			continue
		}
		if uint32(len(resp.Records)) == limit {
			resp.Marker = formatMarker(resp.Records[len(resp.Records)-1].Key)
			break
		}
		resp.Records = append(resp.Records, entry)
	}
	return resp, nil
}

// collectRecords gathers every envelope matching the program and kind
// filters. Non-envelope slots are skipped.
func (s *Server) collectRecords(ctx context.Context, program record.Address, kind record.Kind) ([]RecordData, error) {
	var matches []RecordData
	err := s.records.ForEach(ctx, func(key record.Address, data []byte) error {
		k, p, payload, err := record.DecodeEnvelope(data)
		if err != nil {
			return nil
		}
		if !program.IsZero() && p != program {
			return nil
		}
		if kind != 0 && k != kind {
			return nil
		}
		matches = append(matches, RecordData{
			Key:     key,
			Kind:    k,
			Program: p,
			Payload: payload,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return matches, nil
}
