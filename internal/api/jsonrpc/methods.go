package jsonrpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"math"
	"time"

	"github.com/LeJamon/goswapd/internal/core/ledger/keys"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/core/op"
	"github.com/LeJamon/goswapd/internal/storage/history"
)

func unmarshalParams(params json.RawMessage, target interface{}) *Error {
	if params == nil {
		return nil
	}
	if err := json.Unmarshal(params, target); err != nil {
		return errInvalidParams("Invalid parameters: " + err.Error())
	}
	return nil
}

// readRecord loads and unwraps one stored record, mapping every miss
// (absent slot, foreign domain, different kind) to entryNotFound.
func (s *Server) readRecord(key record.Address, kind record.Kind, program record.Address) ([]byte, *Error) {
	data, err := s.services.Ledger.Read(key)
	if err != nil {
		return nil, errInternal("Failed to read record: " + err.Error())
	}
	if data == nil {
		return nil, errNotFound(kind.String())
	}
	k, p, payload, err := record.DecodeEnvelope(data)
	if err != nil || k != kind || p != program {
		return nil, errNotFound(kind.String())
	}
	return payload, nil
}

func (s *Server) handleSubmit(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	var request struct {
		Program  string `json:"program,omitempty"`
		Accounts []struct {
			Key    string `json:"key"`
			Signer bool   `json:"signer,omitempty"`
		} `json:"accounts,omitempty"`
		Data string `json:"data"`
	}
	if rpcErr := unmarshalParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Data == "" {
		return nil, errInvalidParams("Missing required parameter: data")
	}
	data, err := hex.DecodeString(request.Data)
	if err != nil {
		return nil, errInvalidParams("Parameter data is not valid hex: " + err.Error())
	}

	sub := op.Submission{Program: keys.EngineProgram, Data: data}
	if request.Program != "" {
		program, err := record.AddressFromHex(request.Program)
		if err != nil {
			return nil, errInvalidParams("Invalid program address: " + err.Error())
		}
		sub.Program = program
	}
	for _, account := range request.Accounts {
		key, err := record.AddressFromHex(account.Key)
		if err != nil {
			return nil, errInvalidParams("Invalid account key: " + err.Error())
		}
		sub.Accounts = append(sub.Accounts, op.AccountRef{Key: key, Signer: account.Signer})
	}

	result := s.services.Engine.Apply(sub)
	if result.Applied {
		s.recordApplied(ctx, sub, result)
	}

	response := map[string]interface{}{
		"applied":               result.Applied,
		"engine_result":         result.Result.String(),
		"engine_result_code":    int(result.Result),
		"engine_result_message": result.Message,
		"tag":                   result.Tag.String(),
	}
	if result.Applied {
		response["seq"] = result.Seq
		response["metadata"] = result.Metadata
	}
	return response, nil
}

// recordApplied logs and publishes a committed operation. The state is
// already committed; log trouble is reported, not surfaced to the caller.
func (s *Server) recordApplied(ctx context.Context, sub op.Submission, result op.ApplyResult) {
	if s.services.History != nil {
		entry, err := history.NewEntry(sub, result)
		if err == nil {
			err = s.services.History.Record(ctx, entry)
		}
		if err != nil {
			log.Printf("jsonrpc: logging seq %d failed: %v", result.Seq, err)
		}
	}
	s.services.Publisher.PublishApplied(sub, result)
}

func (s *Server) handleNetworkInfo(_ context.Context, params json.RawMessage) (interface{}, *Error) {
	var request struct {
		Network string `json:"network"`
	}
	if rpcErr := unmarshalParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Network == "" {
		return nil, errInvalidParams("Missing required parameter: network")
	}
	key, err := record.AddressFromHex(request.Network)
	if err != nil {
		return nil, errInvalidParams("Invalid network address: " + err.Error())
	}

	payload, rpcErr := s.readRecord(key, record.KindNetwork, keys.EngineProgram)
	if rpcErr != nil {
		return nil, rpcErr
	}
	network, err := record.DecodeNetwork(payload)
	if err != nil {
		return nil, errInternal("Failed to decode network: " + err.Error())
	}

	mints := make([]string, 0, len(network.Mints))
	for _, mint := range network.Mints {
		mints = append(mints, mint.String())
	}
	return map[string]interface{}{
		"network": key.String(),
		"state":   network.State.String(),
		"mints":   mints,
	}, nil
}

func (s *Server) handlePoolInfo(_ context.Context, params json.RawMessage) (interface{}, *Error) {
	var request struct {
		Pool string `json:"pool"`
	}
	if rpcErr := unmarshalParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Pool == "" {
		return nil, errInvalidParams("Missing required parameter: pool")
	}
	key, err := record.AddressFromHex(request.Pool)
	if err != nil {
		return nil, errInvalidParams("Invalid pool address: " + err.Error())
	}

	payload, rpcErr := s.readRecord(key, record.KindPool, keys.EngineProgram)
	if rpcErr != nil {
		return nil, rpcErr
	}
	pool, err := record.DecodePool(payload)
	if err != nil {
		return nil, errInternal("Failed to decode pool: " + err.Error())
	}

	return map[string]interface{}{
		"pool":      key.String(),
		"owner":     pool.Owner.String(),
		"network":   pool.Network.String(),
		"mint":      pool.Mint.String(),
		"treasury":  pool.Treasury.String(),
		"authority": keys.PoolAuthority(key).String(),
		"reserve":   pool.Reserve,
		"lpt":       pool.LPT.Dec(),
		"fee_rate":  pool.FeeRate,
		"primary":   pool.Mint == record.PrimaryMint,
	}, nil
}

func (s *Server) handleLPTInfo(_ context.Context, params json.RawMessage) (interface{}, *Error) {
	var request struct {
		Account string `json:"account"`
	}
	if rpcErr := unmarshalParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Account == "" {
		return nil, errInvalidParams("Missing required parameter: account")
	}
	key, err := record.AddressFromHex(request.Account)
	if err != nil {
		return nil, errInvalidParams("Invalid account address: " + err.Error())
	}

	payload, rpcErr := s.readRecord(key, record.KindLPTAccount, keys.EngineProgram)
	if rpcErr != nil {
		return nil, rpcErr
	}
	account, err := record.DecodeLPTAccount(payload)
	if err != nil {
		return nil, errInternal("Failed to decode share account: " + err.Error())
	}

	return map[string]interface{}{
		"account": key.String(),
		"owner":   account.Owner.String(),
		"pool":    account.Pool.String(),
		"lpt":     account.LPT.Dec(),
	}, nil
}

func (s *Server) handleHoldingInfo(_ context.Context, params json.RawMessage) (interface{}, *Error) {
	var request struct {
		Account string `json:"account"`
	}
	if rpcErr := unmarshalParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Account == "" {
		return nil, errInvalidParams("Missing required parameter: account")
	}
	key, err := record.AddressFromHex(request.Account)
	if err != nil {
		return nil, errInvalidParams("Invalid account address: " + err.Error())
	}

	payload, rpcErr := s.readRecord(key, record.KindHolding, keys.TokenProgram)
	if rpcErr != nil {
		return nil, rpcErr
	}
	holding, err := record.DecodeHolding(payload)
	if err != nil {
		return nil, errInternal("Failed to decode holding: " + err.Error())
	}

	return map[string]interface{}{
		"account": key.String(),
		"owner":   holding.Owner.String(),
		"mint":    holding.Mint.String(),
		"amount":  holding.Amount,
	}, nil
}

func (s *Server) handleHistory(ctx context.Context, params json.RawMessage) (interface{}, *Error) {
	if s.services.History == nil {
		return nil, errNotSupported("The operations log is not configured")
	}

	var request struct {
		Seq   *uint64 `json:"seq,omitempty"`
		Tag   *uint8  `json:"tag,omitempty"`
		From  uint64  `json:"from,omitempty"`
		To    uint64  `json:"to,omitempty"`
		Limit int     `json:"limit,omitempty"`
	}
	if rpcErr := unmarshalParams(params, &request); rpcErr != nil {
		return nil, rpcErr
	}
	if request.Limit <= 0 {
		request.Limit = 20
	}

	var (
		entries []history.Entry
		err     error
	)
	switch {
	case request.Seq != nil:
		var entry *history.Entry
		entry, err = s.services.History.BySequence(ctx, *request.Seq)
		if entry != nil {
			entries = []history.Entry{*entry}
		}
	case request.Tag != nil:
		entries, err = s.services.History.ByTag(ctx, op.Tag(*request.Tag), request.Limit)
	case request.From != 0 || request.To != 0:
		to := request.To
		if to == 0 {
			to = math.MaxInt64
		}
		entries, err = s.services.History.Range(ctx, request.From, to, request.Limit)
	default:
		entries, err = s.services.History.Latest(ctx, request.Limit)
	}
	if errors.Is(err, history.ErrNotFound) {
		return nil, errNotFound("operation")
	}
	if err != nil {
		return nil, errInternal("Failed to query the operations log: " + err.Error())
	}

	operations := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		obj, rpcErr := renderEntry(entry)
		if rpcErr != nil {
			return nil, rpcErr
		}
		operations = append(operations, obj)
	}
	return map[string]interface{}{"operations": operations}, nil
}

func renderEntry(entry history.Entry) (map[string]interface{}, *Error) {
	meta, err := history.DecodeMetadata(entry.Metadata)
	if err != nil {
		return nil, errInternal("Failed to decode metadata: " + err.Error())
	}
	obj := map[string]interface{}{
		"seq":        entry.Seq,
		"tag":        entry.Tag.String(),
		"result":     entry.Result.String(),
		"signer":     entry.Signer.String(),
		"applied_at": entry.AppliedAt.UTC().Format(time.RFC3339),
	}
	if meta != nil {
		obj["metadata"] = meta
	}
	return obj, nil
}

func (s *Server) handleServerInfo(ctx context.Context, _ json.RawMessage) (interface{}, *Error) {
	seq, err := s.services.Ledger.Sequence()
	if err != nil {
		return nil, errInternal("Failed to read the apply sequence: " + err.Error())
	}

	info := map[string]interface{}{
		"build_version": s.services.Version,
		"uptime":        int64(time.Since(s.started).Seconds()),
		"sequence":      seq,
		"methods":       s.registry.List(),
		"store":         s.services.Ledger.Stats(),
	}
	if s.services.History != nil {
		if count, err := s.services.History.Count(ctx); err == nil {
			info["operations_logged"] = count
		}
	}
	return map[string]interface{}{"info": info}, nil
}
