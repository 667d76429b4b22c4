// Package jsonrpc serves the node's query and submission API over HTTP.
// Requests are POSTed JSON envelopes; responses carry their payload inside
// a result object with a status field, errors included.
package jsonrpc

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/LeJamon/goswapd/internal/core/ledger"
	"github.com/LeJamon/goswapd/internal/core/op"
	"github.com/LeJamon/goswapd/internal/storage/history"
)

// EventPublisher receives every applied operation for fan-out to feed
// subscribers.
type EventPublisher interface {
	PublishApplied(sub op.Submission, result op.ApplyResult)
}

// NoOpPublisher discards events. It stands in when the feed is disabled.
type NoOpPublisher struct{}

func (NoOpPublisher) PublishApplied(op.Submission, op.ApplyResult) {}

var _ EventPublisher = NoOpPublisher{}

// Services are the node components the RPC methods answer from. History
// and Publisher are optional; Version labels server_info responses.
type Services struct {
	Ledger    *ledger.Ledger
	Engine    *op.Engine
	History   *history.Store
	Publisher EventPublisher
	Version   string
}

// Server dispatches JSON-RPC requests to registered methods.
type Server struct {
	registry *MethodRegistry
	services Services
	started  time.Time
}

// NewServer creates a server over the given services with every method
// registered.
func NewServer(services Services) *Server {
	if services.Publisher == nil {
		services.Publisher = NoOpPublisher{}
	}
	s := &Server{
		registry: NewMethodRegistry(),
		services: services,
		started:  time.Now(),
	}
	s.registerAllMethods()
	return s
}

func (s *Server) registerAllMethods() {
	s.registry.Register("submit", s.handleSubmit)
	s.registry.Register("network_info", s.handleNetworkInfo)
	s.registry.Register("pool_info", s.handlePoolInfo)
	s.registry.Register("lpt_info", s.handleLPTInfo)
	s.registry.Register("holding_info", s.handleHoldingInfo)
	s.registry.Register("history", s.handleHistory)
	s.registry.Register("server_info", s.handleServerInfo)
}

// ServeHTTP implements http.Handler. Only POST is accepted.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var request Request
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.writeError(w, nil, errParse("Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeError(w, nil, errMissingMethod())
		return
	}

	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	method, exists := s.registry.Get(request.Method)
	if !exists {
		s.writeError(w, requestEcho(request.Method, params), errMethodNotFound(request.Method))
		return
	}

	result, rpcErr := method(r.Context(), params)
	if rpcErr != nil {
		s.writeError(w, requestEcho(request.Method, params), rpcErr)
		return
	}
	s.writeResult(w, result)
}

// Call runs a registered method in-process, bypassing HTTP. The CLI uses
// it to answer queries with the server's own handlers.
func (s *Server) Call(ctx context.Context, method string, params json.RawMessage) (interface{}, *Error) {
	fn, exists := s.registry.Get(method)
	if !exists {
		return nil, errMethodNotFound(method)
	}
	return fn(ctx, params)
}

// requestEcho rebuilds the request object error responses carry back.
func requestEcho(method string, params json.RawMessage) map[string]interface{} {
	echo := make(map[string]interface{})
	if params != nil {
		_ = json.Unmarshal(params, &echo)
	}
	echo["method"] = method
	return echo
}

func (s *Server) writeResult(w http.ResponseWriter, result interface{}) {
	obj := make(map[string]interface{})
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			s.writeError(w, nil, errInternal("Failed to encode result"))
			return
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			obj = map[string]interface{}{"data": result}
		}
	}
	obj["status"] = "success"
	s.write(w, map[string]interface{}{"result": obj})
}

func (s *Server) writeError(w http.ResponseWriter, request map[string]interface{}, rpcErr *Error) {
	obj := map[string]interface{}{
		"status":        "error",
		"error":         rpcErr.Name,
		"error_code":    rpcErr.Code,
		"error_message": rpcErr.Message,
	}
	if request != nil {
		obj["request"] = request
	}
	s.write(w, map[string]interface{}{"result": obj})
}

func (s *Server) write(w http.ResponseWriter, response map[string]interface{}) {
	data, err := json.Marshal(response)
	if err != nil {
		log.Printf("jsonrpc: marshal response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
