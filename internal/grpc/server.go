package grpc

import (
	"context"
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"

	"github.com/LeJamon/goswapd/internal/core/ledger"
	"github.com/LeJamon/goswapd/internal/core/ledger/record"
	"github.com/LeJamon/goswapd/internal/storage/recordstore"
)

// RecordSource is the view of the ledger the handlers answer from. It is
// implemented by *ledger.Ledger.
type RecordSource interface {
	// Read returns the envelope stored under key, or nil when absent.
	Read(key record.Address) ([]byte, error)

	// Sequence returns the last applied sequence number.
	Sequence() (uint64, error)

	// Stats returns a snapshot of the store counters.
	Stats() recordstore.Statistics

	// ForEach visits every stored record.
	ForEach(ctx context.Context, fn func(key record.Address, data []byte) error) error
}

var _ RecordSource = (*ledger.Ledger)(nil)

// Server hosts the admin handlers over a managed grpc.Server lifecycle.
type Server struct {
	mu sync.RWMutex

	// grpcServer is the underlying gRPC server
	grpcServer *grpc.Server

	// records provides access to ledger state
	records RecordSource

	// config holds the server configuration
	config *ServerConfig

	// listener is the network listener
	listener net.Listener

	// running indicates if the server is currently running
	running bool
}

// NewServer creates a new gRPC server with the given configuration.
func NewServer(cfg *ServerConfig, records RecordSource) (*Server, error) {
	return newServer(cfg, records, false)
}

// NewServerWithInterceptors creates a new gRPC server with the logging
// interceptors installed.
func NewServerWithInterceptors(cfg *ServerConfig, records RecordSource) (*Server, error) {
	return newServer(cfg, records, true)
}

func newServer(cfg *ServerConfig, records RecordSource, intercept bool) (*Server, error) {
	if cfg == nil {
		cfg = DefaultServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(cfg.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(cfg.MaxSendMsgSize),
	}
	if intercept {
		opts = append(opts,
			grpc.UnaryInterceptor(UnaryServerInterceptor()),
			grpc.StreamInterceptor(StreamServerInterceptor()),
		)
	}

	return &Server{
		grpcServer: grpc.NewServer(opts...),
		records:    records,
		config:     cfg,
	}, nil
}

// Start starts the gRPC server and begins accepting connections. This
// method blocks until the server is stopped or an error occurs.
func (s *Server) Start() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	return s.grpcServer.Serve(listener)
}

// StartAsync starts the gRPC server in a goroutine and returns immediately.
func (s *Server) StartAsync() error {
	listener, err := s.listen()
	if err != nil {
		return err
	}
	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			log.Printf("grpc: serve: %v", err)
		}
	}()
	return nil
}

func (s *Server) listen() (net.Listener, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil, errors.New("server is already running")
	}
	listener, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return nil, err
	}
	s.listener = listener
	s.running = true
	return listener, nil
}

// Stop gracefully stops the gRPC server. It stops accepting new
// connections and waits for existing connections to complete.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.grpcServer.GracefulStop()
	s.running = false
}

// StopNow immediately stops the gRPC server without waiting for
// connections.
func (s *Server) StopNow() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.grpcServer.Stop()
	s.running = false
}

// IsRunning returns true if the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Address returns the address the server is listening on. Returns empty
// string if the server is not running.
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// GetGRPCServer returns the underlying grpc.Server. This can be used to
// register additional services before starting.
func (s *Server) GetGRPCServer() *grpc.Server {
	return s.grpcServer
}

// UnaryServerInterceptor logs every unary call with its duration and
// outcome.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Printf("grpc: %s failed in %s: %v", info.FullMethod, time.Since(start), err)
		} else {
			log.Printf("grpc: %s in %s", info.FullMethod, time.Since(start))
		}
		return resp, err
	}
}

// StreamServerInterceptor logs every streaming call with its duration and
// outcome.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		start := time.Now()
		err := handler(srv, ss)
		if err != nil {
			log.Printf("grpc: stream %s failed in %s: %v", info.FullMethod, time.Since(start), err)
		} else {
			log.Printf("grpc: stream %s closed after %s", info.FullMethod, time.Since(start))
		}
		return err
	}
}
