package worker

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ezpool/ezpool/internal/rpc"
)

// Server hosts a registry of worker types over gRPC so remote pools can
// dispatch tasks to this process. One server instance serves one endpoint.
type Server struct {
	addr    string
	reg     *Registry
	logger  *zap.Logger
	session string

	mu         sync.Mutex
	grpcServer *grpc.Server
	listener   net.Listener
	stopOnce   sync.Once
	done       chan struct{}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the daemon's logger. If not specified, the server
// stays silent.
func WithServerLogger(logger *zap.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a server for addr ("host:port"; use port 0 to pick a
// free port) serving the registry's worker types.
func NewServer(addr string, reg *Registry, opts ...ServerOption) *Server {
	s := &Server{
		addr:    addr,
		reg:     reg,
		logger:  zap.NewNop(),
		session: uuid.NewString(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("session", s.session))
	return s
}

// Start listens on the configured address and begins serving in the
// background. Use Addr to discover the bound address and Stop to drain and
// shut down.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("worker: cannot listen on %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = listener
	s.grpcServer = grpc.NewServer()
	s.mu.Unlock()
	rpc.RegisterWorkerService(s.grpcServer, s)

	s.logger.Info("worker daemon listening",
		zap.String("addr", listener.Addr().String()),
		zap.Strings("workers", s.reg.Names()),
	)

	go func() {
		if err := s.grpcServer.Serve(listener); err != nil {
			s.logger.Error("serve stopped", zap.Error(err))
		}
	}()
	return nil
}

// Serve runs the daemon until ctx is cancelled or a remote Shutdown arrives,
// then drains in-flight calls.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		s.Stop()
	case <-s.done:
	}
	return nil
}

// Addr returns the bound listen address, available after Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop drains in-flight calls and shuts the server down. Safe to call more
// than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		server := s.grpcServer
		s.mu.Unlock()
		if server != nil {
			server.GracefulStop()
		}
		close(s.done)
	})
}

// Run executes one task with the named worker type. Task-logic failures are
// reported inside the reply so the calling pool can capture them as values;
// only an unknown worker type is a call error.
func (s *Server) Run(ctx context.Context, req *rpc.RunRequest) (*rpc.RunReply, error) {
	handler, ok := s.reg.Lookup(req.Worker)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "worker type %q not hosted here", req.Worker)
	}

	start := time.Now()
	payload, err := handler(ctx, req.Payload)
	elapsed := time.Since(start)

	if err != nil {
		s.logger.Debug("task failed",
			zap.String("worker", req.Worker),
			zap.Int64("index", req.Index),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return &rpc.RunReply{Error: err.Error()}, nil
	}

	s.logger.Debug("task complete",
		zap.String("worker", req.Worker),
		zap.Int64("index", req.Index),
		zap.Duration("elapsed", elapsed),
	)
	return &rpc.RunReply{Payload: payload}, nil
}

// Describe reports the worker types this daemon hosts.
func (s *Server) Describe(ctx context.Context, req *rpc.DescribeRequest) (*rpc.DescribeReply, error) {
	reply := &rpc.DescribeReply{Workers: s.reg.Names()}
	if req.Worker != "" {
		_, reply.Supported = s.reg.Lookup(req.Worker)
	}
	return reply, nil
}

// Shutdown stops the daemon remotely after in-flight calls drain. The stop
// runs in the background so this call can still be answered.
func (s *Server) Shutdown(ctx context.Context, req *rpc.ShutdownRequest) (*rpc.ShutdownReply, error) {
	s.logger.Info("shutdown requested remotely")
	go s.Stop()
	return &rpc.ShutdownReply{}, nil
}
