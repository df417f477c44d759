package grpc

import (
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ChatService is the service name reported by the health endpoint.
const ChatService = "cipherchat.Chat"

// HealthServer exposes the standard gRPC health protocol for the chat
// listener, so orchestrators can probe the TCP server.
type HealthServer struct {
	log    *slog.Logger
	server *grpc.Server
	health *health.Server

	mu       sync.Mutex
	listener net.Listener
	done     chan error
}

func NewHealthServer(log *slog.Logger) *HealthServer {
	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)
	healthServer.SetServingStatus(ChatService, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{log: log, server: server, health: healthServer}
}

func (h *HealthServer) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	h.mu.Lock()
	h.listener = listener
	h.done = make(chan error, 1)
	h.mu.Unlock()

	go func(done chan error) {
		h.log.Info("Starting gRPC health server", "address", listener.Addr().String())
		err := h.server.Serve(listener)
		if err != nil && err != grpc.ErrServerStopped {
			h.log.Error("gRPC health server error", "error", err)
		}
		done <- err
	}(h.done)
	return nil
}

func (h *HealthServer) Addr() net.Addr {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// SetServing reports the chat listener state, both for the chat service and
// for the server as a whole.
func (h *HealthServer) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus(ChatService, status)
	h.health.SetServingStatus("", status)
}

func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
	h.mu.Lock()
	done := h.done
	h.mu.Unlock()
	if done != nil {
		<-done
	}
}
