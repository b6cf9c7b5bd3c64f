// Package grpc exposes the ledger over gRPC.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dmitrijs2005/stakeledger/internal/logging"
	"github.com/dmitrijs2005/stakeledger/internal/rpc"
	"github.com/dmitrijs2005/stakeledger/internal/server/events"
	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

// Snapshotter stores an exported snapshot and returns its location.
type Snapshotter interface {
	Save(ctx context.Context, snap *models.Snapshot) (string, error)
}

// EventLog answers event history queries.
type EventLog interface {
	Query(ctx context.Context, f events.Filter) ([]events.Event, error)
}

type Option func(*GRPCServer)

func WithSnapshotter(s Snapshotter) Option { return func(g *GRPCServer) { g.snapshots = s } }
func WithEventLog(e EventLog) Option       { return func(g *GRPCServer) { g.events = e } }

type GRPCServer struct {
	address   string
	ledger    *ledger.Ledger
	snapshots Snapshotter
	events    EventLog
	health    *health.Server
	logger    logging.Logger
	jwtSecret []byte
}

var _ rpc.LedgerServer = (*GRPCServer)(nil)

func NewGRPCServer(a string, l logging.Logger, lg *ledger.Ledger, secretKey string, opts ...Option) *GRPCServer {
	s := &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		ledger:    lg,
		health:    health.NewServer(),
		jwtSecret: []byte(secretKey),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// newServer builds the grpc.Server with the ledger and health services
// registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))

	rpc.RegisterLedgerServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(rpc.LedgerService, healthpb.HealthCheckResponse_SERVING)

	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
