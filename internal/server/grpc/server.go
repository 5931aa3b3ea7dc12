// Package grpc exposes the record store over gRPC. Handlers decode the
// structpb messages, call RecordService with the authenticated caller and
// map service errors to status codes.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/atlist/internal/logging"
	"github.com/dmitrijs2005/atlist/internal/rpc"
	"github.com/dmitrijs2005/atlist/internal/server/metrics"
	"google.golang.org/grpc"
)

// RecordService is the policy layer the handlers delegate to.
type RecordService interface {
	Read(ctx context.Context, caller string, req rpc.ReadRequest) ([]rpc.Row, error)
	Upsert(ctx context.Context, caller string, req rpc.UpsertRequest) (int64, error)
	Delete(ctx context.Context, caller string, req rpc.DeleteRequest) (int64, error)
}

type GRPCServer struct {
	rpc.UnimplementedRecordStoreServer
	address   string
	records   RecordService
	metrics   *metrics.Metrics
	logger    logging.Logger
	jwtSecret []byte
}

// NewGRPCServer builds a server for address. m may be nil to skip metrics.
func NewGRPCServer(a string, l logging.Logger, rs RecordService, m *metrics.Metrics, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		records:   rs,
		metrics:   m,
		jwtSecret: []byte(secretKey),
	}
}

// NewServer creates a grpc.Server with the interceptor chain and the
// record store registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	chain := []grpc.UnaryServerInterceptor{}
	if s.metrics != nil {
		chain = append(chain, s.metrics.UnaryServerInterceptor())
	}
	chain = append(chain, s.loggingInterceptor, s.accessTokenInterceptor)

	srv := grpc.NewServer(append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(chain...)}, opts...)...)
	rpc.RegisterRecordStoreServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on listen until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
