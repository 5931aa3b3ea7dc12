package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/rpc"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      rpc.RecordStoreClient

	mu          sync.RWMutex
	accessToken string
}

func withMetadata(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}
	if len(md.Get(common.RequestIDHeaderName)) == 0 {
		md.Set(common.RequestIDHeaderName, uuid.NewString())
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) unaryInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	ctx = withMetadata(ctx, s.AccessToken())

	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient connects lazily to endpointURL. Extra dial options are
// appended to the defaults.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.unaryInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewRecordStoreClient(conn)
	return c, nil
}

func (s *GRPCClient) SetAccessToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = token
}

func (s *GRPCClient) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) Read(ctx context.Context, collection string, filter rpc.Filter, order string) ([]rpc.Row, error) {
	req, err := rpc.ReadRequest{Collection: collection, Filter: filter, Order: order}.Encode()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	resp, err := s.client.Read(ctx, req)
	if err != nil {
		return nil, s.mapError(err)
	}

	out, err := rpc.DecodeReadResponse(resp)
	if err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (s *GRPCClient) Upsert(ctx context.Context, collection string, rows []rpc.Row) (int64, error) {
	req, err := rpc.UpsertRequest{Collection: collection, Rows: rows}.Encode()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	resp, err := s.client.Upsert(ctx, req)
	if err != nil {
		return 0, s.mapError(err)
	}
	return affected(resp)
}

func (s *GRPCClient) Delete(ctx context.Context, collection string, filter rpc.Filter) (int64, error) {
	req, err := rpc.DeleteRequest{Collection: collection, Filter: filter}.Encode()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}

	resp, err := s.client.Delete(ctx, req)
	if err != nil {
		return 0, s.mapError(err)
	}
	return affected(resp)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &structpb.Struct{})
	if err != nil {
		return s.mapError(err)
	}

	if st, _, _ := rpc.Row(resp.AsMap()).Str("status"); st != "OK" {
		return ErrUnavailable
	}

	return nil
}

func affected(resp *structpb.Struct) (int64, error) {
	w, err := rpc.DecodeWriteResponse(resp)
	if err != nil {
		return 0, err
	}
	return w.Affected, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", common.ErrorUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", common.ErrorForbidden, st.Message())
	case codes.InvalidArgument, codes.FailedPrecondition, codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrorValidation, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrorNotFound, st.Message())
	case codes.ResourceExhausted:
		return fmt.Errorf("%w: %s", common.ErrRateLimited, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	case codes.Canceled:
		return context.Canceled
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
