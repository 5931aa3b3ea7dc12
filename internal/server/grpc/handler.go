package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/atlist/internal/common"
	"github.com/dmitrijs2005/atlist/internal/rpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// toStatus maps service errors to gRPC status codes. Unknown errors become
// Internal without leaking their text.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, common.ErrorValidation),
		errors.Is(err, common.ErrMalformedRecord):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func (s *GRPCServer) caller(ctx context.Context) (string, error) {
	id, ok := callerFrom(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return id, nil
}

func (s *GRPCServer) Read(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	req, err := rpc.DecodeReadRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}

	rows, err := s.records.Read(ctx, caller, req)
	if err != nil {
		if status.Code(toStatus(err)) == codes.Internal {
			s.logger.Error(ctx, "read failed", "collection", req.Collection, "err", err)
		}
		return nil, toStatus(err)
	}

	out, err := rpc.ReadResponse{Rows: rows}.Encode()
	if err != nil {
		s.logger.Error(ctx, "encode failed", "collection", req.Collection, "err", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *GRPCServer) Upsert(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	req, err := rpc.DecodeUpsertRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}

	n, err := s.records.Upsert(ctx, caller, req)
	if err != nil {
		if status.Code(toStatus(err)) == codes.Internal {
			s.logger.Error(ctx, "upsert failed", "collection", req.Collection, "err", err)
		}
		return nil, toStatus(err)
	}

	return rpc.WriteResponse{Affected: n}.Encode()
}

func (s *GRPCServer) Delete(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	caller, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}

	req, err := rpc.DecodeDeleteRequest(in)
	if err != nil {
		return nil, toStatus(err)
	}

	n, err := s.records.Delete(ctx, caller, req)
	if err != nil {
		if status.Code(toStatus(err)) == codes.Internal {
			s.logger.Error(ctx, "delete failed", "collection", req.Collection, "err", err)
		}
		return nil, toStatus(err)
	}

	return rpc.WriteResponse{Affected: n}.Encode()
}

func (s *GRPCServer) Ping(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"status": "OK"})
}
