package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "atlist.recordstore.v1.RecordStore"

const (
	ReadFullMethod   = "/" + ServiceName + "/Read"
	UpsertFullMethod = "/" + ServiceName + "/Upsert"
	DeleteFullMethod = "/" + ServiceName + "/Delete"
	PingFullMethod   = "/" + ServiceName + "/Ping"
)

// RecordStoreClient is the client API for the RecordStore service.
type RecordStoreClient interface {
	Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

type recordStoreClient struct {
	cc grpc.ClientConnInterface
}

func NewRecordStoreClient(cc grpc.ClientConnInterface) RecordStoreClient {
	return &recordStoreClient{cc: cc}
}

func (c *recordStoreClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *recordStoreClient) Read(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ReadFullMethod, in, opts...)
}

func (c *recordStoreClient) Upsert(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, UpsertFullMethod, in, opts...)
}

func (c *recordStoreClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, DeleteFullMethod, in, opts...)
}

func (c *recordStoreClient) Ping(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, PingFullMethod, in, opts...)
}

// RecordStoreServer is the server API for the RecordStore service.
// Implementations must embed UnimplementedRecordStoreServer.
type RecordStoreServer interface {
	Read(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Upsert(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Ping(context.Context, *structpb.Struct) (*structpb.Struct, error)
	mustEmbedUnimplementedRecordStoreServer()
}

type UnimplementedRecordStoreServer struct{}

func (UnimplementedRecordStoreServer) Read(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Read not implemented")
}
func (UnimplementedRecordStoreServer) Upsert(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Upsert not implemented")
}
func (UnimplementedRecordStoreServer) Delete(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Delete not implemented")
}
func (UnimplementedRecordStoreServer) Ping(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedRecordStoreServer) mustEmbedUnimplementedRecordStoreServer() {}

func RegisterRecordStoreServer(s grpc.ServiceRegistrar, srv RecordStoreServer) {
	s.RegisterService(&RecordStore_ServiceDesc, srv)
}

type unaryMethod func(RecordStoreServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RecordStoreServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RecordStoreServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RecordStore_ServiceDesc is the grpc.ServiceDesc for the RecordStore service.
var RecordStore_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordStoreServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Read", Handler: unaryHandler(ReadFullMethod, RecordStoreServer.Read)},
		{MethodName: "Upsert", Handler: unaryHandler(UpsertFullMethod, RecordStoreServer.Upsert)},
		{MethodName: "Delete", Handler: unaryHandler(DeleteFullMethod, RecordStoreServer.Delete)},
		{MethodName: "Ping", Handler: unaryHandler(PingFullMethod, RecordStoreServer.Ping)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "atlist/recordstore/v1/recordstore.proto",
}
