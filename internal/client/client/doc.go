// Package client is the device side of the RecordStore transport.
//
// GRPCClient manages one gRPC connection to the record store, attaches the
// current access token and a request id to every call through a unary
// interceptor, bounds each call with a per-request timeout, and maps gRPC
// status codes onto the sentinel errors in internal/common:
//
//	Unauthenticated     -> common.ErrorUnauthorized
//	PermissionDenied    -> common.ErrorForbidden
//	InvalidArgument     -> common.ErrorValidation
//	NotFound            -> common.ErrorNotFound
//	ResourceExhausted   -> common.ErrRateLimited
//	Unavailable,
//	DeadlineExceeded    -> ErrUnavailable
//
// Rows are untyped (rpc.Row). Decoding them into models happens in
// client/remote.
package client
