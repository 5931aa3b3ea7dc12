// Package rpc declares the RecordStore gRPC service shared by the device
// client and the self-hosted record store.
//
// The service is deliberately schemaless on the wire: every request and
// response is a google.protobuf.Struct, and the typed views in this package
// (ReadRequest, UpsertRequest, DeleteRequest, Row) are converted to and from
// Structs at the edges. The service descriptor is written by hand, so there
// is no protoc step.
//
// Methods:
//
//	Read(collection, filter, order) -> rows
//	Upsert(collection, rows)        -> affected
//	Delete(collection, filter)      -> affected
//	Ping()                          -> status
//
// Typed decoding and validation of rows into domain models happens one layer
// up (client/remote on the device, server/services on the store).
package rpc
