// Package localstore is the durable key/value store on the device.
//
// Values are opaque byte slices keyed by strings. Records are stored as JSON
// under a key derived from the record kind and the signed-in identity (see
// Key). The SQLite implementation keeps everything in a single kv table
// created by the embedded goose migrations.
package localstore
