// Package models holds the rows of the record store tables as the
// repositories read and write them. Nullable columns are pointers.
package models
