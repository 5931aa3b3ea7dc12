package rpc

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/atlist/internal/common"
	"google.golang.org/protobuf/types/known/structpb"
)

// Filter is a set of column equality conditions joined with AND.
type Filter map[string]any

// Row is one record of a collection as it travels on the wire.
// Numbers always decode as float64.
type Row map[string]any

type ReadRequest struct {
	Collection string
	Filter     Filter
	// Order is a column name, sorted ascending. Empty means store order.
	Order string
}

type UpsertRequest struct {
	Collection string
	Rows       []Row
}

type DeleteRequest struct {
	Collection string
	Filter     Filter
}

type ReadResponse struct {
	Rows []Row
}

// WriteResponse is returned by Upsert and Delete.
type WriteResponse struct {
	Affected int64
}

func (r ReadRequest) Encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"collection": r.Collection,
		"filter":     map[string]any(r.Filter),
		"order":      r.Order,
	})
}

func (r UpsertRequest) Encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"collection": r.Collection,
		"rows":       rowsToList(r.Rows),
	})
}

func (r DeleteRequest) Encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"collection": r.Collection,
		"filter":     map[string]any(r.Filter),
	})
}

func (r ReadResponse) Encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"rows": rowsToList(r.Rows)})
}

func (r WriteResponse) Encode() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{"affected": r.Affected})
}

func DecodeReadRequest(s *structpb.Struct) (ReadRequest, error) {
	m := s.AsMap()
	c, err := collection(m)
	if err != nil {
		return ReadRequest{}, err
	}
	f, err := filter(m)
	if err != nil {
		return ReadRequest{}, err
	}
	order, _ := m["order"].(string)
	return ReadRequest{Collection: c, Filter: f, Order: order}, nil
}

func DecodeUpsertRequest(s *structpb.Struct) (UpsertRequest, error) {
	m := s.AsMap()
	c, err := collection(m)
	if err != nil {
		return UpsertRequest{}, err
	}
	rows, err := listToRows(m["rows"])
	if err != nil {
		return UpsertRequest{}, err
	}
	return UpsertRequest{Collection: c, Rows: rows}, nil
}

func DecodeDeleteRequest(s *structpb.Struct) (DeleteRequest, error) {
	m := s.AsMap()
	c, err := collection(m)
	if err != nil {
		return DeleteRequest{}, err
	}
	f, err := filter(m)
	if err != nil {
		return DeleteRequest{}, err
	}
	return DeleteRequest{Collection: c, Filter: f}, nil
}

func DecodeReadResponse(s *structpb.Struct) (ReadResponse, error) {
	rows, err := listToRows(s.AsMap()["rows"])
	if err != nil {
		return ReadResponse{}, err
	}
	return ReadResponse{Rows: rows}, nil
}

func DecodeWriteResponse(s *structpb.Struct) (WriteResponse, error) {
	n, _, err := Row(s.AsMap()).Int("affected")
	if err != nil {
		return WriteResponse{}, err
	}
	return WriteResponse{Affected: n}, nil
}

func collection(m map[string]any) (string, error) {
	c, _ := m["collection"].(string)
	if c == "" {
		return "", fmt.Errorf("%w: collection is required", common.ErrorValidation)
	}
	if !KnownCollection(c) {
		return "", fmt.Errorf("%w: unknown collection %q", common.ErrorValidation, c)
	}
	return c, nil
}

func filter(m map[string]any) (Filter, error) {
	raw, ok := m["filter"]
	if !ok || raw == nil {
		return Filter{}, nil
	}
	f, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: filter must be an object", common.ErrorValidation)
	}
	return Filter(f), nil
}

func rowsToList(rows []Row) []any {
	out := make([]any, 0, len(rows))
	for _, r := range rows {
		out = append(out, map[string]any(r))
	}
	return out
}

func listToRows(raw any) ([]Row, error) {
	if raw == nil {
		return []Row{}, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: rows must be a list", common.ErrorValidation)
	}
	rows := make([]Row, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: row %d is %T", common.ErrorValidation, i, item)
		}
		rows = append(rows, Row(m))
	}
	return rows, nil
}

// Str returns the string stored under key. ok is false when the key is
// missing or null; a value of another type is ErrMalformedRecord.
func (r Row) Str(key string) (v string, ok bool, err error) {
	raw, present := r[key]
	if !present || raw == nil {
		return "", false, nil
	}
	s, isStr := raw.(string)
	if !isStr {
		return "", false, fmt.Errorf("%w: %s is %T, want string", common.ErrMalformedRecord, key, raw)
	}
	return s, true, nil
}

func (r Row) Bool(key string) (v bool, ok bool, err error) {
	raw, present := r[key]
	if !present || raw == nil {
		return false, false, nil
	}
	b, isBool := raw.(bool)
	if !isBool {
		return false, false, fmt.Errorf("%w: %s is %T, want bool", common.ErrMalformedRecord, key, raw)
	}
	return b, true, nil
}

// Int accepts any integral number.
func (r Row) Int(key string) (v int64, ok bool, err error) {
	raw, present := r[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	var f float64
	switch n := raw.(type) {
	case float64:
		f = n
	case int:
		return int64(n), true, nil
	case int64:
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%w: %s is %T, want number", common.ErrMalformedRecord, key, raw)
	}
	if f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, false, fmt.Errorf("%w: %s is %v, want integer", common.ErrMalformedRecord, key, f)
	}
	return int64(f), true, nil
}
