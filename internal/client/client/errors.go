package client

import "errors"

var (
	ErrUnavailable = errors.New("record store unavailable")
)
