package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotServing  = errors.New("service not serving")
)
