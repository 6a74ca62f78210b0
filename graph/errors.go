package graph

import "errors"

var (
	ErrInvalidEndpoint = errors.New("graph: connection endpoint does not exist")
	ErrTypeMismatch    = errors.New("graph: slot types differ")
	ErrSelfLoop        = errors.New("graph: both slots belong to the same node")
	ErrDirection       = errors.New("graph: connection must join one output to one input")
)
