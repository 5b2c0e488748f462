package core

import "errors"

var (
	ErrUnauthorized       = errors.New("data source rejected credentials")
	ErrMalformedDocument  = errors.New("malformed portfolio document")
	ErrMalformedTransfers = errors.New("malformed transfer file")
	ErrInvalidMonth       = errors.New("invalid month")
)
