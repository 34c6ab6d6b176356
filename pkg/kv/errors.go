package kv

import "errors"

var (
	ErrNotFound           = errors.New("kv: key not found")
	ErrKeyNotOwned        = errors.New("kv: key not owned by slice")
	ErrEncode             = errors.New("kv: failed to encode value")
	ErrDecode             = errors.New("kv: failed to decode value")
	ErrEmptyPath          = errors.New("kv: empty file path")
	ErrEmptyConnectionURL = errors.New("kv: empty redis connection URL")
	ErrFailedToParseURL   = errors.New("kv: failed to parse redis connection URL")
	ErrConnectionFailed   = errors.New("kv: failed to establish redis connection")
	ErrHealthcheckFailed  = errors.New("kv: redis healthcheck failed")
)
