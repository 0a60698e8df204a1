// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidRequest  = errors.New("invalid websocket request")
	ErrUnsupportedType = errors.New("unsupported event type")
)
