package realtime

import "errors"

var (
	ErrConnectionFailed = errors.New("realtime: connection failed after maximum attempts")
	ErrServerClosed     = errors.New("realtime: server closed the connection")
	ErrConnClosed       = errors.New("realtime: connection closed")
	ErrMalformedMessage = errors.New("realtime: malformed message")
	ErrAlreadyStarted   = errors.New("realtime: channel already started")
	ErrClosed           = errors.New("realtime: channel closed")
)
