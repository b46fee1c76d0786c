package notifyserver

import "errors"

var (
	ErrSessionNotFound = errors.New("notifyserver: session not found")
	ErrMissingUserID   = errors.New("notifyserver: missing user id")
)
