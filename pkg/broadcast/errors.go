package broadcast

import "errors"

// ErrClosed is returned by Broadcast after the broadcaster was closed.
var ErrClosed = errors.New("broadcast: broadcaster closed")
