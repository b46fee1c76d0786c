package desktop

import "errors"

var (
	ErrNotGranted        = errors.New("desktop: notification permission not granted")
	ErrInvalidPermission = errors.New("desktop: invalid permission")
)
