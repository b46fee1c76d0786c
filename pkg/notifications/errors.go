package notifications

import "errors"

var (
	ErrNotificationNotFound = errors.New("notifications: notification not found")
	ErrNotificationExists   = errors.New("notifications: notification already exists")
	ErrInvalidNotification  = errors.New("notifications: invalid notification")
	ErrMissingUserID        = errors.New("notifications: user id is required")
	ErrDecodeList           = errors.New("notifications: failed to decode notification list")
)
