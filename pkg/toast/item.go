package toast

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notifications"
)

// Item is one visible toast.
type Item struct {
	ID        string
	Title     string
	Message   string
	Kind      notifications.Kind
	Icon      string
	Duration  time.Duration
	Remaining float64 // percent of Duration still to go, 0..100
	Paused    bool
}

// FromNotification builds a toast styled after n.
func FromNotification(n notifications.Notification) Item {
	style := notifications.StyleFor(n)
	return Item{
		Title:   n.Title,
		Message: n.Message,
		Kind:    style.Kind,
		Icon:    style.Icon,
	}
}

// Error builds a toast for a user-facing failure.
func Error(title, message string) Item {
	return Item{
		Title:   title,
		Message: message,
		Kind:    notifications.KindError,
		Icon:    "alert-circle",
	}
}
