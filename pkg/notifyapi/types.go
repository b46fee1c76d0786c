package notifyapi

// Envelope wraps every JSON response body.
type Envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// UnreadCount is the payload of GET /notifications/unread-count.
type UnreadCount struct {
	Count int `json:"count"`
}

// Identity is the payload of GET /auth/socket.
type Identity struct {
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"userId,omitempty"`
}

// LoginRequest is the body of POST /auth/session.
type LoginRequest struct {
	UserID string `json:"userId"`
}

// Routes of the REST contract, used for requests and metric labels.
const (
	RouteNotifications = "/notifications"
	RouteUnreadCount   = "/notifications/unread-count"
	RouteMarkAllRead   = "/notifications/mark-all-read"
	RouteMarkRead      = "/notifications/{id}/read"
	RouteNotification  = "/notifications/{id}"
	RouteSocketAuth    = "/auth/socket"
	RouteSession       = "/auth/session"
	RouteSocket        = "/socket"
)
